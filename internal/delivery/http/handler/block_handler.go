package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/usecase/block"
	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	blockUseCase *block.BlockUseCase
}

func NewBlockHandler(blockUseCase *block.BlockUseCase) *BlockHandler {
	return &BlockHandler{
		blockUseCase: blockUseCase,
	}
}

// BlockUser handles POST /blocks/:user_id
func (h *BlockHandler) BlockUser(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	blocked, err := h.blockUseCase.BlockUser(c.Request.Context(), middleware.GetUserID(c), uri.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocked)
}

// UnblockUser handles DELETE /blocks/:user_id
func (h *BlockHandler) UnblockUser(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.blockUseCase.UnblockUser(c.Request.Context(), middleware.GetUserID(c), uri.UserID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// IsBlocked handles GET /blocks/:user_id
func (h *BlockHandler) IsBlocked(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	status, err := h.blockUseCase.IsBlocked(c.Request.Context(), middleware.GetUserID(c), uri.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListBlocked handles GET /blocks
func (h *BlockHandler) ListBlocked(c *gin.Context) {
	blocks, err := h.blockUseCase.ListBlocked(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}
