package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
)

type SwipeHandler struct {
	swipeUseCase *swipe.SwipeUseCase
}

func NewSwipeHandler(swipeUseCase *swipe.SwipeUseCase) *SwipeHandler {
	return &SwipeHandler{
		swipeUseCase: swipeUseCase,
	}
}

// CreateSwipe handles POST /swipes
// @Summary Swipe on a user
// @Description Records like, pass or superlike; a mutual positive swipe creates a match
// @Tags swipes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body swipe.SwipeRequest true "Swipe"
// @Success 200 {object} swipe.SwipeResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /swipes [post]
func (h *SwipeHandler) CreateSwipe(c *gin.Context) {
	var req swipe.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	result, err := h.swipeUseCase.RecordSwipe(c.Request.Context(), userID, userID, req.SwipedUserID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetLikesReceived handles GET /swipes/likes-received
// @Summary Likes received
// @Tags swipes
// @Security BearerAuth
// @Produce json
// @Success 200 {array} swipe.LikeReceived
// @Router /swipes/likes-received [get]
func (h *SwipeHandler) GetLikesReceived(c *gin.Context) {
	likes, err := h.swipeUseCase.GetLikesReceived(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// GetMatches handles GET /matches
func (h *SwipeHandler) GetMatches(c *gin.Context) {
	matches, err := h.swipeUseCase.GetMatches(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}
