package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/usecase/account"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountUseCase *account.AccountUseCase
}

func NewAccountHandler(accountUseCase *account.AccountUseCase) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
	}
}

// Register handles POST /users
// @Summary Register
// @Description Create the user for the token's identity, or return the existing one
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body account.RegisterRequest true "Display name"
// @Success 200 {object} domain.User
// @Success 201 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /users [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, created, err := h.accountUseCase.Register(c.Request.Context(), middleware.GetClerkID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// GetMe handles GET /users/me
// @Summary Get current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *AccountHandler) GetMe(c *gin.Context) {
	user, err := h.accountUseCase.GetMe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me
// @Summary Update my profile
// @Description Only the fields present in the body are changed
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body domain.UserPatch true "Profile fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /users/me [patch]
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var patch domain.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.accountUseCase.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPushToken handles PUT /users/me/push-token
// @Summary Set push token
// @Description A null or empty token stops push delivery
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body account.PushTokenRequest true "Device token"
// @Success 200 {object} SuccessResponse
// @Router /users/me/push-token [put]
func (h *AccountHandler) SetPushToken(c *gin.Context) {
	var req account.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.accountUseCase.SetPushToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// DeleteMe handles DELETE /users/me
// @Summary Delete account
// @Description Removes the user and everything that depends on them
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /users/me [delete]
func (h *AccountHandler) DeleteMe(c *gin.Context) {
	if err := h.accountUseCase.DeleteAccount(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}
