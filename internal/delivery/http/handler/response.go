package handler

import (
	"errors"
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse represents an acknowledgement without a payload
type SuccessResponse struct {
	Success bool `json:"success"`
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		if errors.Is(err, domain.ErrUnauthorized) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case domain.KindBlocked:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err with the status matching its kind.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("user_id", middleware.GetUserID(c)).
			Msg("Request failed")
	}
	c.JSON(status, ErrorResponse{Error: domain.MessageOf(err)})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// idURI binds the :id path parameter shared by the help routes
type idURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type matchURI struct {
	MatchID string `uri:"match_id" binding:"required,uuid"`
}

type userURI struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

type offerURI struct {
	ID      string `uri:"id" binding:"omitempty,uuid"`
	OfferID string `uri:"offer_id" binding:"required,uuid"`
}
