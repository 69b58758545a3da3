package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/usecase/feed"
	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedUseCase *feed.FeedUseCase
}

func NewFeedHandler(feedUseCase *feed.FeedUseCase) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
	}
}

// GetFeed handles GET /feed
// @Summary Discovery feed
// @Description Users not swiped yet, ranked by shared interests and lifestyle
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max candidates (1-50, default 20)"
// @Success 200 {array} feed.Candidate
// @Failure 400 {object} ErrorResponse
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var q feed.FeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	candidates, err := h.feedUseCase.GetCandidates(c.Request.Context(), middleware.GetUserID(c), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}
