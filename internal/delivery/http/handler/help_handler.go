package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/usecase/help"
	"github.com/gin-gonic/gin"
)

type HelpHandler struct {
	helpUseCase *help.HelpUseCase
}

func NewHelpHandler(helpUseCase *help.HelpUseCase) *HelpHandler {
	return &HelpHandler{
		helpUseCase: helpUseCase,
	}
}

type listRequestsQuery struct {
	Category string `form:"category"`
}

// CreateRequest handles POST /help/requests
// @Summary Create help request
// @Tags help
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body help.CreateRequestInput true "Request"
// @Success 201 {object} domain.HelpRequest
// @Failure 400 {object} ErrorResponse
// @Router /help/requests [post]
func (h *HelpHandler) CreateRequest(c *gin.Context) {
	var in help.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	req, err := h.helpUseCase.CreateRequest(c.Request.Context(), middleware.GetUserID(c), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListOpenRequests handles GET /help/requests
// @Summary List open requests
// @Description Open requests newest first, optionally filtered by category
// @Tags help
// @Security BearerAuth
// @Produce json
// @Param category query string false "Category"
// @Success 200 {array} help.RequestView
// @Failure 400 {object} ErrorResponse
// @Router /help/requests [get]
func (h *HelpHandler) ListOpenRequests(c *gin.Context) {
	var q listRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	var category *domain.HelpCategory
	if q.Category != "" {
		cat := domain.HelpCategory(q.Category)
		if !cat.Valid() {
			respondError(c, domain.ErrInvalidCategory)
			return
		}
		category = &cat
	}

	requests, err := h.helpUseCase.ListOpenRequests(c.Request.Context(), category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ListMyRequests handles GET /help/requests/mine
func (h *HelpHandler) ListMyRequests(c *gin.Context) {
	requests, err := h.helpUseCase.ListMyRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// GetRequest handles GET /help/requests/:id
// @Summary Get help request
// @Tags help
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} help.RequestView
// @Failure 404 {object} ErrorResponse
// @Router /help/requests/{id} [get]
func (h *HelpHandler) GetRequest(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.helpUseCase.GetRequest(c.Request.Context(), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if view == nil {
		respondError(c, domain.ErrRequestNotFound)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateRequest handles PATCH /help/requests/:id
// @Summary Edit an open request
// @Tags help
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body domain.HelpRequestPatch true "Fields to change"
// @Success 200 {object} domain.HelpRequest
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /help/requests/{id} [patch]
func (h *HelpHandler) UpdateRequest(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var patch domain.HelpRequestPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	req, err := h.helpUseCase.UpdateRequest(c.Request.Context(), middleware.GetUserID(c), uri.ID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CancelRequest handles POST /help/requests/:id/cancel
func (h *HelpHandler) CancelRequest(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.helpUseCase.CancelRequest(c.Request.Context(), middleware.GetUserID(c), uri.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// CompleteRequest handles POST /help/requests/:id/complete
func (h *HelpHandler) CompleteRequest(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.helpUseCase.CompleteRequest(c.Request.Context(), middleware.GetUserID(c), uri.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// CreateOffer handles POST /help/requests/:id/offers
// @Summary Offer help
// @Description Price is in cents; one active offer per helper and request
// @Tags help
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body help.CreateOfferInput true "Offer"
// @Success 201 {object} domain.HelpOffer
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /help/requests/{id}/offers [post]
func (h *HelpHandler) CreateOffer(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var in help.CreateOfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	offer, err := h.helpUseCase.CreateOffer(c.Request.Context(), middleware.GetUserID(c), uri.ID, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// ListOffers handles GET /help/requests/:id/offers
func (h *HelpHandler) ListOffers(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	offers, err := h.helpUseCase.ListOffers(c.Request.Context(), middleware.GetUserID(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// AcceptOffer handles POST /help/requests/:id/offers/:offer_id/accept
// @Summary Accept an offer
// @Description Accepts one pending offer, rejects the others and opens the conversation
// @Tags help
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Param offer_id path string true "Offer ID"
// @Success 200 {object} help.AcceptResult
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /help/requests/{id}/offers/{offer_id}/accept [post]
func (h *HelpHandler) AcceptOffer(c *gin.Context) {
	var uri offerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.helpUseCase.AcceptOffer(c.Request.Context(), middleware.GetUserID(c), uri.ID, uri.OfferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMyOffers handles GET /help/offers/mine
func (h *HelpHandler) ListMyOffers(c *gin.Context) {
	offers, err := h.helpUseCase.ListMyOffers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// WithdrawOffer handles POST /help/offers/:offer_id/withdraw
func (h *HelpHandler) WithdrawOffer(c *gin.Context) {
	var uri offerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.helpUseCase.WithdrawOffer(c.Request.Context(), middleware.GetUserID(c), uri.OfferID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// CreateConversation handles POST /help/requests/:id/conversation
func (h *HelpHandler) CreateConversation(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var in help.CreateConversationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	conv, err := h.helpUseCase.CreateConversation(c.Request.Context(), middleware.GetUserID(c), uri.ID, in.OfferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetMyConversations handles GET /help/conversations
func (h *HelpHandler) GetMyConversations(c *gin.Context) {
	conversations, err := h.helpUseCase.GetMyConversations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// SendMessage handles POST /help/conversations/:id/messages
func (h *HelpHandler) SendMessage(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var req help.SendHelpMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.helpUseCase.SendMessage(c.Request.Context(), middleware.GetUserID(c), uri.ID, req.Content, req.MessageType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessages handles GET /help/conversations/:id/messages
func (h *HelpHandler) GetMessages(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	messages, err := h.helpUseCase.GetMessages(c.Request.Context(), middleware.GetUserID(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkAsRead handles POST /help/conversations/:id/read
func (h *HelpHandler) MarkAsRead(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.helpUseCase.MarkAsRead(c.Request.Context(), middleware.GetUserID(c), uri.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, readResponse{Success: true, Updated: updated})
}
