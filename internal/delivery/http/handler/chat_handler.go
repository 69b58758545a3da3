package handler

import (
	"net/http"

	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/usecase/chat"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatUseCase *chat.ChatUseCase
}

func NewChatHandler(chatUseCase *chat.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type typingRequest struct {
	IsTyping *bool `json:"is_typing" binding:"required"`
}

type readResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// GetConversations handles GET /conversations
// @Summary Conversation previews
// @Description One entry per matched, unblocked pair with last message and unread count
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {array} chat.ConversationPreview
// @Router /conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	previews, err := h.chatUseCase.GetConversationPreviews(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, previews)
}

// SendMessage handles POST /matches/:match_id/messages
// @Summary Send message
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param match_id path string true "Match ID"
// @Param request body chat.SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /matches/{match_id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var uri matchURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	msg, err := h.chatUseCase.SendMessage(c.Request.Context(), userID, uri.MatchID, userID, req.Content, req.MessageType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetMessages handles GET /matches/:match_id/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	var uri matchURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	messages, err := h.chatUseCase.GetMessages(c.Request.Context(), middleware.GetUserID(c), uri.MatchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkAsRead handles POST /matches/:match_id/read
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	var uri matchURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	userID := middleware.GetUserID(c)
	updated, err := h.chatUseCase.MarkAsRead(c.Request.Context(), userID, uri.MatchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, readResponse{Success: true, Updated: updated})
}

// SetTyping handles PUT /matches/:match_id/typing
func (h *ChatHandler) SetTyping(c *gin.Context) {
	var uri matchURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}
	var req typingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.chatUseCase.SetTyping(c.Request.Context(), middleware.GetUserID(c), uri.MatchID, *req.IsTyping); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

// GetTypingStatus handles GET /matches/:match_id/typing
func (h *ChatHandler) GetTypingStatus(c *gin.Context) {
	var uri matchURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	status, err := h.chatUseCase.GetTypingStatus(c.Request.Context(), middleware.GetUserID(c), uri.MatchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
