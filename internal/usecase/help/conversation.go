package help

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
)

// CreateConversationInput names the offer the conversation is bound to
type CreateConversationInput struct {
	OfferID string `json:"offer_id" binding:"required,uuid"`
}

// SendHelpMessageRequest is the body of a new help conversation message
type SendHelpMessageRequest struct {
	Content     string             `json:"content" binding:"required,max=2000"`
	MessageType domain.MessageType `json:"message_type" binding:"omitempty,oneof=text image"`
}

// ConversationView is a help conversation enriched for the inbox
type ConversationView struct {
	*domain.HelpConversation
	Request     *domain.HelpRequest `json:"request,omitempty"`
	Offer       *domain.HelpOffer   `json:"offer,omitempty"`
	OtherUser   *domain.UserSummary `json:"other_user,omitempty"`
	LastMessage *domain.HelpMessage `json:"last_message,omitempty"`
	UnreadCount int                 `json:"unread_count"`
}

// CreateConversation returns the request's conversation, creating it on first
// call. Repeated calls return the same conversation.
func (uc *HelpUseCase) CreateConversation(ctx context.Context, principalID, requestID, offerID string) (*domain.HelpConversation, error) {
	var conv *domain.HelpConversation
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.repos.HelpRequests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		offer, err := uc.repos.HelpOffers.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.RequestID != requestID {
			return domain.ErrOfferMismatch
		}
		if principalID != req.AuthorID && principalID != offer.OffererID {
			return domain.ErrNotAuthorized
		}

		conv, err = uc.ensureConversation(ctx, req, offer)
		if err != nil {
			return err
		}
		if !conv.HasUser(principalID) {
			return domain.ErrNotConversationMember
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ensureConversation must run inside a unit.
func (uc *HelpUseCase) ensureConversation(ctx context.Context, req *domain.HelpRequest, offer *domain.HelpOffer) (*domain.HelpConversation, error) {
	existing, err := uc.repos.HelpConversations.FindByRequest(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	if offer.Status != domain.OfferAccepted {
		return nil, domain.ErrOfferNotAccepted
	}

	conv := &domain.HelpConversation{
		RequestID:   req.ID,
		OfferID:     offer.ID,
		RequesterID: req.AuthorID,
		OffererID:   offer.OffererID,
	}
	if err := uc.repos.HelpConversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// SendMessage posts to a help conversation and notifies the other party.
func (uc *HelpUseCase) SendMessage(ctx context.Context, principalID, conversationID, content string, messageType domain.MessageType) (*domain.HelpMessage, error) {
	content, messageType, err := domain.NormalizeMessage(content, messageType)
	if err != nil {
		return nil, err
	}

	var (
		msg   *domain.HelpMessage
		event *notification.Event
	)
	err = uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		conv, err := uc.repos.HelpConversations.GetByID(ctx, conversationID)
		if err != nil {
			return err
		}
		recipientID, ok := conv.GetOtherUserID(principalID)
		if !ok {
			return domain.ErrNotConversationMember
		}

		sender, err := uc.repos.Users.GetByID(ctx, principalID)
		if err != nil {
			return err
		}

		msg = &domain.HelpMessage{
			ConversationID: conversationID,
			SenderID:       principalID,
			Content:        content,
			MessageType:    messageType,
		}
		if err := uc.repos.HelpMessages.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		if err := uc.repos.HelpConversations.TouchLastMessage(ctx, conversationID, msg.CreatedAt); err != nil {
			return err
		}

		event = &notification.Event{
			Type:           notification.EventHelpMessage,
			RecipientID:    recipientID,
			ConversationID: conversationID,
			RequestID:      conv.RequestID,
			SenderName:     sender.Name,
			Preview:        domain.Preview(content, messageType),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, event)
	return msg, nil
}

// GetMessages returns the conversation history oldest first; empty for non-participants.
func (uc *HelpUseCase) GetMessages(ctx context.Context, principalID, conversationID string) ([]*domain.HelpMessage, error) {
	conv, err := uc.repos.HelpConversations.GetByID(ctx, conversationID)
	if errors.Is(err, domain.ErrConversationNotFound) {
		return []*domain.HelpMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !conv.HasUser(principalID) {
		return []*domain.HelpMessage{}, nil
	}

	messages, err := uc.repos.HelpMessages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// MarkAsRead marks every unread message not sent by the principal.
func (uc *HelpUseCase) MarkAsRead(ctx context.Context, principalID, conversationID string) (int, error) {
	var updated int
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		conv, err := uc.repos.HelpConversations.GetByID(ctx, conversationID)
		if err != nil {
			return err
		}
		if !conv.HasUser(principalID) {
			return domain.ErrNotConversationMember
		}
		updated, err = uc.repos.HelpMessages.MarkRead(ctx, conversationID, principalID, uc.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// GetMyConversations lists the principal's conversations as requester or
// helper, most recent activity first.
func (uc *HelpUseCase) GetMyConversations(ctx context.Context, principalID string) ([]*ConversationView, error) {
	conversations, err := uc.repos.HelpConversations.ListByUser(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	seen := make(map[string]bool, len(conversations))
	unique := make([]*domain.HelpConversation, 0, len(conversations))
	var requestIDs, offerIDs, userIDs []string
	for _, c := range conversations {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		unique = append(unique, c)

		other, _ := c.GetOtherUserID(principalID)
		requestIDs = append(requestIDs, c.RequestID)
		offerIDs = append(offerIDs, c.OfferID)
		userIDs = append(userIDs, other)
	}

	requests, err := uc.repos.HelpRequests.GetByIDs(ctx, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	offers, err := uc.repos.HelpOffers.GetByIDs(ctx, offerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	users, err := uc.repos.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	views := make([]*ConversationView, 0, len(unique))
	for _, c := range unique {
		last, err := uc.repos.HelpMessages.GetLastByConversation(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get last message: %w", err)
		}
		unread, err := uc.repos.HelpMessages.CountUnread(ctx, c.ID, principalID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}

		view := &ConversationView{
			HelpConversation: c,
			Request:          requests[c.RequestID],
			Offer:            offers[c.OfferID],
			LastMessage:      last,
			UnreadCount:      unread,
		}
		other, _ := c.GetOtherUserID(principalID)
		if u, ok := users[other]; ok {
			view.OtherUser = u.Summary()
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ActivityAt().After(views[j].ActivityAt())
	})
	return views, nil
}
