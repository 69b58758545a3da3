package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
)

type ChatUseCase struct {
	repos     *repository.Repositories
	publisher notification.Publisher
	now       func() time.Time
}

func NewChatUseCase(repos *repository.Repositories, publisher notification.Publisher) *ChatUseCase {
	return &ChatUseCase{
		repos:     repos,
		publisher: publisher,
		now:       time.Now,
	}
}

// SendMessageRequest is the body of a new chat message
type SendMessageRequest struct {
	Content     string             `json:"content" binding:"required,max=2000"`
	MessageType domain.MessageType `json:"message_type" binding:"omitempty,oneof=text image"`
}

// TypingView reports whether the other participant is typing
type TypingView struct {
	IsTyping  bool       `json:"is_typing"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ConversationPreview summarizes one match for the inbox
type ConversationPreview struct {
	MatchID     string              `json:"match_id"`
	OtherUser   *domain.UserSummary `json:"other_user"`
	LastMessage *domain.Message     `json:"last_message,omitempty"`
	UnreadCount int                 `json:"unread_count"`
	ActivityAt  time.Time           `json:"activity_at"`
}

// SendMessage stores a message in an active, unblocked match and notifies the other participant.
func (uc *ChatUseCase) SendMessage(ctx context.Context, principalID, matchID, senderID, content string, messageType domain.MessageType) (*domain.Message, error) {
	if principalID != senderID {
		return nil, domain.ErrNotAuthorized
	}
	content, messageType, err := domain.NormalizeMessage(content, messageType)
	if err != nil {
		return nil, err
	}

	var (
		msg   *domain.Message
		event *notification.Event
	)
	err = uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		match, err := uc.activeMatch(ctx, matchID, senderID)
		if err != nil {
			return err
		}
		recipientID, _ := match.GetOtherUserID(senderID)

		block, err := uc.repos.Blocks.FindBetween(ctx, senderID, recipientID)
		if err != nil {
			return fmt.Errorf("failed to check block status: %w", err)
		}
		if block != nil {
			return domain.ErrBlocked
		}

		sender, err := uc.repos.Users.GetByID(ctx, senderID)
		if err != nil {
			return err
		}

		msg = &domain.Message{
			MatchID:     matchID,
			SenderID:    senderID,
			Content:     content,
			MessageType: messageType,
		}
		if err := uc.repos.Messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		event = &notification.Event{
			Type:        notification.EventMessage,
			RecipientID: recipientID,
			MatchID:     matchID,
			SenderName:  sender.Name,
			Preview:     domain.Preview(content, messageType),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, event)
	return msg, nil
}

// activeMatch loads a matched match that userID participates in.
func (uc *ChatUseCase) activeMatch(ctx context.Context, matchID, userID string) (*domain.Match, error) {
	match, err := uc.repos.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, domain.ErrNotMatchMember
	}
	if match.Status != domain.MatchStatusMatched {
		return nil, domain.ErrMatchNotActive
	}
	return match, nil
}

// GetMessages returns the match history oldest first. Non-participants get an empty list.
func (uc *ChatUseCase) GetMessages(ctx context.Context, principalID, matchID string) ([]*domain.Message, error) {
	ok, err := uc.isMember(ctx, matchID, principalID)
	if err != nil || !ok {
		return []*domain.Message{}, err
	}
	messages, err := uc.repos.Messages.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (uc *ChatUseCase) isMember(ctx context.Context, matchID, userID string) (bool, error) {
	match, err := uc.repos.Matches.GetByID(ctx, matchID)
	if errors.Is(err, domain.ErrMatchNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return match.HasUser(userID), nil
}

// MarkAsRead sets readAt on every unread message not sent by userID and
// returns how many were updated.
func (uc *ChatUseCase) MarkAsRead(ctx context.Context, principalID, matchID, userID string) (int, error) {
	if principalID != userID {
		return 0, domain.ErrNotAuthorized
	}

	var updated int
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		match, err := uc.repos.Matches.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.HasUser(userID) {
			return domain.ErrNotMatchMember
		}
		updated, err = uc.repos.Messages.MarkRead(ctx, matchID, userID, uc.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SetTyping records the principal's typing state; last write wins.
func (uc *ChatUseCase) SetTyping(ctx context.Context, principalID, matchID string, isTyping bool) error {
	return uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		match, err := uc.repos.Matches.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.HasUser(principalID) {
			return domain.ErrNotMatchMember
		}
		return uc.repos.Typing.Upsert(ctx, &domain.TypingStatus{
			MatchID:  matchID,
			UserID:   principalID,
			IsTyping: isTyping,
		})
	})
}

// GetTypingStatus reports whether the other participant is typing.
func (uc *ChatUseCase) GetTypingStatus(ctx context.Context, principalID, matchID string) (*TypingView, error) {
	match, err := uc.repos.Matches.GetByID(ctx, matchID)
	if errors.Is(err, domain.ErrMatchNotFound) {
		return &TypingView{}, nil
	}
	if err != nil {
		return nil, err
	}
	other, ok := match.GetOtherUserID(principalID)
	if !ok {
		return &TypingView{}, nil
	}

	status, err := uc.repos.Typing.Get(ctx, matchID, other)
	if err != nil {
		return nil, fmt.Errorf("failed to get typing status: %w", err)
	}
	if status == nil {
		return &TypingView{}, nil
	}
	return &TypingView{IsTyping: status.IsTyping, UpdatedAt: &status.UpdatedAt}, nil
}

// GetConversationPreviews lists every unblocked matched pair of the principal,
// most recent activity first.
func (uc *ChatUseCase) GetConversationPreviews(ctx context.Context, principalID string) ([]*ConversationPreview, error) {
	matches, err := uc.repos.Matches.ListByUser(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	involved, err := uc.repos.Blocks.ListInvolving(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	blocked := make(map[string]bool, len(involved))
	for _, b := range involved {
		blocked[b.BlockerID] = true
		blocked[b.BlockedID] = true
	}

	var (
		active   []*domain.Match
		otherIDs []string
	)
	for _, m := range matches {
		other, _ := m.GetOtherUserID(principalID)
		if m.Status != domain.MatchStatusMatched || blocked[other] {
			continue
		}
		active = append(active, m)
		otherIDs = append(otherIDs, other)
	}

	users, err := uc.repos.Users.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	previews := make([]*ConversationPreview, 0, len(active))
	for _, m := range active {
		other, _ := m.GetOtherUserID(principalID)
		user, ok := users[other]
		if !ok {
			continue
		}

		last, err := uc.repos.Messages.GetLastByMatch(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get last message: %w", err)
		}
		unread, err := uc.repos.Messages.CountUnread(ctx, m.ID, principalID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}

		activity := m.ActivityAt()
		if last != nil {
			activity = last.CreatedAt
		}
		previews = append(previews, &ConversationPreview{
			MatchID:     m.ID,
			OtherUser:   user.Summary(),
			LastMessage: last,
			UnreadCount: unread,
			ActivityAt:  activity,
		})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].ActivityAt.After(previews[j].ActivityAt)
	})
	return previews, nil
}
