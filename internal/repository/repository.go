package repository

import (
	"context"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
)

// Transactor runs fn as one atomic, serializable unit against the store.
// Repositories called with the ctx passed to fn take part in the unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	// ListDiscoverable returns every non-rejected user except excludeID, newest first.
	ListDiscoverable(ctx context.Context, excludeID string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetPushToken(ctx context.Context, id string, token *string) error
	Delete(ctx context.Context, id string) error
}

type SwipeRepository interface {
	// Create fails with domain.ErrDuplicateSwipe when the ordered pair exists.
	Create(ctx context.Context, swipe *domain.Swipe) error
	// FindByUsers returns nil when swiperID has not swiped on swipedID.
	FindByUsers(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error)
	GetLikesReceived(ctx context.Context, userID string) ([]*domain.Swipe, error)
	ListSwipedIDs(ctx context.Context, swiperID string) ([]string, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	// FindByUsers looks the pair up in both orientations; nil when absent.
	FindByUsers(ctx context.Context, userA, userB string) (*domain.Match, error)
	// ListByUser merges matches where the user is user1 or user2, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Match, error)
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByMatch(ctx context.Context, matchID string) ([]*domain.Message, error)
	GetLastByMatch(ctx context.Context, matchID string) (*domain.Message, error)
	CountUnread(ctx context.Context, matchID, readerID string) (int, error)
	// MarkRead stamps readAt on unread messages not sent by readerID.
	MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error)
	DeleteByMatch(ctx context.Context, matchID string) error
}

type TypingRepository interface {
	Upsert(ctx context.Context, status *domain.TypingStatus) error
	Get(ctx context.Context, matchID, userID string) (*domain.TypingStatus, error)
	DeleteByMatch(ctx context.Context, matchID string) error
}

type BlockRepository interface {
	// Create is a no-op when the ordered pair is already blocked.
	Create(ctx context.Context, block *domain.BlockedUser) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	// FindBetween returns a block in either direction, nil when none.
	FindBetween(ctx context.Context, userA, userB string) (*domain.BlockedUser, error)
	ListByBlocker(ctx context.Context, blockerID string) ([]*domain.BlockedUser, error)
	// ListInvolving returns blocks where the user is blocker or blocked.
	ListInvolving(ctx context.Context, userID string) ([]*domain.BlockedUser, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type HelpRequestRepository interface {
	Create(ctx context.Context, req *domain.HelpRequest) error
	GetByID(ctx context.Context, id string) (*domain.HelpRequest, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpRequest, error)
	Update(ctx context.Context, req *domain.HelpRequest) error
	// ListByStatus returns requests newest first, optionally narrowed to a category.
	ListByStatus(ctx context.Context, status domain.HelpRequestStatus, category *domain.HelpCategory) ([]*domain.HelpRequest, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*domain.HelpRequest, error)
	Delete(ctx context.Context, id string) error
}

type HelpOfferRepository interface {
	// Create fails with domain.ErrDuplicateOffer when the offerer has a non-withdrawn offer.
	Create(ctx context.Context, offer *domain.HelpOffer) error
	GetByID(ctx context.Context, id string) (*domain.HelpOffer, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpOffer, error)
	ListByRequest(ctx context.Context, requestID string) ([]*domain.HelpOffer, error)
	ListByOfferer(ctx context.Context, offererID string) ([]*domain.HelpOffer, error)
	FindActive(ctx context.Context, requestID, offererID string) (*domain.HelpOffer, error)
	CountByRequest(ctx context.Context, requestID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.HelpOfferStatus, at time.Time) error
	DeleteByRequest(ctx context.Context, requestID string) error
	DeleteByOfferer(ctx context.Context, offererID string) error
}

type HelpConversationRepository interface {
	// Create fails with domain.ErrConversationExists when the request already has one.
	Create(ctx context.Context, conv *domain.HelpConversation) error
	GetByID(ctx context.Context, id string) (*domain.HelpConversation, error)
	FindByRequest(ctx context.Context, requestID string) (*domain.HelpConversation, error)
	// ListByUser returns each conversation the user takes part in once.
	ListByUser(ctx context.Context, userID string) ([]*domain.HelpConversation, error)
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type HelpMessageRepository interface {
	Create(ctx context.Context, msg *domain.HelpMessage) error
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.HelpMessage, error)
	GetLastByConversation(ctx context.Context, conversationID string) (*domain.HelpMessage, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int, error)
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error)
	DeleteByConversation(ctx context.Context, conversationID string) error
}

// Repositories bundles every repository of one store implementation.
type Repositories struct {
	Tx                Transactor
	Users             UserRepository
	Swipes            SwipeRepository
	Matches           MatchRepository
	Messages          MessageRepository
	Typing            TypingRepository
	Blocks            BlockRepository
	HelpRequests      HelpRequestRepository
	HelpOffers        HelpOfferRepository
	HelpConversations HelpConversationRepository
	HelpMessages      HelpMessageRepository
}
