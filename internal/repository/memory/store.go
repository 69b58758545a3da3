// Package memory is an in-process record store. Every mutation unit holds one
// mutex for its whole body, and a failed unit is rolled back from a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/google/uuid"
)

type tables struct {
	seq   int64
	order map[string]int64

	users             map[string]domain.User
	swipes            map[string]domain.Swipe
	matches           map[string]domain.Match
	messages          map[string]domain.Message
	typing            map[typingKey]domain.TypingStatus
	blocks            map[string]domain.BlockedUser
	helpRequests      map[string]domain.HelpRequest
	helpOffers        map[string]domain.HelpOffer
	helpConversations map[string]domain.HelpConversation
	helpMessages      map[string]domain.HelpMessage
}

type typingKey struct {
	matchID string
	userID  string
}

func newTables() *tables {
	return &tables{
		order:             make(map[string]int64),
		users:             make(map[string]domain.User),
		swipes:            make(map[string]domain.Swipe),
		matches:           make(map[string]domain.Match),
		messages:          make(map[string]domain.Message),
		typing:            make(map[typingKey]domain.TypingStatus),
		blocks:            make(map[string]domain.BlockedUser),
		helpRequests:      make(map[string]domain.HelpRequest),
		helpOffers:        make(map[string]domain.HelpOffer),
		helpConversations: make(map[string]domain.HelpConversation),
		helpMessages:      make(map[string]domain.HelpMessage),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		seq:               t.seq,
		order:             cloneMap(t.order),
		users:             cloneMap(t.users),
		swipes:            cloneMap(t.swipes),
		matches:           cloneMap(t.matches),
		messages:          cloneMap(t.messages),
		typing:            cloneMap(t.typing),
		blocks:            cloneMap(t.blocks),
		helpRequests:      cloneMap(t.helpRequests),
		helpOffers:        cloneMap(t.helpOffers),
		helpConversations: cloneMap(t.helpConversations),
		helpMessages:      cloneMap(t.helpMessages),
	}
}

// newID assigns an id and records insertion order for stable sorting.
func (t *tables) newID() string {
	id := uuid.NewString()
	t.seq++
	t.order[id] = t.seq
	return id
}

// before orders records by creation time, then insertion order.
func (t *tables) before(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return t.order[aID] < t.order[bID]
}

type Store struct {
	mu   sync.Mutex
	data *tables
	now  func() time.Time
}

type txKey struct {
	store *Store
}

func NewStore() *Store {
	return &Store{data: newTables(), now: time.Now}
}

// SetClock replaces the timestamp source used for created/updated fields.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithinTx runs fn while holding the store lock and restores the previous
// state if fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{store: s}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{store: s}).(bool)
	return v
}

// exec runs fn against the tables, taking the lock unless ctx already holds it.
func (s *Store) exec(ctx context.Context, fn func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Repositories wires every memory repository to this store.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:                s,
		Users:             &userRepository{s},
		Swipes:            &swipeRepository{s},
		Matches:           &matchRepository{s},
		Messages:          &messageRepository{s},
		Typing:            &typingRepository{s},
		Blocks:            &blockRepository{s},
		HelpRequests:      &helpRequestRepository{s},
		HelpOffers:        &helpOfferRepository{s},
		HelpConversations: &helpConversationRepository{s},
		HelpMessages:      &helpMessageRepository{s},
	}
}

// sortNewest sorts records newest first.
func sortNewest[T any](t *tables, items []*T, key func(*T) (string, time.Time)) {
	sort.SliceStable(items, func(i, j int) bool {
		aID, aAt := key(items[i])
		bID, bAt := key(items[j])
		return t.before(bID, bAt, aID, aAt)
	})
}

// sortOldest sorts records oldest first.
func sortOldest[T any](t *tables, items []*T, key func(*T) (string, time.Time)) {
	sort.SliceStable(items, func(i, j int) bool {
		aID, aAt := key(items[i])
		bID, bAt := key(items[j])
		return t.before(aID, aAt, bID, bAt)
	})
}
