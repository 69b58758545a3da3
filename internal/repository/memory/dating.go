package memory

import (
	"context"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
)

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, u := range t.users {
			if u.ClerkID == user.ClerkID {
				return domain.NewError(domain.KindConflict, "user already exists")
			}
		}
		now := r.s.now()
		user.ID = t.newID()
		user.CreatedAt = now
		user.UpdatedAt = now
		if user.Status == "" {
			user.Status = domain.UserStatusPending
		}
		stored := *user
		stored.LifestyleTags = copyStrings(user.LifestyleTags)
		stored.Interests = copyStrings(user.Interests)
		stored.Photos = copyStrings(user.Photos)
		t.users[user.ID] = stored
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.s.exec(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	var out *domain.User
	err := r.s.exec(ctx, func(t *tables) error {
		for _, u := range t.users {
			if u.ClerkID == clerkID {
				u := u
				out = &u
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return out, err
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	err := r.s.exec(ctx, func(t *tables) error {
		for _, id := range ids {
			if u, ok := t.users[id]; ok {
				out[id] = &u
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepository) ListDiscoverable(ctx context.Context, excludeID string) ([]*domain.User, error) {
	out := []*domain.User{}
	err := r.s.exec(ctx, func(t *tables) error {
		for id, u := range t.users {
			if id == excludeID || u.Status == domain.UserStatusRejected {
				continue
			}
			u := u
			out = append(out, &u)
		}
		sortNewest(t, out, func(u *domain.User) (string, time.Time) { return u.ID, u.CreatedAt })
		return nil
	})
	return out, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.s.exec(ctx, func(t *tables) error {
		if _, ok := t.users[user.ID]; !ok {
			return domain.ErrUserNotFound
		}
		user.UpdatedAt = r.s.now()
		stored := *user
		stored.LifestyleTags = copyStrings(user.LifestyleTags)
		stored.Interests = copyStrings(user.Interests)
		stored.Photos = copyStrings(user.Photos)
		t.users[user.ID] = stored
		return nil
	})
}

func (r *userRepository) SetPushToken(ctx context.Context, id string, token *string) error {
	return r.s.exec(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.PushToken = token
		u.UpdatedAt = r.s.now()
		t.users[id] = u
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.s.exec(ctx, func(t *tables) error {
		if _, ok := t.users[id]; !ok {
			return domain.ErrUserNotFound
		}
		delete(t.users, id)
		return nil
	})
}

type swipeRepository struct {
	s *Store
}

func (r *swipeRepository) Create(ctx context.Context, swipe *domain.Swipe) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, sw := range t.swipes {
			if sw.SwiperID == swipe.SwiperID && sw.SwipedID == swipe.SwipedID {
				return domain.ErrDuplicateSwipe
			}
		}
		swipe.ID = t.newID()
		swipe.CreatedAt = r.s.now()
		t.swipes[swipe.ID] = *swipe
		return nil
	})
}

func (r *swipeRepository) FindByUsers(ctx context.Context, swiperID, swipedID string) (*domain.Swipe, error) {
	var out *domain.Swipe
	err := r.s.exec(ctx, func(t *tables) error {
		for _, sw := range t.swipes {
			if sw.SwiperID == swiperID && sw.SwipedID == swipedID {
				sw := sw
				out = &sw
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *swipeRepository) GetLikesReceived(ctx context.Context, userID string) ([]*domain.Swipe, error) {
	var out []*domain.Swipe
	err := r.s.exec(ctx, func(t *tables) error {
		for _, sw := range t.swipes {
			if sw.SwipedID == userID && sw.Action.IsPositive() {
				sw := sw
				out = append(out, &sw)
			}
		}
		sortNewest(t, out, func(s *domain.Swipe) (string, time.Time) { return s.ID, s.CreatedAt })
		return nil
	})
	return out, err
}

func (r *swipeRepository) ListSwipedIDs(ctx context.Context, swiperID string) ([]string, error) {
	var out []string
	err := r.s.exec(ctx, func(t *tables) error {
		for _, sw := range t.swipes {
			if sw.SwiperID == swiperID {
				out = append(out, sw.SwipedID)
			}
		}
		return nil
	})
	return out, err
}

func (r *swipeRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, sw := range t.swipes {
			if sw.SwiperID == userID || sw.SwipedID == userID {
				delete(t.swipes, id)
			}
		}
		return nil
	})
}

type matchRepository struct {
	s *Store
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.matches {
			if m.HasUser(match.User1ID) && m.HasUser(match.User2ID) {
				return domain.NewError(domain.KindConflict, "match already exists")
			}
		}
		match.ID = t.newID()
		match.CreatedAt = r.s.now()
		t.matches[match.ID] = *match
		return nil
	})
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var out *domain.Match
	err := r.s.exec(ctx, func(t *tables) error {
		m, ok := t.matches[id]
		if !ok {
			return domain.ErrMatchNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *matchRepository) FindByUsers(ctx context.Context, userA, userB string) (*domain.Match, error) {
	var out *domain.Match
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.matches {
			if (m.User1ID == userA && m.User2ID == userB) || (m.User1ID == userB && m.User2ID == userA) {
				m := m
				out = &m
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Match, error) {
	var out []*domain.Match
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.matches {
			if m.HasUser(userID) {
				m := m
				out = append(out, &m)
			}
		}
		sortNewest(t, out, func(m *domain.Match) (string, time.Time) { return m.ID, m.CreatedAt })
		return nil
	})
	return out, err
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	return r.s.exec(ctx, func(t *tables) error {
		if _, ok := t.matches[id]; !ok {
			return domain.ErrMatchNotFound
		}
		delete(t.matches, id)
		return nil
	})
}

type messageRepository struct {
	s *Store
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.s.exec(ctx, func(t *tables) error {
		msg.ID = t.newID()
		msg.CreatedAt = r.s.now()
		t.messages[msg.ID] = *msg
		return nil
	})
}

func (r *messageRepository) ListByMatch(ctx context.Context, matchID string) ([]*domain.Message, error) {
	out := []*domain.Message{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.messages {
			if m.MatchID == matchID {
				m := m
				out = append(out, &m)
			}
		}
		sortOldest(t, out, func(m *domain.Message) (string, time.Time) { return m.ID, m.CreatedAt })
		return nil
	})
	return out, err
}

func (r *messageRepository) GetLastByMatch(ctx context.Context, matchID string) (*domain.Message, error) {
	msgs, err := r.ListByMatch(ctx, matchID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

func (r *messageRepository) CountUnread(ctx context.Context, matchID, readerID string) (int, error) {
	count := 0
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.messages {
			if m.MatchID == matchID && m.SenderID != readerID && m.ReadAt == nil {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *messageRepository) MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error) {
	count := 0
	err := r.s.exec(ctx, func(t *tables) error {
		for id, m := range t.messages {
			if m.MatchID == matchID && m.SenderID != readerID && m.ReadAt == nil {
				readAt := at
				m.ReadAt = &readAt
				t.messages[id] = m
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *messageRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, m := range t.messages {
			if m.MatchID == matchID {
				delete(t.messages, id)
			}
		}
		return nil
	})
}

type typingRepository struct {
	s *Store
}

func (r *typingRepository) Upsert(ctx context.Context, status *domain.TypingStatus) error {
	return r.s.exec(ctx, func(t *tables) error {
		status.UpdatedAt = r.s.now()
		t.typing[typingKey{status.MatchID, status.UserID}] = *status
		return nil
	})
}

func (r *typingRepository) Get(ctx context.Context, matchID, userID string) (*domain.TypingStatus, error) {
	var out *domain.TypingStatus
	err := r.s.exec(ctx, func(t *tables) error {
		if st, ok := t.typing[typingKey{matchID, userID}]; ok {
			out = &st
		}
		return nil
	})
	return out, err
}

func (r *typingRepository) DeleteByMatch(ctx context.Context, matchID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for k := range t.typing {
			if k.matchID == matchID {
				delete(t.typing, k)
			}
		}
		return nil
	})
}

type blockRepository struct {
	s *Store
}

func (r *blockRepository) Create(ctx context.Context, block *domain.BlockedUser) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, b := range t.blocks {
			if b.BlockerID == block.BlockerID && b.BlockedID == block.BlockedID {
				*block = b
				return nil
			}
		}
		block.ID = t.newID()
		block.CreatedAt = r.s.now()
		t.blocks[block.ID] = *block
		return nil
	})
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, b := range t.blocks {
			if b.BlockerID == blockerID && b.BlockedID == blockedID {
				delete(t.blocks, id)
			}
		}
		return nil
	})
}

func (r *blockRepository) FindBetween(ctx context.Context, userA, userB string) (*domain.BlockedUser, error) {
	var out *domain.BlockedUser
	err := r.s.exec(ctx, func(t *tables) error {
		for _, b := range t.blocks {
			if (b.BlockerID == userA && b.BlockedID == userB) || (b.BlockerID == userB && b.BlockedID == userA) {
				if out == nil || t.before(b.ID, b.CreatedAt, out.ID, out.CreatedAt) {
					b := b
					out = &b
				}
			}
		}
		return nil
	})
	return out, err
}

func (r *blockRepository) ListByBlocker(ctx context.Context, blockerID string) ([]*domain.BlockedUser, error) {
	out := []*domain.BlockedUser{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, b := range t.blocks {
			if b.BlockerID == blockerID {
				b := b
				out = append(out, &b)
			}
		}
		sortNewest(t, out, func(b *domain.BlockedUser) (string, time.Time) { return b.ID, b.CreatedAt })
		return nil
	})
	return out, err
}

func (r *blockRepository) ListInvolving(ctx context.Context, userID string) ([]*domain.BlockedUser, error) {
	var out []*domain.BlockedUser
	err := r.s.exec(ctx, func(t *tables) error {
		for _, b := range t.blocks {
			if b.BlockerID == userID || b.BlockedID == userID {
				b := b
				out = append(out, &b)
			}
		}
		return nil
	})
	return out, err
}

func (r *blockRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, b := range t.blocks {
			if b.BlockerID == userID || b.BlockedID == userID {
				delete(t.blocks, id)
			}
		}
		return nil
	})
}
