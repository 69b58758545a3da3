package memory

import (
	"context"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
)

type helpRequestRepository struct {
	s *Store
}

func (r *helpRequestRepository) Create(ctx context.Context, req *domain.HelpRequest) error {
	return r.s.exec(ctx, func(t *tables) error {
		now := r.s.now()
		req.ID = t.newID()
		req.CreatedAt = now
		req.UpdatedAt = now
		stored := *req
		stored.Photos = copyStrings(req.Photos)
		t.helpRequests[req.ID] = stored
		return nil
	})
}

func (r *helpRequestRepository) GetByID(ctx context.Context, id string) (*domain.HelpRequest, error) {
	var out *domain.HelpRequest
	err := r.s.exec(ctx, func(t *tables) error {
		req, ok := t.helpRequests[id]
		if !ok {
			return domain.ErrRequestNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *helpRequestRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpRequest, error) {
	out := make(map[string]*domain.HelpRequest, len(ids))
	err := r.s.exec(ctx, func(t *tables) error {
		for _, id := range ids {
			if req, ok := t.helpRequests[id]; ok {
				out[id] = &req
			}
		}
		return nil
	})
	return out, err
}

func (r *helpRequestRepository) Update(ctx context.Context, req *domain.HelpRequest) error {
	return r.s.exec(ctx, func(t *tables) error {
		if _, ok := t.helpRequests[req.ID]; !ok {
			return domain.ErrRequestNotFound
		}
		req.UpdatedAt = r.s.now()
		stored := *req
		stored.Photos = copyStrings(req.Photos)
		t.helpRequests[req.ID] = stored
		return nil
	})
}

func (r *helpRequestRepository) ListByStatus(ctx context.Context, status domain.HelpRequestStatus, category *domain.HelpCategory) ([]*domain.HelpRequest, error) {
	out := []*domain.HelpRequest{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, req := range t.helpRequests {
			if req.Status != status {
				continue
			}
			if category != nil && req.Category != *category {
				continue
			}
			req := req
			out = append(out, &req)
		}
		sortNewest(t, out, func(r *domain.HelpRequest) (string, time.Time) { return r.ID, r.CreatedAt })
		return nil
	})
	return out, err
}

func (r *helpRequestRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.HelpRequest, error) {
	out := []*domain.HelpRequest{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, req := range t.helpRequests {
			if req.AuthorID == authorID {
				req := req
				out = append(out, &req)
			}
		}
		sortNewest(t, out, func(r *domain.HelpRequest) (string, time.Time) { return r.ID, r.CreatedAt })
		return nil
	})
	return out, err
}

func (r *helpRequestRepository) Delete(ctx context.Context, id string) error {
	return r.s.exec(ctx, func(t *tables) error {
		if _, ok := t.helpRequests[id]; !ok {
			return domain.ErrRequestNotFound
		}
		delete(t.helpRequests, id)
		return nil
	})
}

type helpOfferRepository struct {
	s *Store
}

func (r *helpOfferRepository) Create(ctx context.Context, offer *domain.HelpOffer) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, o := range t.helpOffers {
			if o.RequestID == offer.RequestID && o.OffererID == offer.OffererID && o.IsActive() {
				return domain.ErrDuplicateOffer
			}
		}
		now := r.s.now()
		offer.ID = t.newID()
		offer.CreatedAt = now
		offer.UpdatedAt = now
		t.helpOffers[offer.ID] = *offer
		return nil
	})
}

func (r *helpOfferRepository) GetByID(ctx context.Context, id string) (*domain.HelpOffer, error) {
	var out *domain.HelpOffer
	err := r.s.exec(ctx, func(t *tables) error {
		o, ok := t.helpOffers[id]
		if !ok {
			return domain.ErrOfferNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *helpOfferRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.HelpOffer, error) {
	out := make(map[string]*domain.HelpOffer, len(ids))
	err := r.s.exec(ctx, func(t *tables) error {
		for _, id := range ids {
			if o, ok := t.helpOffers[id]; ok {
				out[id] = &o
			}
		}
		return nil
	})
	return out, err
}

func (r *helpOfferRepository) list(ctx context.Context, keep func(o *domain.HelpOffer) bool) ([]*domain.HelpOffer, error) {
	out := []*domain.HelpOffer{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, o := range t.helpOffers {
			o := o
			if keep(&o) {
				out = append(out, &o)
			}
		}
		sortOldest(t, out, func(o *domain.HelpOffer) (string, time.Time) { return o.ID, o.CreatedAt })
		return nil
	})
	return out, err
}

func (r *helpOfferRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.HelpOffer, error) {
	return r.list(ctx, func(o *domain.HelpOffer) bool { return o.RequestID == requestID })
}

func (r *helpOfferRepository) ListByOfferer(ctx context.Context, offererID string) ([]*domain.HelpOffer, error) {
	return r.list(ctx, func(o *domain.HelpOffer) bool { return o.OffererID == offererID })
}

func (r *helpOfferRepository) FindActive(ctx context.Context, requestID, offererID string) (*domain.HelpOffer, error) {
	offers, err := r.list(ctx, func(o *domain.HelpOffer) bool {
		return o.RequestID == requestID && o.OffererID == offererID && o.IsActive()
	})
	if err != nil || len(offers) == 0 {
		return nil, err
	}
	return offers[0], nil
}

func (r *helpOfferRepository) CountByRequest(ctx context.Context, requestID string) (int, error) {
	offers, err := r.ListByRequest(ctx, requestID)
	return len(offers), err
}

func (r *helpOfferRepository) UpdateStatus(ctx context.Context, id string, status domain.HelpOfferStatus, at time.Time) error {
	return r.s.exec(ctx, func(t *tables) error {
		o, ok := t.helpOffers[id]
		if !ok {
			return domain.ErrOfferNotFound
		}
		o.Status = status
		o.UpdatedAt = at
		t.helpOffers[id] = o
		return nil
	})
}

func (r *helpOfferRepository) DeleteByRequest(ctx context.Context, requestID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, o := range t.helpOffers {
			if o.RequestID == requestID {
				delete(t.helpOffers, id)
			}
		}
		return nil
	})
}

func (r *helpOfferRepository) DeleteByOfferer(ctx context.Context, offererID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, o := range t.helpOffers {
			if o.OffererID == offererID {
				delete(t.helpOffers, id)
			}
		}
		return nil
	})
}

type helpConversationRepository struct {
	s *Store
}

func (r *helpConversationRepository) Create(ctx context.Context, conv *domain.HelpConversation) error {
	return r.s.exec(ctx, func(t *tables) error {
		for _, c := range t.helpConversations {
			if c.RequestID == conv.RequestID {
				return domain.ErrConversationExists
			}
		}
		conv.ID = t.newID()
		conv.CreatedAt = r.s.now()
		t.helpConversations[conv.ID] = *conv
		return nil
	})
}

func (r *helpConversationRepository) GetByID(ctx context.Context, id string) (*domain.HelpConversation, error) {
	var out *domain.HelpConversation
	err := r.s.exec(ctx, func(t *tables) error {
		c, ok := t.helpConversations[id]
		if !ok {
			return domain.ErrConversationNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *helpConversationRepository) FindByRequest(ctx context.Context, requestID string) (*domain.HelpConversation, error) {
	var out *domain.HelpConversation
	err := r.s.exec(ctx, func(t *tables) error {
		for _, c := range t.helpConversations {
			if c.RequestID == requestID {
				c := c
				out = &c
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *helpConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.HelpConversation, error) {
	out := []*domain.HelpConversation{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, c := range t.helpConversations {
			if c.HasUser(userID) {
				c := c
				out = append(out, &c)
			}
		}
		sortNewest(t, out, func(c *domain.HelpConversation) (string, time.Time) { return c.ID, c.CreatedAt })
		return nil
	})
	return out, err
}

func (r *helpConversationRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	return r.s.exec(ctx, func(t *tables) error {
		c, ok := t.helpConversations[id]
		if !ok {
			return domain.ErrConversationNotFound
		}
		last := at
		c.LastMessageAt = &last
		t.helpConversations[id] = c
		return nil
	})
}

func (r *helpConversationRepository) Delete(ctx context.Context, id string) error {
	return r.s.exec(ctx, func(t *tables) error {
		delete(t.helpConversations, id)
		return nil
	})
}

type helpMessageRepository struct {
	s *Store
}

func (r *helpMessageRepository) Create(ctx context.Context, msg *domain.HelpMessage) error {
	return r.s.exec(ctx, func(t *tables) error {
		msg.ID = t.newID()
		msg.CreatedAt = r.s.now()
		t.helpMessages[msg.ID] = *msg
		return nil
	})
}

func (r *helpMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.HelpMessage, error) {
	out := []*domain.HelpMessage{}
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.helpMessages {
			if m.ConversationID == conversationID {
				m := m
				out = append(out, &m)
			}
		}
		sortOldest(t, out, func(m *domain.HelpMessage) (string, time.Time) { return m.ID, m.CreatedAt })
		return nil
	})
	return out, err
}

func (r *helpMessageRepository) GetLastByConversation(ctx context.Context, conversationID string) (*domain.HelpMessage, error) {
	msgs, err := r.ListByConversation(ctx, conversationID)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[len(msgs)-1], nil
}

func (r *helpMessageRepository) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	count := 0
	err := r.s.exec(ctx, func(t *tables) error {
		for _, m := range t.helpMessages {
			if m.ConversationID == conversationID && m.SenderID != readerID && m.ReadAt == nil {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *helpMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error) {
	count := 0
	err := r.s.exec(ctx, func(t *tables) error {
		for id, m := range t.helpMessages {
			if m.ConversationID == conversationID && m.SenderID != readerID && m.ReadAt == nil {
				readAt := at
				m.ReadAt = &readAt
				t.helpMessages[id] = m
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *helpMessageRepository) DeleteByConversation(ctx context.Context, conversationID string) error {
	return r.s.exec(ctx, func(t *tables) error {
		for id, m := range t.helpMessages {
			if m.ConversationID == conversationID {
				delete(t.helpMessages, id)
			}
		}
		return nil
	})
}
