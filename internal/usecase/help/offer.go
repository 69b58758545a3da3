package help

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
)

// CreateOfferInput is the body of a new offer
type CreateOfferInput struct {
	Price   int64  `json:"price" binding:"min=0"`
	Message string `json:"message" binding:"max=1000"`
}

// OfferView is an offer with the helper who made it
type OfferView struct {
	*domain.HelpOffer
	Offerer *domain.UserSummary `json:"offerer,omitempty"`
}

// MyOfferView is one of the principal's offers with the request it targets
type MyOfferView struct {
	*domain.HelpOffer
	Request *domain.HelpRequest `json:"request,omitempty"`
}

// AcceptResult is returned by AcceptOffer
type AcceptResult struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversation_id"`
}

// CreateOffer places a pending offer on an open request and notifies its author.
func (uc *HelpUseCase) CreateOffer(ctx context.Context, principalID, requestID string, in *CreateOfferInput) (*domain.HelpOffer, error) {
	if in.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}

	var (
		offer *domain.HelpOffer
		event *notification.Event
	)
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := uc.repos.HelpRequests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestOpen {
			return domain.ErrRequestNotOpen
		}
		if req.AuthorID == principalID {
			return domain.ErrOwnRequest
		}

		existing, err := uc.repos.HelpOffers.FindActive(ctx, requestID, principalID)
		if err != nil {
			return fmt.Errorf("failed to check existing offer: %w", err)
		}
		if existing != nil {
			return domain.ErrDuplicateOffer
		}

		offerer, err := uc.repos.Users.GetByID(ctx, principalID)
		if err != nil {
			return err
		}

		offer = &domain.HelpOffer{
			RequestID: requestID,
			OffererID: principalID,
			Price:     in.Price,
			Message:   strings.TrimSpace(in.Message),
			Status:    domain.OfferPending,
		}
		if err := uc.repos.HelpOffers.Create(ctx, offer); err != nil {
			return err
		}

		event = &notification.Event{
			Type:         notification.EventHelpOffer,
			RecipientID:  req.AuthorID,
			RequestID:    req.ID,
			OfferID:      offer.ID,
			OffererName:  offerer.Name,
			RequestTitle: req.Title,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, event)
	return offer, nil
}

// AcceptOffer accepts one pending offer and rejects every other pending offer
// on the request in a single unit. The request moves to in_progress and the
// requester/helper conversation is opened.
func (uc *HelpUseCase) AcceptOffer(ctx context.Context, principalID, requestID, offerID string) (*AcceptResult, error) {
	var (
		result *AcceptResult
		events []*notification.Event
	)
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		events = nil

		req, err := uc.authoredRequest(ctx, principalID, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestOpen {
			return domain.ErrRequestNotOpen
		}

		offer, err := uc.repos.HelpOffers.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.RequestID != requestID {
			return domain.ErrOfferMismatch
		}
		if offer.Status != domain.OfferPending {
			return domain.ErrOfferNotPending
		}

		now := uc.now()
		req.Status = domain.RequestInProgress
		req.AcceptedOfferID = &offer.ID
		req.AcceptedAt = &now
		if err := uc.repos.HelpRequests.Update(ctx, req); err != nil {
			return err
		}
		if err := uc.repos.HelpOffers.UpdateStatus(ctx, offer.ID, domain.OfferAccepted, now); err != nil {
			return err
		}
		offer.Status = domain.OfferAccepted

		others, err := uc.repos.HelpOffers.ListByRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to list offers: %w", err)
		}
		for _, o := range others {
			if o.ID == offer.ID || o.Status != domain.OfferPending {
				continue
			}
			if err := uc.repos.HelpOffers.UpdateStatus(ctx, o.ID, domain.OfferRejected, now); err != nil {
				return err
			}
			events = append(events, requestEvent(notification.EventHelpOfferRejected, o.OffererID, req, o.ID))
		}
		events = append(events, requestEvent(notification.EventHelpOfferAccepted, offer.OffererID, req, offer.ID))

		conv, err := uc.ensureConversation(ctx, req, offer)
		if err != nil {
			return err
		}
		result = &AcceptResult{Success: true, ConversationID: conv.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, events...)
	return result, nil
}

// WithdrawOffer lets a helper take back a pending offer.
func (uc *HelpUseCase) WithdrawOffer(ctx context.Context, principalID, offerID string) error {
	return uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		offer, err := uc.repos.HelpOffers.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.OffererID != principalID {
			return domain.ErrNotAuthorized
		}
		if offer.Status != domain.OfferPending {
			return domain.ErrOfferNotPending
		}
		return uc.repos.HelpOffers.UpdateStatus(ctx, offer.ID, domain.OfferWithdrawn, uc.now())
	})
}

// ListOffers shows the author every offer on the request; anyone else only
// sees their own. Unknown requests yield an empty list.
func (uc *HelpUseCase) ListOffers(ctx context.Context, principalID, requestID string) ([]*OfferView, error) {
	req, err := uc.repos.HelpRequests.GetByID(ctx, requestID)
	if errors.Is(err, domain.ErrRequestNotFound) {
		return []*OfferView{}, nil
	}
	if err != nil {
		return nil, err
	}

	offers, err := uc.repos.HelpOffers.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	visible := make([]*domain.HelpOffer, 0, len(offers))
	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		if req.AuthorID != principalID && o.OffererID != principalID {
			continue
		}
		visible = append(visible, o)
		ids = append(ids, o.OffererID)
	}

	users, err := uc.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load offerers: %w", err)
	}

	views := make([]*OfferView, 0, len(visible))
	for _, o := range visible {
		view := &OfferView{HelpOffer: o}
		if u, ok := users[o.OffererID]; ok {
			view.Offerer = u.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}

// ListMyOffers lists the principal's offers with their requests.
func (uc *HelpUseCase) ListMyOffers(ctx context.Context, principalID string) ([]*MyOfferView, error) {
	offers, err := uc.repos.HelpOffers.ListByOfferer(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	ids := make([]string, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.RequestID)
	}
	requests, err := uc.repos.HelpRequests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	views := make([]*MyOfferView, 0, len(offers))
	for _, o := range offers {
		views = append(views, &MyOfferView{HelpOffer: o, Request: requests[o.RequestID]})
	}
	return views, nil
}
