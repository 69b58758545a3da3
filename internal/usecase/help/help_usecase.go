package help

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
)

// HelpUseCase runs the help marketplace: requests, offers and the
// conversations opened between a requester and the accepted helper.
type HelpUseCase struct {
	repos     *repository.Repositories
	publisher notification.Publisher
	now       func() time.Time
}

func NewHelpUseCase(repos *repository.Repositories, publisher notification.Publisher) *HelpUseCase {
	return &HelpUseCase{
		repos:     repos,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateRequestInput is the body of a new help request
type CreateRequestInput struct {
	Title       string              `json:"title" binding:"required,min=3,max=120"`
	Description string              `json:"description" binding:"max=2000"`
	Category    domain.HelpCategory `json:"category" binding:"required,help_category"`
	Location    *string             `json:"location" binding:"omitempty,max=120"`
	Photos      []string            `json:"photos" binding:"omitempty,max=6"`
	IsUrgent    bool                `json:"is_urgent"`
}

// RequestView is a help request with its author and offer count
type RequestView struct {
	*domain.HelpRequest
	Author     *domain.UserSummary `json:"author,omitempty"`
	OfferCount int                 `json:"offer_count"`
}

// CreateRequest publishes a new open request authored by the principal.
func (uc *HelpUseCase) CreateRequest(ctx context.Context, principalID string, in *CreateRequestInput) (*domain.HelpRequest, error) {
	if !in.Category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	title, err := domain.NormalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return nil, domain.InvalidInput("description must be at most %d characters", domain.MaxDescriptionLength)
	}

	req := &domain.HelpRequest{
		AuthorID:    principalID,
		Title:       title,
		Description: description,
		Category:    in.Category,
		Location:    in.Location,
		Photos:      in.Photos,
		IsUrgent:    in.IsUrgent,
		Status:      domain.RequestOpen,
	}
	if req.Photos == nil {
		req.Photos = []string{}
	}

	err = uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repos.Users.GetByID(ctx, principalID); err != nil {
			return err
		}
		return uc.repos.HelpRequests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateRequest applies an author's patch while the request is still open.
func (uc *HelpUseCase) UpdateRequest(ctx context.Context, principalID, requestID string, patch *domain.HelpRequestPatch) (*domain.HelpRequest, error) {
	var req *domain.HelpRequest
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = uc.authoredRequest(ctx, principalID, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestOpen {
			return domain.ErrRequestNotOpen
		}
		if err := patch.Apply(req); err != nil {
			return err
		}
		return uc.repos.HelpRequests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// authoredRequest loads a request the principal must be the author of.
func (uc *HelpUseCase) authoredRequest(ctx context.Context, principalID, requestID string) (*domain.HelpRequest, error) {
	req, err := uc.repos.HelpRequests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.AuthorID != principalID {
		return nil, domain.ErrNotAuthorized
	}
	return req, nil
}

// GetRequest returns nil when the request does not exist.
func (uc *HelpUseCase) GetRequest(ctx context.Context, requestID string) (*RequestView, error) {
	req, err := uc.repos.HelpRequests.GetByID(ctx, requestID)
	if errors.Is(err, domain.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	views, err := uc.requestViews(ctx, []*domain.HelpRequest{req})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListOpenRequests lists open requests newest first, optionally by category.
func (uc *HelpUseCase) ListOpenRequests(ctx context.Context, category *domain.HelpCategory) ([]*RequestView, error) {
	if category != nil && !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	requests, err := uc.repos.HelpRequests.ListByStatus(ctx, domain.RequestOpen, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}
	return uc.requestViews(ctx, requests)
}

// ListMyRequests lists every request the principal authored, newest first.
func (uc *HelpUseCase) ListMyRequests(ctx context.Context, principalID string) ([]*RequestView, error) {
	requests, err := uc.repos.HelpRequests.ListByAuthor(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return uc.requestViews(ctx, requests)
}

func (uc *HelpUseCase) requestViews(ctx context.Context, requests []*domain.HelpRequest) ([]*RequestView, error) {
	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.AuthorID)
	}
	authors, err := uc.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}

	views := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		count, err := uc.repos.HelpOffers.CountByRequest(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count offers: %w", err)
		}
		view := &RequestView{HelpRequest: r, OfferCount: count}
		if author, ok := authors[r.AuthorID]; ok {
			view.Author = author.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}

// CancelRequest moves an open or in-progress request to cancelled. Every
// pending offer is rejected and its author notified; the accepted helper, if
// any, is notified too.
func (uc *HelpUseCase) CancelRequest(ctx context.Context, principalID, requestID string) error {
	var events []*notification.Event
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		events = nil

		req, err := uc.authoredRequest(ctx, principalID, requestID)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return domain.ErrRequestClosed
		}

		now := uc.now()
		offers, err := uc.repos.HelpOffers.ListByRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to list offers: %w", err)
		}
		for _, o := range offers {
			switch {
			case o.Status == domain.OfferPending:
				if err := uc.repos.HelpOffers.UpdateStatus(ctx, o.ID, domain.OfferRejected, now); err != nil {
					return err
				}
			case req.AcceptedOfferID != nil && o.ID == *req.AcceptedOfferID:
			default:
				continue
			}
			events = append(events, requestEvent(notification.EventHelpRequestCancelled, o.OffererID, req, o.ID))
		}

		req.Status = domain.RequestCancelled
		return uc.repos.HelpRequests.Update(ctx, req)
	})
	if err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events...)
	return nil
}

// CompleteRequest closes an in-progress request and notifies the accepted helper.
func (uc *HelpUseCase) CompleteRequest(ctx context.Context, principalID, requestID string) error {
	var events []*notification.Event
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		events = nil

		req, err := uc.authoredRequest(ctx, principalID, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestInProgress {
			return domain.ErrRequestNotInProgress
		}

		req.Status = domain.RequestCompleted
		if err := uc.repos.HelpRequests.Update(ctx, req); err != nil {
			return err
		}

		if req.AcceptedOfferID != nil {
			offer, err := uc.repos.HelpOffers.GetByID(ctx, *req.AcceptedOfferID)
			switch {
			case errors.Is(err, domain.ErrOfferNotFound):
				// helper account is gone, nobody to notify
			case err != nil:
				return err
			default:
				events = append(events, requestEvent(notification.EventHelpRequestCompleted, offer.OffererID, req, offer.ID))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publisher.Publish(ctx, events...)
	return nil
}

func requestEvent(t notification.EventType, recipientID string, req *domain.HelpRequest, offerID string) *notification.Event {
	return &notification.Event{
		Type:         t,
		RecipientID:  recipientID,
		RequestID:    req.ID,
		OfferID:      offerID,
		RequestTitle: req.Title,
	}
}
