package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

type AccountUseCase struct {
	repos *repository.Repositories
}

func NewAccountUseCase(repos *repository.Repositories) *AccountUseCase {
	return &AccountUseCase{repos: repos}
}

// RegisterRequest is the signup body; the identity comes from the bearer token
type RegisterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// PushTokenRequest sets or clears the device push token
type PushTokenRequest struct {
	Token *string `json:"token" binding:"omitempty,max=200"`
}

// Register creates the user for an identity subject, or returns the existing
// one. The bool reports whether a user was created.
func (uc *AccountUseCase) Register(ctx context.Context, clerkID, name string) (*domain.User, bool, error) {
	name = strings.TrimSpace(name)
	if clerkID == "" {
		return nil, false, domain.ErrUnauthorized
	}
	if name == "" {
		return nil, false, domain.InvalidInput("name is required")
	}

	var (
		user    *domain.User
		created bool
	)
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := uc.repos.Users.GetByClerkID(ctx, clerkID)
		if err == nil {
			user, created = existing, false
			return nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}

		user = &domain.User{
			ClerkID:       clerkID,
			Name:          name,
			LifestyleTags: []string{},
			Interests:     []string{},
			Photos:        []string{},
			Status:        domain.UserStatusPending,
		}
		created = true
		return uc.repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Info().Str("user_id", user.ID).Msg("User registered")
	}
	return user, created, nil
}

// ResolvePrincipal maps an identity subject to the user acting on the API.
func (uc *AccountUseCase) ResolvePrincipal(ctx context.Context, clerkID string) (*domain.User, error) {
	user, err := uc.repos.Users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	return user, err
}

func (uc *AccountUseCase) GetMe(ctx context.Context, principalID string) (*domain.User, error) {
	return uc.repos.Users.GetByID(ctx, principalID)
}

// UpdateProfile merges the patch into the principal's profile.
func (uc *AccountUseCase) UpdateProfile(ctx context.Context, principalID string, patch *domain.UserPatch) (*domain.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.InvalidInput("name is required")
		}
		patch.Name = &name
	}

	var user *domain.User
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.repos.Users.GetByID(ctx, principalID)
		if err != nil {
			return err
		}
		patch.Apply(user)
		return uc.repos.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetPushToken stores the device token; nil clears it.
func (uc *AccountUseCase) SetPushToken(ctx context.Context, principalID string, token *string) error {
	if token != nil && strings.TrimSpace(*token) == "" {
		token = nil
	}
	return uc.repos.Users.SetPushToken(ctx, principalID, token)
}

// DeleteAccount removes the user and every record that depends on them in one unit.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, principalID string) error {
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repos.Users.GetByID(ctx, principalID); err != nil {
			return err
		}
		if err := uc.deleteDating(ctx, principalID); err != nil {
			return err
		}
		if err := uc.deleteHelp(ctx, principalID); err != nil {
			return err
		}
		return uc.repos.Users.Delete(ctx, principalID)
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", principalID).Msg("Account deleted")
	return nil
}

func (uc *AccountUseCase) deleteDating(ctx context.Context, userID string) error {
	matches, err := uc.repos.Matches.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	for _, m := range matches {
		if err := uc.repos.Messages.DeleteByMatch(ctx, m.ID); err != nil {
			return err
		}
		if err := uc.repos.Typing.DeleteByMatch(ctx, m.ID); err != nil {
			return err
		}
		if err := uc.repos.Matches.Delete(ctx, m.ID); err != nil {
			return err
		}
	}
	if err := uc.repos.Swipes.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	return uc.repos.Blocks.DeleteByUser(ctx, userID)
}

func (uc *AccountUseCase) deleteHelp(ctx context.Context, userID string) error {
	conversations, err := uc.repos.HelpConversations.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	for _, c := range conversations {
		if err := uc.repos.HelpMessages.DeleteByConversation(ctx, c.ID); err != nil {
			return err
		}
		if err := uc.repos.HelpConversations.Delete(ctx, c.ID); err != nil {
			return err
		}
	}

	requests, err := uc.repos.HelpRequests.ListByAuthor(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	for _, r := range requests {
		if err := uc.repos.HelpOffers.DeleteByRequest(ctx, r.ID); err != nil {
			return err
		}
		if err := uc.repos.HelpRequests.Delete(ctx, r.ID); err != nil {
			return err
		}
	}
	if err := uc.releaseAcceptedRequests(ctx, userID); err != nil {
		return err
	}
	return uc.repos.HelpOffers.DeleteByOfferer(ctx, userID)
}

// releaseAcceptedRequests cancels the in-progress requests the user was
// helping with, so no request keeps pointing at an offer about to be removed.
func (uc *AccountUseCase) releaseAcceptedRequests(ctx context.Context, userID string) error {
	offers, err := uc.repos.HelpOffers.ListByOfferer(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list offers: %w", err)
	}
	for _, o := range offers {
		if o.Status != domain.OfferAccepted {
			continue
		}
		req, err := uc.repos.HelpRequests.GetByID(ctx, o.RequestID)
		if errors.Is(err, domain.ErrRequestNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if req.AcceptedOfferID == nil || *req.AcceptedOfferID != o.ID {
			continue
		}
		if req.Status == domain.RequestInProgress {
			req.Status = domain.RequestCancelled
		}
		req.AcceptedOfferID = nil
		req.AcceptedAt = nil
		if err := uc.repos.HelpRequests.Update(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
