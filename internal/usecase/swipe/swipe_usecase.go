package swipe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
)

type SwipeUseCase struct {
	repos     *repository.Repositories
	publisher notification.Publisher
	now       func() time.Time
}

func NewSwipeUseCase(repos *repository.Repositories, publisher notification.Publisher) *SwipeUseCase {
	return &SwipeUseCase{
		repos:     repos,
		publisher: publisher,
		now:       time.Now,
	}
}

// SwipeRequest represents a swipe action
type SwipeRequest struct {
	SwipedUserID string             `json:"swiped_user_id" binding:"required,uuid"`
	Action       domain.SwipeAction `json:"action" binding:"required,oneof=like pass superlike"`
}

// SwipeResult is returned for every accepted swipe
type SwipeResult struct {
	Success bool    `json:"success"`
	IsMatch bool    `json:"is_match"`
	MatchID *string `json:"match_id,omitempty"`
}

// LikeReceived is a pending like or superlike toward the current user
type LikeReceived struct {
	SwipeID   string              `json:"swipe_id"`
	Action    domain.SwipeAction  `json:"action"`
	User      *domain.UserSummary `json:"user"`
	CreatedAt time.Time           `json:"created_at"`
}

// MatchView is a match seen from one participant
type MatchView struct {
	*domain.Match
	OtherUser *domain.UserSummary `json:"other_user"`
}

// RecordSwipe stores the swipe and, on a mutual like, creates the match.
func (uc *SwipeUseCase) RecordSwipe(ctx context.Context, principalID, swiperID, swipedID string, action domain.SwipeAction) (*SwipeResult, error) {
	if principalID != swiperID {
		return nil, domain.ErrNotAuthorized
	}
	if swiperID == swipedID {
		return nil, domain.ErrCannotSwipeSelf
	}
	if !action.Valid() {
		return nil, domain.ErrInvalidSwipe
	}

	var (
		result *SwipeResult
		events []*notification.Event
	)
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		result, events = &SwipeResult{Success: true}, nil

		if _, err := uc.repos.Users.GetByID(ctx, swipedID); err != nil {
			return err
		}

		existing, err := uc.repos.Swipes.FindByUsers(ctx, swiperID, swipedID)
		if err != nil {
			return fmt.Errorf("failed to check existing swipe: %w", err)
		}
		if existing != nil {
			return domain.ErrDuplicateSwipe
		}

		swipe := &domain.Swipe{SwiperID: swiperID, SwipedID: swipedID, Action: action}
		if err := uc.repos.Swipes.Create(ctx, swipe); err != nil {
			return err
		}

		if !action.IsPositive() {
			return nil
		}

		reverse, err := uc.repos.Swipes.FindByUsers(ctx, swipedID, swiperID)
		if err != nil {
			return fmt.Errorf("failed to check reverse swipe: %w", err)
		}
		if reverse == nil || !reverse.Action.IsPositive() {
			return nil
		}

		match, created, err := uc.createMatch(ctx, swipe, reverse)
		if err != nil {
			return err
		}
		result.IsMatch = true
		result.MatchID = &match.ID
		if created {
			events, err = uc.matchEvents(ctx, match)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, events...)
	return result, nil
}

// createMatch returns the existing match for the pair, or creates one with the
// current swiper as User1.
func (uc *SwipeUseCase) createMatch(ctx context.Context, swipe, reverse *domain.Swipe) (*domain.Match, bool, error) {
	existing, err := uc.repos.Matches.FindByUsers(ctx, swipe.SwiperID, swipe.SwipedID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing match: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	matchedAt := uc.now()
	match := &domain.Match{
		User1ID:     swipe.SwiperID,
		User2ID:     swipe.SwipedID,
		Status:      domain.MatchStatusMatched,
		User1Action: swipe.Action,
		User2Action: reverse.Action,
		MatchedAt:   &matchedAt,
	}
	if err := uc.repos.Matches.Create(ctx, match); err != nil {
		return nil, false, fmt.Errorf("failed to create match: %w", err)
	}
	return match, true, nil
}

// matchEvents builds one match notification per participant, each naming the other.
func (uc *SwipeUseCase) matchEvents(ctx context.Context, match *domain.Match) ([]*notification.Event, error) {
	users, err := uc.repos.Users.GetByIDs(ctx, []string{match.User1ID, match.User2ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load matched users: %w", err)
	}

	var events []*notification.Event
	for _, recipient := range []string{match.User1ID, match.User2ID} {
		other, _ := match.GetOtherUserID(recipient)
		event := &notification.Event{
			Type:        notification.EventMatch,
			RecipientID: recipient,
			MatchID:     match.ID,
			OtherUserID: other,
		}
		if u, ok := users[other]; ok {
			event.OtherUserName = u.Name
		}
		events = append(events, event)
	}
	return events, nil
}

// GetLikesReceived returns likes toward the principal that they have not answered yet.
func (uc *SwipeUseCase) GetLikesReceived(ctx context.Context, principalID string) ([]*LikeReceived, error) {
	likes, err := uc.repos.Swipes.GetLikesReceived(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes received: %w", err)
	}

	hidden, err := blockedWith(ctx, uc.repos.Blocks, principalID)
	if err != nil {
		return nil, err
	}

	pending := make([]*domain.Swipe, 0, len(likes))
	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		if hidden[like.SwiperID] {
			continue
		}
		answered, err := uc.repos.Swipes.FindByUsers(ctx, principalID, like.SwiperID)
		if err != nil {
			return nil, fmt.Errorf("failed to check swipe: %w", err)
		}
		if answered != nil {
			continue
		}
		pending = append(pending, like)
		ids = append(ids, like.SwiperID)
	}

	users, err := uc.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	responses := make([]*LikeReceived, 0, len(pending))
	for _, like := range pending {
		user, ok := users[like.SwiperID]
		if !ok {
			continue
		}
		responses = append(responses, &LikeReceived{
			SwipeID:   like.ID,
			Action:    like.Action,
			User:      user.Summary(),
			CreatedAt: like.CreatedAt,
		})
	}
	return responses, nil
}

// GetMatches lists the principal's matched pairs, most recent first.
func (uc *SwipeUseCase) GetMatches(ctx context.Context, principalID string) ([]*MatchView, error) {
	matches, err := uc.repos.Matches.ListByUser(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	hidden, err := blockedWith(ctx, uc.repos.Blocks, principalID)
	if err != nil {
		return nil, err
	}

	var (
		active []*domain.Match
		ids    []string
	)
	for _, m := range matches {
		other, _ := m.GetOtherUserID(principalID)
		if m.Status != domain.MatchStatusMatched || hidden[other] {
			continue
		}
		active = append(active, m)
		ids = append(ids, other)
	}

	users, err := uc.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	views := make([]*MatchView, 0, len(active))
	for _, m := range active {
		other, _ := m.GetOtherUserID(principalID)
		user, ok := users[other]
		if !ok {
			continue
		}
		views = append(views, &MatchView{Match: m, OtherUser: user.Summary()})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ActivityAt().After(views[j].ActivityAt())
	})
	return views, nil
}

// blockedWith returns every user in a block relation with userID, in either direction.
func blockedWith(ctx context.Context, blocks repository.BlockRepository, userID string) (map[string]bool, error) {
	involved, err := blocks.ListInvolving(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	out := make(map[string]bool, len(involved))
	for _, b := range involved {
		if b.BlockerID == userID {
			out[b.BlockedID] = true
		} else {
			out[b.BlockerID] = true
		}
	}
	return out, nil
}
