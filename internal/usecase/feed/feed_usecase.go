package feed

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type FeedUseCase struct {
	repos *repository.Repositories
}

func NewFeedUseCase(repos *repository.Repositories) *FeedUseCase {
	return &FeedUseCase{repos: repos}
}

// FeedQuery is the query string of the discovery feed
type FeedQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Candidate represents a user in the feed
type Candidate struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Bio                *string  `json:"bio,omitempty"`
	Location           *string  `json:"location,omitempty"`
	LifestyleTags      []string `json:"lifestyle_tags"`
	Interests          []string `json:"interests"`
	Photos             []string `json:"photos"`
	CompatibilityScore int      `json:"compatibility_score"`
}

// GetCandidates returns users the principal has not swiped on yet, best
// matches first. Blocked pairs never show up.
func (uc *FeedUseCase) GetCandidates(ctx context.Context, principalID string, limit int) ([]*Candidate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	me, err := uc.repos.Users.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	users, err := uc.repos.Users.ListDiscoverable(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	swiped, err := uc.repos.Swipes.ListSwipedIDs(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swipes: %w", err)
	}
	skip := make(map[string]bool, len(swiped))
	for _, id := range swiped {
		skip[id] = true
	}

	blocks, err := uc.repos.Blocks.ListInvolving(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	for _, b := range blocks {
		skip[b.BlockerID] = true
		skip[b.BlockedID] = true
	}

	candidates := make([]*Candidate, 0, len(users))
	for _, u := range users {
		if skip[u.ID] {
			continue
		}
		candidates = append(candidates, &Candidate{
			ID:                 u.ID,
			Name:               u.Name,
			Bio:                u.Bio,
			Location:           u.Location,
			LifestyleTags:      u.LifestyleTags,
			Interests:          u.Interests,
			Photos:             u.Photos,
			CompatibilityScore: int(math.Round(compatibilityScore(me, u))),
		})
	}

	// users arrive newest first, so ties keep the newest on top
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CompatibilityScore > candidates[j].CompatibilityScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// compatibilityScore calculates a 0-100 score
func compatibilityScore(me, candidate *domain.User) float64 {
	score := 0.0

	// 1. Interests (60%)
	score += jaccard(me.Interests, candidate.Interests) * 60

	// 2. Lifestyle (30%)
	score += jaccard(me.LifestyleTags, candidate.LifestyleTags) * 30

	// 3. Same place (10%)
	if me.Location != nil && candidate.Location != nil &&
		strings.EqualFold(strings.TrimSpace(*me.Location), strings.TrimSpace(*candidate.Location)) {
		score += 10
	}
	return score
}

// jaccard is |a∩b| / |a∪b|, case-insensitive; 0 when both are empty.
func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = true
	}
	union := len(set)
	common := 0
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		v = strings.ToLower(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		if set[v] {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
