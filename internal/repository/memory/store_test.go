package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Swipes.Create(ctx, &domain.Swipe{SwiperID: "a", SwipedID: "b", Action: domain.SwipeLike}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sw, err := repos.Swipes.FindByUsers(ctx, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, sw, "swipe written inside a failed unit must be discarded")
}

func TestWithinTx_SerializesCheckThenInsert(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
				existing, err := repos.Swipes.FindByUsers(ctx, "a", "b")
				if err != nil {
					return err
				}
				if existing != nil {
					return domain.ErrDuplicateSwipe
				}
				return repos.Swipes.Create(ctx, &domain.Swipe{SwiperID: "a", SwipedID: "b", Action: domain.SwipeLike})
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestSwipeCreate_RejectsDuplicatePair(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()

	require.NoError(t, repos.Swipes.Create(ctx, &domain.Swipe{SwiperID: "a", SwipedID: "b", Action: domain.SwipePass}))
	err := repos.Swipes.Create(ctx, &domain.Swipe{SwiperID: "a", SwipedID: "b", Action: domain.SwipeLike})
	assert.ErrorIs(t, err, domain.ErrDuplicateSwipe)

	// the reverse direction is a different ordered pair
	assert.NoError(t, repos.Swipes.Create(ctx, &domain.Swipe{SwiperID: "b", SwipedID: "a", Action: domain.SwipeLike}))
}

func TestMessages_OrderedByCreationWithStableTies(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })
	repos := store.Repositories()
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, repos.Messages.Create(ctx, &domain.Message{MatchID: "m1", SenderID: "a", Content: content, MessageType: domain.MessageText}))
	}

	msgs, err := repos.Messages.ListByMatch(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)

	last, err := repos.Messages.GetLastByMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "three", last.Content)
}

func TestHelpOfferCreate_AllowsReofferAfterWithdraw(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()

	first := &domain.HelpOffer{RequestID: "r1", OffererID: "u1", Price: 1000, Status: domain.OfferPending}
	require.NoError(t, repos.HelpOffers.Create(ctx, first))
	assert.ErrorIs(t, repos.HelpOffers.Create(ctx, &domain.HelpOffer{RequestID: "r1", OffererID: "u1", Status: domain.OfferPending}), domain.ErrDuplicateOffer)

	require.NoError(t, repos.HelpOffers.UpdateStatus(ctx, first.ID, domain.OfferWithdrawn, time.Now()))
	assert.NoError(t, repos.HelpOffers.Create(ctx, &domain.HelpOffer{RequestID: "r1", OffererID: "u1", Status: domain.OfferPending}))
}

func TestStoredUserIsIsolatedFromCaller(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()

	u := &domain.User{ClerkID: "clerk_1", Name: "Ana", Interests: []string{"surf"}}
	require.NoError(t, repos.Users.Create(ctx, u))
	u.Interests[0] = "chess"

	got, err := repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"surf"}, got.Interests)
	assert.Equal(t, domain.UserStatusPending, got.Status)
}
