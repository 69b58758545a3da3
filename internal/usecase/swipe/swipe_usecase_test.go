package swipe

import (
	"context"
	"sync"
	"testing"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/detour-app/detour-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc       *SwipeUseCase
	repos    *repository.Repositories
	recorder *notification.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewStore().Repositories()
	recorder := notification.NewRecorder()
	return &fixture{uc: NewSwipeUseCase(repos, recorder), repos: repos, recorder: recorder}
}

func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	u := &domain.User{ClerkID: "clerk_" + name, Name: name}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u.ID
}

func (f *fixture) swipe(t *testing.T, from, to string, action domain.SwipeAction) *SwipeResult {
	t.Helper()
	res, err := f.uc.RecordSwipe(context.Background(), from, from, to, action)
	require.NoError(t, err)
	return res
}

func TestRecordSwipe_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	f.swipe(t, a, b, domain.SwipePass)
	_, err := f.uc.RecordSwipe(ctx, a, a, b, domain.SwipeLike)
	assert.ErrorIs(t, err, domain.ErrDuplicateSwipe)
	assert.Equal(t, "already swiped on this user", domain.MessageOf(err))

	stored, err := f.repos.Swipes.FindByUsers(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, domain.SwipePass, stored.Action)
}

func TestRecordSwipe_MutualLikeCreatesOneMatch(t *testing.T) {
	for _, order := range []string{"a first", "b first"} {
		t.Run(order, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a, b := f.user(t, "Ana"), f.user(t, "Ben")
			first, second := a, b
			if order == "b first" {
				first, second = b, a
			}

			res := f.swipe(t, first, second, domain.SwipeLike)
			assert.True(t, res.Success)
			assert.False(t, res.IsMatch)
			assert.Nil(t, res.MatchID)

			none, err := f.repos.Matches.FindByUsers(ctx, a, b)
			require.NoError(t, err)
			assert.Nil(t, none, "one-sided like must not create a match")

			res = f.swipe(t, second, first, domain.SwipeSuperlike)
			assert.True(t, res.IsMatch)
			require.NotNil(t, res.MatchID)

			match, err := f.repos.Matches.GetByID(ctx, *res.MatchID)
			require.NoError(t, err)
			assert.Equal(t, domain.MatchStatusMatched, match.Status)
			assert.Equal(t, second, match.User1ID)
			assert.Equal(t, domain.SwipeSuperlike, match.User1Action)
			assert.Equal(t, domain.SwipeLike, match.User2Action)
			assert.NotNil(t, match.MatchedAt)

			events := f.recorder.OfType(notification.EventMatch)
			require.Len(t, events, 2)
			byRecipient := map[string]*notification.Event{}
			for _, e := range events {
				byRecipient[e.RecipientID] = e
				assert.Equal(t, match.ID, e.MatchID)
			}
			assert.Equal(t, b, byRecipient[a].OtherUserID)
			assert.Equal(t, "Ben", byRecipient[a].OtherUserName)
			assert.Equal(t, a, byRecipient[b].OtherUserID)
			assert.Equal(t, "Ana", byRecipient[b].OtherUserName)
		})
	}
}

func TestRecordSwipe_PassNeverMatches(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")

	f.swipe(t, a, b, domain.SwipeLike)
	res := f.swipe(t, b, a, domain.SwipePass)
	assert.False(t, res.IsMatch)
	assert.Empty(t, f.recorder.Events())
}

func TestRecordSwipe_ExistingMatchIsReturnedUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	existing := &domain.Match{User1ID: b, User2ID: a, Status: domain.MatchStatusMatched, User1Action: domain.SwipeLike, User2Action: domain.SwipeLike}
	require.NoError(t, f.repos.Matches.Create(ctx, existing))

	f.swipe(t, a, b, domain.SwipeLike)
	res := f.swipe(t, b, a, domain.SwipeLike)
	require.NotNil(t, res.MatchID)
	assert.Equal(t, existing.ID, *res.MatchID)
	assert.Empty(t, f.recorder.Events())

	matches, err := f.repos.Matches.ListByUser(ctx, a)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRecordSwipe_ConcurrentDuplicatesStoreOneSwipe(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t, "a"), f.user(t, "b")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.uc.RecordSwipe(context.Background(), a, a, b, domain.SwipeLike); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestRecordSwipe_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	tests := []struct {
		name      string
		principal string
		swiper    string
		swiped    string
		action    domain.SwipeAction
		wantErr   error
	}{
		{"acting for someone else", b, a, b, domain.SwipeLike, domain.ErrNotAuthorized},
		{"self swipe", a, a, a, domain.SwipeLike, domain.ErrCannotSwipeSelf},
		{"unknown action", a, a, b, "maybe", domain.ErrInvalidSwipe},
		{"unknown user", a, a, "ghost", domain.SwipeLike, domain.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.RecordSwipe(ctx, tt.principal, tt.swiper, tt.swiped, tt.action)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetLikesReceived_OnlyUnanswered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, answered, waiting, passer := f.user(t, "me"), f.user(t, "answered"), f.user(t, "waiting"), f.user(t, "passer")

	f.swipe(t, answered, me, domain.SwipeLike)
	f.swipe(t, waiting, me, domain.SwipeSuperlike)
	f.swipe(t, passer, me, domain.SwipePass)
	f.swipe(t, me, answered, domain.SwipePass)

	likes, err := f.uc.GetLikesReceived(ctx, me)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, waiting, likes[0].User.ID)
	assert.Equal(t, domain.SwipeSuperlike, likes[0].Action)
}

func TestGetMatches_ExcludesBlockedPairs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, friend, blocked := f.user(t, "me"), f.user(t, "friend"), f.user(t, "blocked")

	for _, other := range []string{friend, blocked} {
		f.swipe(t, me, other, domain.SwipeLike)
		f.swipe(t, other, me, domain.SwipeLike)
	}
	require.NoError(t, f.repos.Blocks.Create(ctx, &domain.BlockedUser{BlockerID: blocked, BlockedID: me}))

	matches, err := f.uc.GetMatches(ctx, me)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, friend, matches[0].OtherUser.ID)
	assert.Equal(t, "friend", matches[0].OtherUser.Name)
}
