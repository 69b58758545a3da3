package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMessage(t *testing.T) {
	content, typ, err := NormalizeMessage("  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
	assert.Equal(t, MessageText, typ)

	_, _, err = NormalizeMessage("   ", MessageText)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, _, err = NormalizeMessage("hi", "video")
	assert.ErrorIs(t, err, ErrInvalidMessageType)

	_, _, err = NormalizeMessage(strings.Repeat("a", MaxMessageLength+1), MessageText)
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, _, err = NormalizeMessage(strings.Repeat("é", MaxMessageLength), MessageText)
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", MessageText))
	assert.Equal(t, "📷 Photo", Preview("https://cdn/x.jpg", MessageImage))

	long := strings.Repeat("ж", PreviewLength+10)
	got := Preview(long, MessageText)
	assert.Equal(t, strings.Repeat("ж", PreviewLength)+"...", got)
	assert.Equal(t, strings.Repeat("b", PreviewLength), Preview(strings.Repeat("b", PreviewLength), MessageText))
}

func TestPairKey(t *testing.T) {
	a1, b1 := PairKey("u2", "u1")
	a2, b2 := PairKey("u1", "u2")
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "u1", a1)
}

func TestMatch_OtherUserAndActivity(t *testing.T) {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m := &Match{User1ID: "a", User2ID: "b", CreatedAt: created}

	other, ok := m.GetOtherUserID("a")
	assert.True(t, ok)
	assert.Equal(t, "b", other)
	_, ok = m.GetOtherUserID("c")
	assert.False(t, ok)
	assert.False(t, m.HasUser("c"))

	assert.Equal(t, created, m.ActivityAt())
	matched := created.Add(time.Hour)
	m.MatchedAt = &matched
	assert.Equal(t, matched, m.ActivityAt())
}

func TestSwipeAction(t *testing.T) {
	assert.True(t, SwipeSuperlike.Valid())
	assert.False(t, SwipeAction("maybe").Valid())
	assert.True(t, SwipeLike.IsPositive())
	assert.True(t, SwipeSuperlike.IsPositive())
	assert.False(t, SwipePass.IsPositive())
}

func TestUserStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, UserStatusPending.CanTransitionTo(UserStatusApproved))
	assert.True(t, UserStatusPending.CanTransitionTo(UserStatusRejected))
	assert.False(t, UserStatusApproved.CanTransitionTo(UserStatusRejected))
	assert.False(t, UserStatusRejected.CanTransitionTo(UserStatusPending))
	assert.False(t, UserStatusPending.CanTransitionTo(UserStatusPending))
}

func TestUserPatch_Apply(t *testing.T) {
	bio := "old"
	u := &User{Name: "Ana", Bio: &bio, Interests: []string{"surf"}, Photos: []string{"p1", "p2"}}

	location := "Lisbon"
	photos := []string{}
	(&UserPatch{Location: &location, Photos: &photos}).Apply(u)

	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "old", *u.Bio)
	assert.Equal(t, "Lisbon", *u.Location)
	assert.Equal(t, []string{"surf"}, u.Interests)
	assert.Empty(t, u.Photos)
	assert.Nil(t, u.FirstPhoto())
}

func TestHelpCategory_Valid(t *testing.T) {
	for _, c := range HelpCategories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, HelpCategory("gardening").Valid())
	assert.False(t, HelpCategory("").Valid())
}

func TestHelpRequestPatch_Apply(t *testing.T) {
	r := &HelpRequest{Title: "Fix the sink", Category: CategoryPlumbing}

	title := "  Fix the kitchen sink  "
	urgent := true
	require.NoError(t, (&HelpRequestPatch{Title: &title, IsUrgent: &urgent}).Apply(r))
	assert.Equal(t, "Fix the kitchen sink", r.Title)
	assert.True(t, r.IsUrgent)
	assert.Equal(t, CategoryPlumbing, r.Category)

	bad := HelpCategory("gardening")
	assert.ErrorIs(t, (&HelpRequestPatch{Category: &bad}).Apply(r), ErrInvalidCategory)

	short := "ab"
	err := (&HelpRequestPatch{Title: &short}).Apply(r)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "Fix the kitchen sink", r.Title)
}

func TestHelpRequestStatus_IsTerminal(t *testing.T) {
	assert.False(t, RequestOpen.IsTerminal())
	assert.False(t, RequestInProgress.IsTerminal())
	assert.True(t, RequestCompleted.IsTerminal())
	assert.True(t, RequestCancelled.IsTerminal())
}
