package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/detour-app/detour-backend/internal/repository/memory"
	"github.com/detour-app/detour-backend/internal/usecase/swipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	chat     *ChatUseCase
	swipes   *swipe.SwipeUseCase
	repos    *repository.Repositories
	recorder *notification.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := time.Now()
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	repos := store.Repositories()
	recorder := notification.NewRecorder()
	return &fixture{
		chat:     NewChatUseCase(repos, recorder),
		swipes:   swipe.NewSwipeUseCase(repos, recorder),
		repos:    repos,
		recorder: recorder,
	}
}

func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	u := &domain.User{ClerkID: "clerk_" + name, Name: name, Photos: []string{name + ".jpg"}}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u.ID
}

func (f *fixture) match(t *testing.T, a, b string) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.swipes.RecordSwipe(ctx, a, a, b, domain.SwipeLike)
	require.NoError(t, err)
	res, err := f.swipes.RecordSwipe(ctx, b, b, a, domain.SwipeLike)
	require.NoError(t, err)
	require.True(t, res.IsMatch)
	f.recorder.Reset()
	return *res.MatchID
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "u1"), f.user(t, "u2")

	res, err := f.swipes.RecordSwipe(ctx, u1, u1, u2, domain.SwipeLike)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.IsMatch)

	res, err = f.swipes.RecordSwipe(ctx, u2, u2, u1, domain.SwipeLike)
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	m1 := *res.MatchID

	msg, err := f.chat.SendMessage(ctx, u1, m1, u1, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, u1, msg.SenderID)
	assert.Equal(t, domain.MessageText, msg.MessageType)
	assert.Nil(t, msg.ReadAt)

	updated, err := f.chat.MarkAsRead(ctx, u2, m1, u2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	messages, err := f.chat.GetMessages(ctx, u2, m1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].ReadAt)
	readAt := *messages[0].ReadAt

	updated, err = f.chat.MarkAsRead(ctx, u2, m1, u2)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	messages, err = f.chat.GetMessages(ctx, u1, m1)
	require.NoError(t, err)
	assert.Equal(t, readAt, *messages[0].ReadAt)
}

func TestMarkAsRead_OnlyMessagesFromOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")
	m := f.match(t, a, b)

	_, err := f.chat.SendMessage(ctx, a, m, a, "from a", "")
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, b, m, b, "from b", "")
	require.NoError(t, err)

	updated, err := f.chat.MarkAsRead(ctx, a, m, a)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	messages, err := f.chat.GetMessages(ctx, a, m)
	require.NoError(t, err)
	for _, msg := range messages {
		if msg.SenderID == a {
			assert.Nil(t, msg.ReadAt, "own message must stay unread")
		} else {
			assert.NotNil(t, msg.ReadAt)
		}
	}

	_, err = f.chat.MarkAsRead(ctx, a, m, b)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestSendMessage_EmitsTruncatedPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "Ana"), f.user(t, "Ben")
	m := f.match(t, a, b)

	long := strings.Repeat("é", 60)
	_, err := f.chat.SendMessage(ctx, a, m, a, "  "+long+"  ", domain.MessageText)
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, a, m, a, "https://cdn/img.jpg", domain.MessageImage)
	require.NoError(t, err)

	events := f.recorder.OfType(notification.EventMessage)
	require.Len(t, events, 2)
	assert.Equal(t, b, events[0].RecipientID)
	assert.Equal(t, m, events[0].MatchID)
	assert.Equal(t, "Ana", events[0].SenderName)
	assert.Equal(t, strings.Repeat("é", 50)+"...", events[0].Preview)
	assert.Equal(t, "📷 Photo", events[1].Preview)
}

func TestSendMessage_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	m := f.match(t, a, b)

	tests := []struct {
		name      string
		principal string
		sender    string
		matchID   string
		content   string
		msgType   domain.MessageType
		wantErr   error
	}{
		{"impersonation", b, a, m, "hi", "", domain.ErrNotAuthorized},
		{"outsider", c, c, m, "hi", "", domain.ErrNotMatchMember},
		{"unknown match", a, a, "nope", "hi", "", domain.ErrMatchNotFound},
		{"blank content", a, a, m, "   ", "", domain.ErrEmptyMessage},
		{"too long", a, a, m, strings.Repeat("x", domain.MaxMessageLength+1), "", domain.ErrMessageTooLong},
		{"bad type", a, a, m, "hi", "video", domain.ErrInvalidMessageType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.chat.SendMessage(ctx, tt.principal, tt.matchID, tt.sender, tt.content, tt.msgType)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.recorder.Events())
}

func TestSendMessage_RejectedWhenBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")
	m := f.match(t, a, b)

	require.NoError(t, f.repos.Blocks.Create(ctx, &domain.BlockedUser{BlockerID: b, BlockedID: a}))

	_, err := f.chat.SendMessage(ctx, a, m, a, "hello?", "")
	assert.ErrorIs(t, err, domain.ErrBlocked)

	messages, err := f.repos.Messages.ListByMatch(ctx, m)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, f.recorder.Events())
}

func TestGetMessages_EmptyForNonParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	m := f.match(t, a, b)
	_, err := f.chat.SendMessage(ctx, a, m, a, "secret", "")
	require.NoError(t, err)

	messages, err := f.chat.GetMessages(ctx, c, m)
	require.NoError(t, err)
	assert.Empty(t, messages)

	messages, err = f.chat.GetMessages(ctx, a, "missing")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestTypingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	m := f.match(t, a, b)

	view, err := f.chat.GetTypingStatus(ctx, b, m)
	require.NoError(t, err)
	assert.False(t, view.IsTyping)

	require.NoError(t, f.chat.SetTyping(ctx, a, m, true))
	view, err = f.chat.GetTypingStatus(ctx, b, m)
	require.NoError(t, err)
	assert.True(t, view.IsTyping)

	// the typist does not see their own indicator
	view, err = f.chat.GetTypingStatus(ctx, a, m)
	require.NoError(t, err)
	assert.False(t, view.IsTyping)

	require.NoError(t, f.chat.SetTyping(ctx, a, m, false))
	view, err = f.chat.GetTypingStatus(ctx, b, m)
	require.NoError(t, err)
	assert.False(t, view.IsTyping)

	assert.ErrorIs(t, f.chat.SetTyping(ctx, c, m, true), domain.ErrNotMatchMember)
}

func TestGetConversationPreviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, quiet, chatty, blocked := f.user(t, "me"), f.user(t, "quiet"), f.user(t, "chatty"), f.user(t, "blocked")

	mChatty := f.match(t, me, chatty)
	mQuiet := f.match(t, me, quiet)
	mBlocked := f.match(t, me, blocked)

	_, err := f.chat.SendMessage(ctx, chatty, mChatty, chatty, "one", "")
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, chatty, mChatty, chatty, "two", "")
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, blocked, mBlocked, blocked, "hey", "")
	require.NoError(t, err)

	require.NoError(t, f.repos.Blocks.Create(ctx, &domain.BlockedUser{BlockerID: me, BlockedID: blocked}))

	previews, err := f.chat.GetConversationPreviews(ctx, me)
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, mChatty, previews[0].MatchID)
	assert.Equal(t, "chatty", previews[0].OtherUser.Name)
	assert.Equal(t, 2, previews[0].UnreadCount)
	require.NotNil(t, previews[0].LastMessage)
	assert.Equal(t, "two", previews[0].LastMessage.Content)

	assert.Equal(t, mQuiet, previews[1].MatchID)
	assert.Nil(t, previews[1].LastMessage)
	assert.Equal(t, 0, previews[1].UnreadCount)

	// the blocked side does not see the pair either
	theirs, err := f.chat.GetConversationPreviews(ctx, blocked)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
