package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string {
	return "mock"
}

func (m *mockSink) Deliver(ctx context.Context, e *Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestMemoryQueue_DropsWhenFull(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	q.Publish(ctx, &Event{Type: EventMatch, RecipientID: "a"}, &Event{Type: EventMatch, RecipientID: "b"})

	e, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", e.RecipientID)
	assert.False(t, e.CreatedAt.IsZero())

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = q.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_ReceiveAfterClose(t *testing.T) {
	q := NewMemoryQueue(4)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	_, err := q.Receive(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcher_FailingSinkDoesNotStopOthers(t *testing.T) {
	failing := &mockSink{}
	ok := &mockSink{}
	e := &Event{Type: EventMessage, RecipientID: "u2"}

	failing.On("Deliver", mock.Anything, e).Return(errors.New("device unregistered"))
	ok.On("Deliver", mock.Anything, e).Return(nil)

	d := NewDispatcher(NewMemoryQueue(1), 1, failing, ok)
	d.Dispatch(context.Background(), e)

	failing.AssertExpectations(t)
	ok.AssertExpectations(t)
}

func TestDispatcher_DrainsQueueUntilClosed(t *testing.T) {
	q := NewMemoryQueue(8)
	sink := &mockSink{}
	delivered := make(chan string, 2)
	sink.On("Deliver", mock.Anything, mock.AnythingOfType("*notification.Event")).
		Run(func(args mock.Arguments) {
			delivered <- args.Get(1).(*Event).RecipientID
		}).
		Return(nil)

	d := NewDispatcher(q, 2, sink)
	d.Start(context.Background())

	q.Publish(context.Background(), &Event{Type: EventMatch, RecipientID: "a"}, &Event{Type: EventMatch, RecipientID: "b"})

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-delivered:
			got[id] = true
		case <-time.After(time.Second):
			t.Fatal("event was not delivered")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)

	require.NoError(t, q.Close())
	d.Wait()
}

func TestEventAlert(t *testing.T) {
	tests := []struct {
		name      string
		event     Event
		wantTitle string
		wantBody  string
	}{
		{
			name:      "match",
			event:     Event{Type: EventMatch, OtherUserName: "Ana"},
			wantTitle: "It's a match!",
			wantBody:  "You and Ana liked each other",
		},
		{
			name:      "message",
			event:     Event{Type: EventMessage, SenderName: "Ana", Preview: "hi"},
			wantTitle: "Ana",
			wantBody:  "hi",
		},
		{
			name:      "help offer",
			event:     Event{Type: EventHelpOffer, OffererName: "Bo", RequestTitle: "Fix sink"},
			wantTitle: "New offer",
			wantBody:  `Bo offered to help with "Fix sink"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := tt.event.Alert()
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
