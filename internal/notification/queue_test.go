package notification

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisQueue(t *testing.T, size int) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newRedisQueue(client, size, time.Second), mr
}

// stalledRedis accepts connections and never answers.
func stalledRedis(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestRedisQueue_DeliversInPublishOrder(t *testing.T) {
	q, _ := newMiniRedisQueue(t, 8)
	defer q.Close()

	q.Publish(context.Background(),
		&Event{Type: EventMatch, RecipientID: "a"},
		&Event{Type: EventMessage, RecipientID: "b", Preview: "hi"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first.RecipientID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventMessage, second.Type)
	assert.Equal(t, "hi", second.Preview)
}

func TestRedisQueue_CloseFlushesBufferedEvents(t *testing.T) {
	q, mr := newMiniRedisQueue(t, 16)

	for i := 0; i < 10; i++ {
		q.Publish(context.Background(), &Event{Type: EventMatch, RecipientID: "u"})
	}
	require.NoError(t, q.Close())

	stored, err := mr.List(redisQueueKey)
	require.NoError(t, err)
	assert.Len(t, stored, 10)

	// publishing after Close is a no-op
	q.Publish(context.Background(), &Event{Type: EventMatch, RecipientID: "late"})
	stored, err = mr.List(redisQueueKey)
	require.NoError(t, err)
	assert.Len(t, stored, 10)
}

func TestRedisQueue_PublishDoesNotWaitForRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:         stalledRedis(t),
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer client.Close()

	q := newRedisQueue(client, 4, 200*time.Millisecond)
	defer q.Close()

	start := time.Now()
	for i := 0; i < 20; i++ {
		q.Publish(context.Background(), &Event{Type: EventMessage, RecipientID: "u"})
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
