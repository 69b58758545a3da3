package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrQueueClosed is returned by Receive after Close.
var ErrQueueClosed = errors.New("notification queue closed")

// MemoryQueue is a bounded in-process queue. Publishing to a full queue drops the event.
type MemoryQueue struct {
	events chan *Event
	done   chan struct{}
	once   sync.Once
	now    func() time.Time
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		events: make(chan *Event, size),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

func (q *MemoryQueue) Publish(_ context.Context, events ...*Event) {
	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = q.now()
		}
		if !offer(q.events, q.done, e) {
			return
		}
	}
}

// offer hands e to events without blocking and drops it when events is full.
// It reports false once done is closed.
func offer(events chan<- *Event, done <-chan struct{}, e *Event) bool {
	select {
	case <-done:
		return false
	default:
	}
	select {
	case events <- e:
	default:
		log.Warn().Str("type", string(e.Type)).Str("recipient_id", e.RecipientID).Msg("Notification queue full, dropping event")
	}
	return true
}

func (q *MemoryQueue) Receive(ctx context.Context) (*Event, error) {
	select {
	case e := <-q.events:
		return e, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

const (
	redisQueueKey = "detour:notifications"
	redisBatch    = 100
)

// RedisQueue stores events in a Redis list so any instance's dispatcher can deliver them.
// Publish only buffers; a background pusher writes the buffer to Redis.
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	now     func() time.Time

	pending chan *Event
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewRedisQueue(client *redis.Client, size int) *RedisQueue {
	return newRedisQueue(client, size, 5*time.Second)
}

func newRedisQueue(client *redis.Client, size int, timeout time.Duration) *RedisQueue {
	q := &RedisQueue{
		client:  client,
		key:     redisQueueKey,
		timeout: timeout,
		now:     time.Now,
		pending: make(chan *Event, size),
		done:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.push()
	return q
}

func (q *RedisQueue) Publish(_ context.Context, events ...*Event) {
	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = q.now()
		}
		if !offer(q.pending, q.done, e) {
			return
		}
	}
}

func (q *RedisQueue) push() {
	defer q.wg.Done()
	for {
		select {
		case e := <-q.pending:
			_ = q.write(q.drain(e))
		case <-q.done:
			// flush what was buffered before Close, giving up on the first failure
			for {
				batch := q.drain(nil)
				if len(batch) == 0 || q.write(batch) != nil {
					return
				}
			}
		}
	}
}

// drain collects first plus whatever is already buffered, up to one batch.
func (q *RedisQueue) drain(first *Event) []*Event {
	batch := make([]*Event, 0, redisBatch)
	if first != nil {
		batch = append(batch, first)
	}
	for len(batch) < redisBatch {
		select {
		case e := <-q.pending:
			batch = append(batch, e)
		default:
			return batch
		}
	}
	return batch
}

func (q *RedisQueue) write(batch []*Event) error {
	values := make([]interface{}, 0, len(batch))
	for _, e := range batch {
		data, err := json.Marshal(e)
		if err != nil {
			log.Error().Err(err).Str("type", string(e.Type)).Msg("Failed to encode notification event")
			continue
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if err := q.client.LPush(ctx, q.key, values...).Err(); err != nil {
		log.Error().Err(err).Int("events", len(values)).Msg("Failed to enqueue notification events")
		return err
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context) (*Event, error) {
	for {
		res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		// res is [key, value]
		var e Event
		if err := json.Unmarshal([]byte(res[1]), &e); err != nil {
			log.Error().Err(err).Msg("Dropping malformed notification event")
			continue
		}
		return &e, nil
	}
}

// Close stops accepting events and waits for the buffered ones to reach Redis.
func (q *RedisQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
	return nil
}
