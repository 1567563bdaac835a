package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestPublisher_Publish(t *testing.T) {
	client, mr := newTestClient(t)
	p := NewPublisher(client)
	p.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), AccountEventsStream, AccountCreated, AccountCreatedEvent{ID: 1, Name: "Bob", Email: "b@x.com"})
	require.NoError(t, err)

	entries, err := mr.Stream(AccountEventsStream)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"event"}, entries[0].Values[:1])

	var event Event
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values[1]), &event))
	assert.Equal(t, AccountCreated, event.Type)
	assert.Equal(t, p.now(), event.Timestamp)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "Bob", "email": "b@x.com"}, event.Data)
}

func TestPublisher_NilClient(t *testing.T) {
	p := NewPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), AccountEventsStream, AccountDeleted, AccountDeletedEvent{ID: 1}))

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Publish(context.Background(), AccountEventsStream, AccountDeleted, nil))
}

func TestSubscriber_ProcessMessage(t *testing.T) {
	var got Event
	s := NewSubscriber(nil, SubscriberConfig{Handler: func(ctx context.Context, e Event) error {
		got = e
		return nil
	}})

	payload := `{"type":"account.deleted","timestamp":"2024-01-01T00:00:00Z","data":{"id":9}}`
	require.NoError(t, s.processMessage(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]any{"event": payload}}))
	assert.Equal(t, AccountDeleted, got.Type)

	err := s.processMessage(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]any{"other": "x"}})
	assert.ErrorIs(t, err, errMalformedEntry)
	err = s.processMessage(context.Background(), redis.XMessage{ID: "3-0", Values: map[string]any{"event": "{"}})
	assert.ErrorIs(t, err, errMalformedEntry)
}

func TestSubscriber_Defaults(t *testing.T) {
	s := NewSubscriber(nil, SubscriberConfig{})
	assert.Equal(t, int64(10), s.batchSize)
	assert.Equal(t, 5*time.Second, s.blockDuration)
	assert.Equal(t, 30*time.Second, s.claimMinIdle)
}

func TestSubscriber_ReceivesPublishedEvent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, NewPublisher(client).Publish(ctx, AccountEventsStream, AccountUpdated, AccountUpdatedEvent{ID: 2, Name: "Ann"}))

	received := make(chan Event, 1)
	s := NewSubscriber(client, SubscriberConfig{
		Group:         "audit",
		Consumer:      "test",
		Stream:        AccountEventsStream,
		BlockDuration: 50 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			received <- e
			cancel()
			return nil
		},
	})

	err := s.Start(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)

	select {
	case e := <-received:
		assert.Equal(t, AccountUpdated, e.Type)
	default:
		t.Fatal("handler was not called")
	}
}

// pendingCount returns -1 when XPENDING fails.
func pendingCount(client *redis.Client, group string) int64 {
	p, err := client.XPending(context.Background(), AccountEventsStream, group).Result()
	if err != nil {
		return -1
	}
	return p.Count
}

// runSubscriber starts s and returns a stop func that cancels it and waits.
func runSubscriber(t *testing.T, s *Subscriber) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("subscriber did not stop")
		}
	}
}

func TestSubscriber_RedeliversFailedEntry(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, NewPublisher(client).Publish(context.Background(), AccountEventsStream, AccountDeleted, AccountDeletedEvent{ID: 3}))

	var deliveries atomic.Int32
	s := NewSubscriber(client, SubscriberConfig{
		Group:         "audit",
		Consumer:      "test",
		Stream:        AccountEventsStream,
		BlockDuration: 20 * time.Millisecond,
		ClaimMinIdle:  20 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			if deliveries.Add(1) == 1 {
				return errors.New("audit sink unavailable")
			}
			return nil
		},
	})
	stop := runSubscriber(t, s)
	defer stop()

	require.Eventually(t, func() bool { return deliveries.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return pendingCount(client, "audit") == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestSubscriber_DropsMalformedEntry(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: AccountEventsStream,
		Values: map[string]any{"other": "x"},
	}).Err())

	// A valid event behind it shows when the batch has been handled.
	require.NoError(t, NewPublisher(client).Publish(context.Background(), AccountEventsStream, AccountDeleted, AccountDeletedEvent{ID: 4}))

	var calls atomic.Int32
	s := NewSubscriber(client, SubscriberConfig{
		Group:         "audit",
		Consumer:      "test",
		Stream:        AccountEventsStream,
		BlockDuration: 20 * time.Millisecond,
		Handler: func(ctx context.Context, e Event) error {
			calls.Add(1)
			return nil
		},
	})
	stop := runSubscriber(t, s)
	defer stop()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return pendingCount(client, "audit") == 0 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "the malformed entry never reaches the handler")
}
