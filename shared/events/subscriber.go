package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handler func(ctx context.Context, event Event) error

// errMalformedEntry marks entries no retry can fix; they are acked and dropped.
var errMalformedEntry = errors.New("malformed stream entry")

// Subscriber consumes a stream through a consumer group. An entry is acked
// only after its handler succeeds. Entries left pending longer than
// ClaimMinIdle, by this consumer or a dead one, are claimed and handled again.
type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimMinIdle  time.Duration

	// claimCursor walks the pending entries list across XAUTOCLAIM calls.
	claimCursor string
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	ClaimMinIdle  time.Duration
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimMinIdle == 0 {
		config.ClaimMinIdle = 30 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimMinIdle:  config.ClaimMinIdle,
		claimCursor:   "0-0",
	}
}

// Start blocks until ctx is cancelled and returns ctx.Err().
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}
	log.Info().Str("stream", s.stream).Str("group", s.group).Str("consumer", s.consumer).Msg("Subscriber started")

	for ctx.Err() == nil {
		err := s.reclaimPending(ctx)
		if err == nil {
			err = s.readNew(ctx)
		}
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("stream", s.stream).Msg("Stream read failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}

	log.Info().Str("stream", s.stream).Msg("Subscriber stopping")
	return ctx.Err()
}

// ensureGroup creates the group, and the stream with it, reading from the
// start of the stream. An existing group is kept as is.
func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", s.group, err)
	}
	return nil
}

func (s *Subscriber) reclaimPending(ctx context.Context) error {
	messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.stream,
		Group:    s.group,
		Consumer: s.consumer,
		MinIdle:  s.claimMinIdle,
		Start:    s.claimCursor,
		Count:    s.batchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim pending entries: %w", err)
	}
	s.claimCursor = next
	if len(messages) > 0 {
		log.Warn().Int("count", len(messages)).Str("stream", s.stream).Msg("Redelivering pending entries")
	}
	s.handleAll(ctx, messages)
	return nil
}

func (s *Subscriber) readNew(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}
	for _, stream := range streams {
		s.handleAll(ctx, stream.Messages)
	}
	return nil
}

func (s *Subscriber) handleAll(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		err := s.processMessage(ctx, message)
		switch {
		case errors.Is(err, errMalformedEntry):
			log.Error().Err(err).Str("message_id", message.ID).Msg("Dropping malformed entry")
		case err != nil:
			log.Error().Err(err).Str("message_id", message.ID).Msg("Event handler failed; entry left pending")
			continue
		}
		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			log.Error().Err(err).Str("message_id", message.ID).Msg("Failed to ack entry")
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("%w: %s has no event field", errMalformedEntry, message.ID)
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformedEntry, message.ID, err)
	}
	return s.handler(ctx, event)
}
