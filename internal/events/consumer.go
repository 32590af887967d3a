package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ErrNoSession is returned by Decode for an event without a session ID.
var ErrNoSession = errors.New("event has no sessionId")

// Envelope is the routing part shared by every published event. Payload
// holds the message value unchanged.
type Envelope struct {
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	SegmentID string          `json:"segmentId,omitempty"`
	Payload   json.RawMessage `json:"-"`
}

// Decode reads the envelope of a Kafka message value.
func Decode(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if env.SessionID == "" {
		return Envelope{}, ErrNoSession
	}
	env.Payload = append(json.RawMessage(nil), value...)
	return env, nil
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Brokers []string
	Topics  []string
	// Since replays messages newer than now minus Since on start.
	Since time.Duration
}

// Consumer tails partition 0 of each topic without a consumer group, so it
// works through a port-forward and never commits offsets.
type Consumer struct {
	readers []*kafka.Reader
	since   time.Duration
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	c := &Consumer{since: cfg.Since}
	for _, topic := range cfg.Topics {
		if topic == "" {
			continue
		}
		c.readers = append(c.readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:   cfg.Brokers,
			Topic:     topic,
			Partition: 0,
			MinBytes:  1,
			MaxBytes:  10e6,
		}))
	}
	return c
}

// Run delivers decoded events to handle until ctx is done. Undecodable
// messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(Envelope)) {
	var wg sync.WaitGroup
	for _, r := range c.readers {
		wg.Add(1)
		go func(r *kafka.Reader) {
			defer wg.Done()
			c.consume(ctx, r, handle)
		}(r)
	}
	wg.Wait()
}

func (c *Consumer) consume(ctx context.Context, r *kafka.Reader, handle func(Envelope)) {
	topic := r.Config().Topic
	logger := log.With().Str("topic", topic).Logger()

	if c.since > 0 {
		if err := r.SetOffsetAt(ctx, time.Now().Add(-c.since)); err != nil {
			logger.Warn().Err(err).Msg("Failed to seek, reading from the current offset")
		}
	}
	logger.Info().Dur("since", c.since).Msg("Consuming events")

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		env, err := Decode(msg.Value)
		if err != nil {
			logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping event")
			continue
		}
		logger.Debug().
			Str("eventType", env.EventType).
			Str("sessionId", env.SessionID).
			Str("segmentId", env.SegmentID).
			Msg("Event received")
		handle(env)
	}
}

// Close closes every reader.
func (c *Consumer) Close() error {
	var errs []error
	for _, r := range c.readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
