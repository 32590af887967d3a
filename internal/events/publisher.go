// Package events publishes transcript and feedback events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"futurefind-speech-service/internal/observability/metrics"
)

// Event kinds, also used as metric labels.
const (
	KindPartial  = "partial"
	KindFinal    = "final"
	KindFeedback = "feedback"
)

// Publisher publishes events to one Kafka topic per kind. With Kafka
// disabled every event is only logged.
type Publisher struct {
	writers   map[string]*kafka.Writer
	topics    map[string]string
	principal string
	enabled   bool
	metrics   *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicPartial  string
	TopicFinal    string
	TopicFeedback string
	Principal     string
	Enabled       bool
}

func (c *Config) topicMap() map[string]string {
	return map[string]string{
		KindPartial:  c.TopicPartial,
		KindFinal:    c.TopicFinal,
		KindFeedback: c.TopicFeedback,
	}
}

// New creates a publisher. A nil config, a disabled config or an empty
// broker list yields a log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{topics: map[string]string{}, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			topics:    cfg.topicMap(),
			principal: cfg.Principal,
			metrics:   m,
		}
	}

	// Longer dial timeout for DNS resolution inside Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	topics := cfg.topicMap()
	writers := make(map[string]*kafka.Writer, len(topics))
	for kind, topic := range topics {
		if topic == "" {
			continue
		}
		writers[kind] = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Str("topicFeedback", cfg.TopicFeedback).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writers:   writers,
		topics:    topics,
		principal: cfg.Principal,
		enabled:   true,
		metrics:   m,
	}
}

// PublishPartial publishes an interim transcript event.
func (p *Publisher) PublishPartial(ctx context.Context, key string, event any) error {
	return p.publish(ctx, KindPartial, key, event)
}

// PublishFinal publishes a processed final transcript event.
func (p *Publisher) PublishFinal(ctx context.Context, key string, event any) error {
	return p.publish(ctx, KindFinal, key, event)
}

// PublishFeedback publishes an answer evaluation event.
func (p *Publisher) PublishFeedback(ctx context.Context, key string, event any) error {
	return p.publish(ctx, KindFeedback, key, event)
}

// Enabled reports whether events reach Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) publish(ctx context.Context, kind, key string, event any) error {
	start := time.Now()
	topic := p.topics[kind]

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	writer := p.writers[kind]
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, kind, nil, time.Since(start).Seconds())
		return nil
	}

	// Keyed by session so one session's events stay ordered on a partition.
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(kind)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, kind, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, kind, nil, time.Since(start).Seconds())
	return nil
}

// Close closes all Kafka writers.
func (p *Publisher) Close() error {
	var err error
	for kind, w := range p.writers {
		if e := w.Close(); e != nil {
			log.Error().Err(e).Str("kind", kind).Msg("Error closing Kafka writer")
			err = e
		}
	}
	return err
}
