// Package kafka publishes prediction events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okian/wattcast/internal/domain/model"
)

const defaultWriteTimeout = 10 * time.Second

// Sentinel kinds for sink configuration errors.
var (
	ErrNoBrokers = errors.New("kafka sink requires at least one broker")
	ErrNoTopic   = errors.New("kafka sink requires a topic")
)

// Config holds the writer settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink writes each event as one JSON message keyed by user.
type Sink struct {
	writer messageWriter
	topic  string
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewSink builds a Sink backed by a kafka-go Writer.
func NewSink(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, ErrNoTopic
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: false,
	}
	return newSinkWithWriter(w, cfg.Topic), nil
}

func newSinkWithWriter(w messageWriter, topic string) *Sink {
	return &Sink{writer: w, topic: topic}
}

// Topic returns the destination topic.
func (s *Sink) Topic() string { return s.topic }

// Publish encodes e and writes it. The message key is the user so one
// user's events stay ordered within a partition.
func (s *Sink) Publish(ctx context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam: matches worker.Sink
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	key := e.User
	if key == "" {
		key = e.ID
	}
	msg := kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafkago.Header{
			{Key: "interface", Value: []byte(e.Interface)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", s.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
