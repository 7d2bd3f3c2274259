package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/segmentio/kafka-go"
)

const defaultWriteTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes envelopes synchronously to a single topic, keyed by
// the envelope subject so events of one customer stay ordered.
type KafkaPublisher struct {
	w            messageWriter
	writeTimeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		writeTimeout: defaultWriteTimeout,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, envelope Envelope) error {
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", envelope.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(envelope.Subject),
		Value: value,
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.Type)},
			{Key: "event_id", Value: []byte(envelope.ID)},
		},
	})
	if err != nil {
		log.Errorf("[Events] Failed to publish %s: %v", envelope.Type, err)
		return err
	}
	log.Debugf("[Events] Published %s (%s)", envelope.Type, envelope.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		log.Info("[Events] No Kafka brokers configured, domain events disabled")
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers, topic)
}
