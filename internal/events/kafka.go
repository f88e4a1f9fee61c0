package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const relayRetryDelay = time.Second

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader joins groupID. Each API instance needs its own group so
// that every instance sees every event.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
	})
}

// KafkaPublisher writes events to a topic keyed by order ID, so the events
// of one order stay in one partition.
type KafkaPublisher struct {
	w MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e OrderEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Relay consumes events from Kafka and republishes them locally.
type Relay struct {
	r     MessageReader
	local Publisher
}

func NewRelay(r MessageReader, local Publisher) *Relay {
	return &Relay{r: r, local: local}
}

// Run blocks until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	log.Println("event relay started")
	for {
		msg, err := r.r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Println("event relay stopped")
				return
			}
			log.Printf("ERROR: read event: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(relayRetryDelay):
			}
			continue
		}

		var e OrderEvent
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Printf("ERROR: decode event at offset %d: %v", msg.Offset, err)
			continue
		}
		if err := r.local.Publish(ctx, e); err != nil {
			log.Printf("ERROR: relay event %s: %v", e.OrderID, err)
		}
	}
}
