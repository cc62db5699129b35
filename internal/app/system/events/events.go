// internal/app/system/events/events.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/kerjasama/internal/domain/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue receives workflow events when no queue is configured.
const DefaultQueue = "kerjasama.ajuan.events"

// Event is the message published after every committed workflow change.
type Event struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	DocumentID string        `json:"documentId"`
	Level      models.Level  `json:"level,omitempty"`
	Action     models.Action `json:"action,omitempty"`
	From       models.Status `json:"from,omitempty"`
	To         models.Status `json:"to,omitempty"`
	ActorRole  models.Role   `json:"actorRole"`
	Version    int64         `json:"version"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Encode renders ev as the JSON message body.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Publisher sends workflow events to downstream consumers such as the
// notification service. Publishing happens after the write is committed, so
// a failed publish never undoes a transition.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Config configures the RabbitMQ publisher.
type Config struct {
	URL   string
	Queue string
}

// RabbitMQ publishes persistent JSON messages to one durable queue through
// the default exchange.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *zap.Logger
	mu      sync.Mutex
}

// Connect returns Nop when cfg.URL is empty, otherwise it dials the broker
// and declares the queue.
func Connect(cfg Config, log *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		return Nop{}, nil
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	log.Info("event publisher connected", zap.String("queue", cfg.Queue))
	return &RabbitMQ{conn: conn, channel: ch, queue: cfg.Queue, log: log}, nil
}

// Publish sends ev. amqp channels are not safe for concurrent publishing.
func (b *RabbitMQ) Publish(ctx context.Context, ev Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.channel.PublishWithContext(ctx,
		"",      // exchange
		b.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (b *RabbitMQ) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// Recorder keeps published events in memory. Handler and service tests use
// it in place of a broker.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
