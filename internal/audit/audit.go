// Package audit publishes authentication lifecycle events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types.
const (
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventRefresh        = "refresh"
	EventLogout         = "logout"
	EventRoleChanged    = "role_changed"
	EventAccountDeleted = "account_deleted"
)

// Event is one audit record. It never carries credentials or token values.
type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id,omitempty"`
	ActorID string    `json:"actor_id,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers audit events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes JSON events keyed by user id, so one user's events stay ordered.
type Kafka struct {
	w   messageWriter
	log *zap.Logger
}

// NewKafka builds a publisher writing to topic on brokers.
func NewKafka(brokers []string, topic string, log *zap.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		// the recorder sends one event at a time; flush each immediately
		BatchSize:              1,
	}
	return &Kafka{w: w, log: log}
}

// Publish writes one event.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: data}); err != nil {
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error { return k.w.Close() }

// Recorder is a best-effort front for a Publisher. Record only enqueues;
// one goroutine publishes in order. A full queue drops the event and a
// delivery failure is logged, so neither ever delays the request.
type Recorder struct {
	pub     Publisher
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// QueueSize bounds the events waiting for delivery.
const QueueSize = 1024

// NewRecorder wraps pub and starts its delivery goroutine. A nil pub
// records nothing. Close stops the goroutine.
func NewRecorder(pub Publisher, log *zap.Logger) *Recorder {
	if pub == nil {
		pub = Nop{}
	}
	r := &Recorder{
		pub:     pub,
		log:     log,
		timeout: 2 * time.Second,
		queue:   make(chan Event, QueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.pub.Publish(ctx, e); err != nil {
			r.log.Warn("audit publish failed", zap.String("type", e.Type), zap.Error(err))
		}
		cancel()
	}
}

// Record enqueues e without blocking. Events recorded after Close are dropped.
func (r *Recorder) Record(_ context.Context, e Event) {
	if r == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.log.Warn("audit queue full, event dropped", zap.String("type", e.Type))
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered or ctx is done. It does not close the publisher.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
