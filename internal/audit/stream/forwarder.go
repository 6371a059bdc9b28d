// Package stream forwards committed audit entries to Kafka for the
// downstream compliance pipeline.
//
// The forwarder sits outside the atomic unit of work: the service publishes
// an entry only after the store transaction commits, and Publish never
// blocks a request. A full buffer drops the entry and counts the drop; the
// store remains the source of truth for read-back.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"payflow/internal/audit"
)

// Producer is the slice of *kgo.Client the forwarder needs.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Forwarder consumes entries from a buffered channel and produces them to a
// topic, keyed by payout id so one payout's history stays in order.
type Forwarder struct {
	producer Producer
	topic    string
	inbox    chan audit.Entry
	logger   *slog.Logger
	dropped  func()
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithDroppedCounter installs a callback invoked when the inbox is full and
// an entry is discarded. Typically wired to a Prometheus counter.
func WithDroppedCounter(fn func()) Option {
	return func(f *Forwarder) { f.dropped = fn }
}

// WithBuffer overrides the inbox capacity.
func WithBuffer(n int) Option {
	return func(f *Forwarder) { f.inbox = make(chan audit.Entry, n) }
}

const defaultBuffer = 256

func New(producer Producer, topic string, logger *slog.Logger, opts ...Option) *Forwarder {
	f := &Forwarder{
		producer: producer,
		topic:    topic,
		inbox:    make(chan audit.Entry, defaultBuffer),
		logger:   logger,
		dropped:  func() {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Publish enqueues an entry without blocking. Callers invoke it after the
// ledger append has committed.
func (f *Forwarder) Publish(entry audit.Entry) {
	select {
	case f.inbox <- entry:
	default:
		f.dropped()
		f.logger.Warn("audit stream inbox full, dropping entry",
			"payout_id", entry.PayoutID.String(),
			"action", entry.Action.String(),
		)
	}
}

// Run drains the inbox until ctx is cancelled. Produce errors are logged,
// never retried here; Kafka is a best-effort mirror of the ledger.
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-f.inbox:
			payload, err := json.Marshal(entry)
			if err != nil {
				f.logger.Error("marshal audit entry", "error", err)
				continue
			}
			record := &kgo.Record{
				Topic: f.topic,
				Key:   []byte(entry.PayoutID.String()),
				Value: payload,
			}
			f.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
				if err != nil {
					f.logger.Error("produce audit entry",
						"payout_id", entry.PayoutID.String(),
						"error", err,
					)
				}
			})
		}
	}
}
