package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"payflow/internal/audit"
	"payflow/pkg/domain"
)

// fakeProducer records produced records and acks every promise.
type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	done    chan struct{}
}

func newFakeProducer(expect int) *fakeProducer {
	return &fakeProducer{done: make(chan struct{}, expect)}
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.mu.Lock()
	p.records = append(p.records, r)
	p.mu.Unlock()
	promise(r, nil)
	p.done <- struct{}{}
}

func (p *fakeProducer) snapshot() []*kgo.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*kgo.Record{}, p.records...)
}

func testEntry(payoutID domain.PayoutID) audit.Entry {
	return audit.NewEntry(
		payoutID,
		domain.ActionSubmitted,
		domain.Principal{ID: domain.NewUserID(), Email: "ops@payflow.dev", Role: domain.RoleOps},
		domain.StatusDraft,
		domain.StatusSubmitted,
		time.Now().UTC(),
	)
}

// TestForwarder_ProducesKeyedRecords verifies entries reach the producer as
// JSON records keyed by payout id.
func TestForwarder_ProducesKeyedRecords(t *testing.T) {
	producer := newFakeProducer(1)
	f := New(producer, "payflow.audit", slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	payoutID := domain.NewPayoutID()
	entry := testEntry(payoutID)
	f.Publish(entry)

	select {
	case <-producer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not produced")
	}

	records := producer.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "payflow.audit", records[0].Topic)
	assert.Equal(t, payoutID.String(), string(records[0].Key))

	var decoded audit.Entry
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	assert.Equal(t, entry.ID, decoded.ID)
	assert.Equal(t, domain.ActionSubmitted, decoded.Action)
}

// TestForwarder_DropsWhenFull verifies Publish never blocks: a full inbox
// drops the entry and fires the counter.
func TestForwarder_DropsWhenFull(t *testing.T) {
	dropped := 0
	// No Run loop draining, so a one-slot buffer fills immediately.
	f := New(newFakeProducer(0), "payflow.audit", slog.Default(),
		WithBuffer(1),
		WithDroppedCounter(func() { dropped++ }),
	)

	f.Publish(testEntry(domain.NewPayoutID()))
	f.Publish(testEntry(domain.NewPayoutID()))
	f.Publish(testEntry(domain.NewPayoutID()))

	assert.Equal(t, 2, dropped)
}

// TestForwarder_StopsOnCancel verifies Run returns when the context ends.
func TestForwarder_StopsOnCancel(t *testing.T) {
	f := New(newFakeProducer(0), "payflow.audit", slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
