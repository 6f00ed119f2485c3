package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/batch"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/sse"
)

// stallingBus blocks every Publish until released, standing in for a
// slow or unreachable redis.
type stallingBus struct {
	release chan struct{}
	calls   chan sse.Message
}

func newStallingBus() *stallingBus {
	return &stallingBus{
		release: make(chan struct{}),
		calls:   make(chan sse.Message, 16),
	}
}

func (b *stallingBus) Publish(ctx context.Context, msg sse.Message) error {
	b.calls <- msg
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return ctx.Err()
}

func (b *stallingBus) StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error {
	return nil
}

func (b *stallingBus) Close() error { return nil }

func TestJobProgressDoesNotBlockOnSlowBus(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	hub := sse.NewHub(log)
	bus := newStallingBus()
	defer close(bus.release)

	notifier := NewProgressNotifier(log, hub, bus)

	snap := batch.Snapshot{ID: uuid.New(), Total: 5, Current: 1, IsGenerating: true}

	done := make(chan struct{})
	go func() {
		notifier.JobProgress(uuid.New(), snap)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("JobProgress blocked on bus publish")
	}

	// The publish itself still happens, just off the caller's goroutine.
	select {
	case msg := <-bus.calls:
		if msg.Channel != sse.JobChannel(snap.ID) {
			t.Fatalf("unexpected channel: %q", msg.Channel)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("bus publish never attempted")
	}
}
