package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/batch"
	redisclient "github.com/openattest/certgen-backend/internal/clients/redis"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/sse"
)

// ProgressNotifier pushes batch snapshots to local SSE subscribers and,
// when a redis bus is configured, to every other instance.
type ProgressNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus redisclient.ProgressBus
}

func NewProgressNotifier(log *logger.Logger, hub *sse.Hub, bus redisclient.ProgressBus) *ProgressNotifier {
	return &ProgressNotifier{
		log: log.With("service", "ProgressNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *ProgressNotifier) JobProgress(userID uuid.UUID, snap batch.Snapshot) {
	event := sse.EventJobProgress
	if !snap.IsGenerating {
		event = sse.EventJobFinished
	}
	msg := sse.Message{
		Channel: sse.JobChannel(snap.ID),
		Event:   event,
		Data:    snap,
	}

	n.hub.Broadcast(msg)

	// The batch loop must never wait on redis; publish off the caller's
	// goroutine and drop on failure like the hub does.
	if n.bus != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := n.bus.Publish(ctx, msg); err != nil {
				n.log.Warn("Failed publishing job progress to redis", "jobID", snap.ID, "error", err)
			}
		}()
	}
}

// StartBusForwarder re-broadcasts progress arriving from other instances
// to this instance's SSE subscribers.
func (n *ProgressNotifier) StartBusForwarder(ctx context.Context) error {
	if n.bus == nil {
		return nil
	}
	return n.bus.StartForwarder(ctx, func(m sse.Message) {
		n.hub.Broadcast(m)
	})
}

var _ batch.Notifier = (*ProgressNotifier)(nil)
