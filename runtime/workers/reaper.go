package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-relay/observability"
	"chat-relay/services"
)

// ReaperWorker periodically evicts participants that stopped signaling
// liveness and records a departure notice for each one. It writes through the
// same registry and message-store contracts the request path uses.
type ReaperWorker struct {
	registry      services.IRegistry
	messages      services.IMessageStore
	stats         *observability.RelayStats
	tickPeriod    time.Duration
	idleThreshold time.Duration
	log           *slog.Logger
}

func NewReaperWorker(
	registry services.IRegistry,
	messages services.IMessageStore,
	stats *observability.RelayStats,
	tickPeriod, idleThreshold time.Duration,
	log *slog.Logger,
) *ReaperWorker {
	return &ReaperWorker{
		registry:      registry,
		messages:      messages,
		stats:         stats,
		tickPeriod:    tickPeriod,
		idleThreshold: idleThreshold,
		log:           log,
	}
}

// Run loops between idle and sweeping until the context is canceled. A failed
// sweep is logged and retried on the next tick, never fatal; the selection
// predicate is re-evaluated fresh each time, so an interrupted sweep simply
// resumes full correctness on the next one.
func (w *ReaperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting reaper", "tick", w.tickPeriod, "idle_threshold", w.idleThreshold)
	ticker := time.NewTicker(w.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep evicts the idle set and records departures best-effort: one failed
// notice must not prevent the notices for the other evicted participants.
func (w *ReaperWorker) sweep() {
	evicted, err := w.registry.EvictIdle(w.idleThreshold)
	if err != nil {
		w.stats.SweepFailures.Add(1)
		w.log.Error("Sweep failed, will retry next tick", "error", err)
		return
	}

	for _, p := range evicted {
		if _, err := w.messages.RecordDeparture(p.Name); err != nil {
			w.stats.SweepFailures.Add(1)
			w.log.Error("Failed to record departure notice", "participant", p.Name, "error", err)
		}
	}
}
