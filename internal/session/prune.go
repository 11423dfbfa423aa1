package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/insurx/insurx-web/internal/observability"
)

// Pruner deletes sessions that expired at or before now.
type Pruner interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// StartPruneWorker runs a background goroutine that deletes expired
// sessions every interval until ctx is done. The returned channel is closed
// when the goroutine exits. metrics may be nil.
func StartPruneWorker(ctx context.Context, p Pruner, clock clockwork.Clock, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	ticker := clock.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		logger.Info("Session prune worker started", "interval", interval)

		for {
			select {
			case <-ticker.Chan():
				PruneOnce(ctx, p, clock.Now(), metrics, logger)
			case <-ctx.Done():
				logger.Info("Session prune worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// PruneOnce deletes sessions expired at now and returns how many were removed.
func PruneOnce(ctx context.Context, p Pruner, now time.Time, metrics *observability.Metrics, logger *slog.Logger) int64 {
	n, err := p.DeleteExpiredSessions(ctx, now)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("Session prune interrupted by shutdown", "error", err)
			return 0
		}
		logger.Error("Session prune failed", "error", err)
		return 0
	}
	if n > 0 {
		logger.Info("Pruned expired sessions", "count", n)
		if metrics != nil {
			metrics.SessionsPruned.Add(float64(n))
		}
	}
	return n
}
