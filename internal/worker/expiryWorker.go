// Package worker holds background jobs that run next to the transports.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Repo is the slice of the store the sweeper needs.
type Repo interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

const sweepTimeout = 3 * time.Second

// ExpiryWorker periodically deactivates urls whose expiration date passed.
type ExpiryWorker struct {
	logger   *zap.Logger
	repo     Repo
	interval time.Duration
	now      func() time.Time
}

func NewExpiryWorker(logger *zap.Logger, repo Repo, interval time.Duration) *ExpiryWorker {
	return &ExpiryWorker{
		logger:   logger,
		repo:     repo,
		interval: interval,
		now:      time.Now,
	}
}

// Sweep runs one deactivation pass and returns the number of rows changed.
func (w *ExpiryWorker) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := w.repo.DeactivateExpired(ctx, w.now().UTC())
	if err != nil {
		w.logger.Error("Cannot deactivate expired urls", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		w.logger.Info("Expired urls deactivated", zap.Int64("count", n))
	}
	return n, nil
}

// Run sweeps every interval until ctx is done. Failed sweeps are retried on
// the next tick.
func (w *ExpiryWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("Expiry sweep disabled")
		return
	}

	w.logger.Info("Expiry sweep started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Expiry sweep stopped")
			return
		case <-ticker.C:
			_, _ = w.Sweep(ctx)
		}
	}
}
