package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"grindhouse/scoreboard/internal/logging"
)

// RoundExpirer ends rounds whose end time has passed.
type RoundExpirer interface {
	ExpireOverdueRounds(ctx context.Context, now time.Time) (int, error)
}

// RoundExpiryWorker periodically closes timed rounds nobody ended by hand
type RoundExpiryWorker struct {
	rounds   RoundExpirer
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewRoundExpiryWorker creates a new round expiry worker
func NewRoundExpiryWorker(rounds RoundExpirer, interval time.Duration) *RoundExpiryWorker {
	return &RoundExpiryWorker{
		rounds:   rounds,
		interval: interval,
		timeout:  interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logging.With("worker", "round_expiry"),
	}
}

// Start sweeps once immediately and then on every tick until ctx is cancelled
func (w *RoundExpiryWorker) Start(ctx context.Context) {
	w.log.Infow("Round expiry worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Round expiry worker shutting down")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RoundExpiryWorker) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ended, err := w.rounds.ExpireOverdueRounds(ctx, w.now())
	if err != nil {
		w.log.Errorw("Round expiry sweep failed", "error", err.Error())
		return
	}
	if ended > 0 {
		w.log.Infow("Expired overdue rounds", "count", ended)
	}
}
