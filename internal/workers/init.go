package workers

import (
	"context"
	"time"
)

type WorkersContainer struct {
	RoundExpiry *RoundExpiryWorker
}

// InitWorkers builds the background workers. Run blocks until ctx is cancelled.
func InitWorkers(rounds RoundExpirer, sweepInterval time.Duration) *WorkersContainer {
	return &WorkersContainer{
		RoundExpiry: NewRoundExpiryWorker(rounds, sweepInterval),
	}
}

func (c *WorkersContainer) Run(ctx context.Context) error {
	c.RoundExpiry.Start(ctx)
	return nil
}
