package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maxRetryInterval = time.Minute

// Step is one idempotent schema task, such as creating a table.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Bootstrap runs steps in order, retrying the failing step with a doubling
// delay until it succeeds or ctx ends. It returns ctx.Err() in the latter case.
func Bootstrap(ctx context.Context, logger *zap.Logger, interval time.Duration, steps ...Step) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		delay := interval
		for attempt := 1; ; attempt++ {
			err := step.Run(ctx)
			if err == nil {
				logger.Info("database step done", zap.String("step", step.Name), zap.Int("attempt", attempt))
				break
			}
			logger.Warn("database step failed, retrying",
				zap.String("step", step.Name),
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = min(delay*2, maxRetryInterval)
		}
	}
	return nil
}
