package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Warmer refills the cached transports of one department.
type Warmer interface {
	Warm(ctx context.Context, departmentID string) (int, error)
}

// runPass warms every department once and returns how many failed. One
// department failing does not stop the others.
func runPass(ctx context.Context, w Warmer, departments []string, logger *zap.Logger) int {
	failed := 0
	for _, dept := range departments {
		if ctx.Err() != nil {
			return failed
		}
		start := time.Now()
		n, err := w.Warm(ctx, dept)
		if err != nil {
			failed++
			logger.Error("Failed to warm transports",
				zap.String("department_id", dept),
				zap.Error(err),
			)
			continue
		}
		logger.Info("Warmed transports",
			zap.String("department_id", dept),
			zap.Int("count", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return failed
}

// run warms immediately and then on every tick until ctx is done. A
// non-positive interval runs a single pass.
func run(ctx context.Context, w Warmer, departments []string, interval time.Duration, logger *zap.Logger) {
	runPass(ctx, w, departments, logger)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runPass(ctx, w, departments, logger)
		}
	}
}
