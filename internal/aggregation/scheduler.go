package aggregation

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler triggers aggregation runs on a periodic interval.
// It is stateless between ticks: each run independently reads the watermark,
// so a missed or failed tick is repaired by the next one.
type Scheduler struct {
	interval time.Duration
	runner   *Runner
}

// NewScheduler creates a periodic driver for the given runner.
func NewScheduler(interval time.Duration, runner *Runner) *Scheduler {
	if runner == nil {
		panic("aggregation: runner must not be nil")
	}
	return &Scheduler{
		interval: interval,
		runner:   runner,
	}
}

// Start begins periodic aggregation. Runs until the context is cancelled,
// then performs one final pass so shutdown does not strand folded-but-unsaved
// detections beyond the next restart.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting aggregation scheduler", "interval", s.interval)

	// Catch up with any backlog before the first tick.
	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			slog.Info("[Scheduler] Running final pass before shutdown...")
			s.runOnce(shutdownCtx)
			slog.Info("[Scheduler] Final pass complete")

			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			slog.Debug("[Scheduler] Skipping tick, a run is already in progress")
			return
		}
		slog.Error("[Scheduler] Aggregation run failed", "error", err)
		return
	}

	if result.Status == StatusSuccess {
		slog.Info("[Scheduler] Run finished",
			"aggregated", result.AggregatedCount,
			"bins_updated", result.BinsUpdatedByLevel.Total(),
		)
	}
}
