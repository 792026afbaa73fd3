package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	"golang.org/x/sync/errgroup"
)

// Run status tokens reported to the scheduler and the trigger API.
const (
	StatusSuccess         = "success"
	StatusNoNewDetections = "no new detections to aggregate"
	StatusError           = "error"
)

// ErrRunInProgress reports that another aggregation run currently holds the runner.
var ErrRunInProgress = errors.New("aggregation run already in progress")

// Result summarizes one aggregation run.
type Result struct {
	Status             string      `json:"status"`
	AggregatedCount    int         `json:"aggregatedCount"`
	BinsUpdatedByLevel LevelCounts `json:"binsUpdatedByLevel"`
}

// Lookbacks widen each granularity's bin fetch below the watermark so bins
// already straddling it are re-read complete instead of recreated.
type Lookbacks struct {
	Hour  time.Duration
	Day   time.Duration
	Week  time.Duration
	Month time.Duration
	Year  time.Duration
}

// DefaultLookbacks covers two full units of the next coarser granularity.
func DefaultLookbacks() Lookbacks {
	return Lookbacks{
		Hour:  2 * time.Hour,
		Day:   48 * time.Hour,
		Week:  14 * 24 * time.Hour,
		Month: 62 * 24 * time.Hour,
		Year:  744 * 24 * time.Hour,
	}
}

// For returns the lookback for g, falling back to the widest window so an
// unknown granularity can only over-read, never under-read.
func (l Lookbacks) For(g Granularity) time.Duration {
	switch g {
	case GranularityHour:
		return l.Hour
	case GranularityDay:
		return l.Day
	case GranularityWeek:
		return l.Week
	case GranularityMonth:
		return l.Month
	case GranularityYear:
		return l.Year
	default:
		return l.Year
	}
}

func (l Lookbacks) normalized() Lookbacks {
	n := l
	d := DefaultLookbacks()
	if n.Hour <= 0 {
		n.Hour = d.Hour
	}
	if n.Day <= 0 {
		n.Day = d.Day
	}
	if n.Week <= 0 {
		n.Week = d.Week
	}
	if n.Month <= 0 {
		n.Month = d.Month
	}
	if n.Year <= 0 {
		n.Year = d.Year
	}
	return n
}

// RunParameter controls one runner's throughput, re-read windows and retries.
type RunParameter struct {
	WorkerCount    int
	Lookbacks      Lookbacks
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// RetentionAge drops raw detections older than this after a successful
	// run. Zero disables the cleanup.
	RetentionAge time.Duration
}

// DefaultRunParameter returns safe defaults for scheduled processing.
// Retention stays disabled unless configured explicitly.
func DefaultRunParameter() RunParameter {
	return RunParameter{
		WorkerCount:    8,
		Lookbacks:      DefaultLookbacks(),
		RetryAttempts:  defaultRetryAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
}

func (p RunParameter) normalized() RunParameter {
	n := p
	if n.WorkerCount <= 0 {
		n.WorkerCount = DefaultRunParameter().WorkerCount
	}
	n.Lookbacks = n.Lookbacks.normalized()
	if n.RetryAttempts <= 0 {
		n.RetryAttempts = defaultRetryAttempts
	}
	if n.RetryBaseDelay <= 0 {
		n.RetryBaseDelay = defaultRetryBaseDelay
	}
	return n
}

// Runner folds new detections into statistical bins and advances the watermark.
// A single Runner serializes runs: starting one while another is in flight
// fails fast with ErrRunInProgress.
type Runner struct {
	detections DetectionSource
	bins       BinStore
	watermarks WatermarkStore
	aggregator *Aggregator
	parameter  RunParameter
	retry      retryPolicy

	mu sync.Mutex
}

// NewRunner wires an aggregation runner over its stores.
// Every store binding is required; a nil store is a wiring bug and panics
// before the runner can touch any data.
func NewRunner(detections DetectionSource, bins BinStore, watermarks WatermarkStore, parameter RunParameter) *Runner {
	if detections == nil {
		panic("aggregation: detection source must not be nil")
	}
	if bins == nil {
		panic("aggregation: bin store must not be nil")
	}
	if watermarks == nil {
		panic("aggregation: watermark store must not be nil")
	}

	parameter = parameter.normalized()
	return &Runner{
		detections: detections,
		bins:       bins,
		watermarks: watermarks,
		aggregator: NewAggregator(AggregatorParameter{WorkerCount: parameter.WorkerCount}),
		parameter:  parameter,
		retry:      retryPolicy{attempts: parameter.RetryAttempts, baseDelay: parameter.RetryBaseDelay},
	}
}

// Run executes one full aggregation pass: read watermark, fetch detections and
// straddling bins, fold, persist, advance the watermark.
//
// Any failure before the watermark advance leaves the watermark untouched, so
// the next invocation safely repeats the same window. Hour-level detection ids
// make the repeat idempotent.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.mu.TryLock() {
		return Result{Status: StatusError}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	started := time.Now().UTC()

	var watermark int64
	err := r.retry.do(ctx, "read watermark", func() error {
		var readErr error
		watermark, readErr = r.watermarks.Read(ctx, WatermarkKey)
		return readErr
	})
	if err != nil {
		return Result{Status: StatusError}, fmt.Errorf("read watermark: %w", err)
	}

	slog.Info("[AggregationRun] Starting run", "watermark", watermark)

	var detections []*v1.Detection
	err = r.retry.do(ctx, "retrieve detections", func() error {
		var retrieveErr error
		detections, retrieveErr = r.detections.RetrieveSince(ctx, watermark)
		return retrieveErr
	})
	if err != nil {
		return Result{Status: StatusError}, fmt.Errorf("retrieve detections: %w", err)
	}

	if len(detections) == 0 {
		slog.Info("[AggregationRun] No new detections to aggregate", "watermark", watermark)
		return Result{Status: StatusNoNewDetections}, nil
	}

	existing, err := r.fetchExistingBins(ctx, watermark)
	if err != nil {
		return Result{Status: StatusError}, err
	}

	sets, summary := r.aggregator.Aggregate(detections, existing)

	// Persist in rollup order so a partial failure leaves coarser levels
	// strictly behind finer ones, never ahead.
	for _, g := range Granularities {
		bins := sets.Of(g)
		if len(bins) == 0 {
			continue
		}
		granularity := g
		err = r.retry.do(ctx, fmt.Sprintf("upsert %s bins", granularity), func() error {
			return r.bins.UpsertBatch(ctx, granularity, bins)
		})
		if err != nil {
			return Result{Status: StatusError}, fmt.Errorf("upsert %s bins: %w", granularity, err)
		}
	}

	startedTs := started.UnixMilli()
	var advanced bool
	err = r.retry.do(ctx, "advance watermark", func() error {
		var advanceErr error
		advanced, advanceErr = r.watermarks.Advance(ctx, WatermarkKey, startedTs, watermark)
		return advanceErr
	})
	if err != nil {
		return Result{Status: StatusError}, fmt.Errorf("advance watermark: %w", err)
	}
	if !advanced {
		// A detection with an older ts arrived mid-run and rewound the
		// watermark. Keep the rewound value so the next run picks it up.
		slog.Warn("[AggregationRun] Watermark moved during run, skipping advance", "expected", watermark)
	} else {
		r.cleanupExpiredDetections(ctx, startedTs)
	}

	slog.Info("[AggregationRun] Run complete",
		"aggregated", summary.AggregatedCount,
		"skipped", summary.SkippedCount,
		"bins_updated", summary.UpdatedBins.Total(),
		"watermark_advanced", advanced,
		"duration", time.Since(started),
	)

	return Result{
		Status:             StatusSuccess,
		AggregatedCount:    summary.AggregatedCount,
		BinsUpdatedByLevel: summary.UpdatedBins,
	}, nil
}

// fetchExistingBins loads the bins each granularity may need to merge into,
// widened below the watermark by the configured lookback. The five reads are
// independent and run concurrently.
func (r *Runner) fetchExistingBins(ctx context.Context, watermark int64) (BinSets, error) {
	byLevel := make([][]*Bin, len(Granularities))

	eg, ctx := errgroup.WithContext(ctx)
	for i, g := range Granularities {
		i, g := i, g
		eg.Go(func() error {
			from := watermark - r.parameter.Lookbacks.For(g).Milliseconds()
			if from < 0 {
				from = 0
			}

			var bins []*Bin
			err := r.retry.do(ctx, fmt.Sprintf("retrieve %s bins", g), func() error {
				var retrieveErr error
				bins, retrieveErr = r.bins.RetrieveStartingAt(ctx, g, from)
				return retrieveErr
			})
			if err != nil {
				return fmt.Errorf("retrieve %s bins: %w", g, err)
			}
			byLevel[i] = bins
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return BinSets{}, err
	}

	sets := BinSets{}
	for i, g := range Granularities {
		switch g {
		case GranularityHour:
			sets.Hour = byLevel[i]
		case GranularityDay:
			sets.Day = byLevel[i]
		case GranularityWeek:
			sets.Week = byLevel[i]
		case GranularityMonth:
			sets.Month = byLevel[i]
		case GranularityYear:
			sets.Year = byLevel[i]
		}
	}
	return sets, nil
}

// cleanupExpiredDetections drops raw detections older than the retention age.
// The cutoff never passes the watermark, so unaggregated rows survive.
// Cleanup failures are logged and swallowed: the bins are already durable.
func (r *Runner) cleanupExpiredDetections(ctx context.Context, watermark int64) {
	if r.parameter.RetentionAge <= 0 {
		return
	}

	cutoff := time.Now().UTC().Add(-r.parameter.RetentionAge).UnixMilli()
	if watermark < cutoff {
		cutoff = watermark
	}
	if cutoff <= 0 {
		return
	}

	var dropped int64
	err := r.retry.do(ctx, "delete expired detections", func() error {
		var deleteErr error
		dropped, deleteErr = r.detections.DeleteBefore(ctx, cutoff)
		return deleteErr
	})
	if err != nil {
		slog.Error("[AggregationRun] Raw detection cleanup failed", "error", err, "cutoff", cutoff)
		return
	}
	if dropped > 0 {
		slog.Info("[AggregationRun] Dropped expired raw detections", "count", dropped, "cutoff", cutoff)
	}
}
