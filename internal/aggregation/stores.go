package aggregation

import (
	"context"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
)

// WatermarkKey is the watermarks row the runner checkpoints under.
const WatermarkKey = "last_detections_aggregation"

// DetectionSource is the read side of raw detection persistence the runner depends on.
type DetectionSource interface {
	// RetrieveSince returns detections with ts >= from (epoch ms), ordered by ts ASC.
	// There is no upper bound: rows stamped in the future are re-read harmlessly
	// because hour bins deduplicate by detection id.
	RetrieveSince(ctx context.Context, from int64) ([]*v1.Detection, error)

	// DeleteBefore removes raw detections with ts < cutoff and reports how many
	// rows were dropped. Bins derived from them are never touched.
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// BinStore persists statistical bins, one table per granularity.
//
// Contract: UpsertBatch replaces whole rows by bin id. That is safe because the
// runner is the single writer and every bin it persists was either created this
// run or seeded from this store within the same run.
type BinStore interface {
	// RetrieveStartingAt returns bins of one granularity with start_ts >= from,
	// ordered by start_ts ASC.
	RetrieveStartingAt(ctx context.Context, granularity Granularity, from int64) ([]*Bin, error)

	// UpsertBatch inserts or replaces the given bins of one granularity in a
	// single transaction.
	UpsertBatch(ctx context.Context, granularity Granularity, bins []*Bin) error
}

// WatermarkStore tracks how far aggregation has progressed.
//
// Contract: a watermark value T means every detection with ts < T has been
// folded into bins, except rows that arrived after the last run with an earlier
// ts, which rewind the value at ingest time. A missing row reads as 0, meaning
// fold from the beginning.
type WatermarkStore interface {
	// Read returns the stored watermark for key, or 0 when no row exists.
	Read(ctx context.Context, key string) (int64, error)

	// Advance sets key to value only while the stored value still equals
	// expected. Returns false without error when the guard fails, which means
	// an ingest-time rewind won the race and must be preserved.
	Advance(ctx context.Context, key string, value, expected int64) (bool, error)
}
