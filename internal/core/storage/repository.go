package storage

import (
	"context"
	"errors"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
)

// ErrDuplicate indicates a detection with the same id already exists.
var ErrDuplicate = errors.New("detection already exists")

// DetectionFilter narrows a raw detection query. Zero values mean no filter.
type DetectionFilter struct {
	IDs       []string
	SiteIDs   []string
	ZoneIDs   []string
	CameraIDs []string
	StartTs   int64 // inclusive, epoch ms; 0 = unbounded
	EndTs     int64 // inclusive, epoch ms; 0 = unbounded
	Limit     int
}

// BinFilter narrows a bin query within one granularity table.
type BinFilter struct {
	CameraIDs []string
	SiteIDs   []string
	ZoneIDs   []string
	StartTs   int64 // inclusive on start_ts, epoch ms; 0 = unbounded
	EndTs     int64 // inclusive on start_ts, epoch ms; 0 = unbounded
	Limit     int
}

// DetectionStore is the persistence port for raw detections.
type DetectionStore interface {
	// SaveDetection persists one detection and, in the same transaction,
	// rewinds the aggregation watermark down to its ts so the next run folds
	// it. Returns ErrDuplicate when the id already exists.
	SaveDetection(ctx context.Context, detection *v1.Detection) error

	// SaveBatch persists many detections in one transaction, skipping ids
	// that already exist, and rewinds the watermark to the oldest newly
	// inserted ts. Returns the number of rows actually inserted.
	SaveBatch(ctx context.Context, detections []*v1.Detection) (int, error)

	// RetrieveSince returns detections with ts >= from, ordered by ts ASC.
	RetrieveSince(ctx context.Context, from int64) ([]*v1.Detection, error)

	// Query returns detections matching the filter, ordered by ts ASC.
	Query(ctx context.Context, filter DetectionFilter) ([]*v1.Detection, error)

	// DeleteBefore removes detections with ts < cutoff, returning the count.
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// BinReader is the read port for persisted bins, one granularity per call.
type BinReader interface {
	// Query returns bins of one granularity matching the filter, ordered by
	// start_ts ASC. AggregatedIDs come back only on hour bins.
	Query(ctx context.Context, granularity coreagg.Granularity, filter BinFilter) ([]*coreagg.Bin, error)
}
