package retrieval

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
	"github.com/oa-device/oaParkingMonitor/internal/core/storage"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid retrieval query")

// maxQueryLimit caps a caller-supplied limit. A zero limit lets the store
// apply its own default page size.
const maxQueryLimit = 10000

// Service implements the read API over raw detections and persisted bins.
type Service struct {
	detections storage.DetectionStore
	bins       storage.BinReader
}

func NewService(detections storage.DetectionStore, bins storage.BinReader) *Service {
	if detections == nil {
		panic("retrieval: detection store must not be nil")
	}
	if bins == nil {
		panic("retrieval: bin reader must not be nil")
	}
	return &Service{
		detections: detections,
		bins:       bins,
	}
}

// QueryDetections returns raw detections matching the query, ordered by ts.
func (s *Service) QueryDetections(ctx context.Context, q DetectionQuery) ([]*v1.Detection, error) {
	if err := validateWindow(q.Start, q.End, q.Limit); err != nil {
		return nil, err
	}

	detections, err := s.detections.Query(ctx, storage.DetectionFilter{
		IDs:       q.IDs,
		SiteIDs:   q.SiteIDs,
		ZoneIDs:   q.ZoneIDs,
		CameraIDs: q.CameraIDs,
		StartTs:   q.Start,
		EndTs:     q.End,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	return detections, nil
}

// QueryBinnedDetections fetches matching detections and folds them into
// ad-hoc epoch-aligned buckets of binMs milliseconds.
func (s *Service) QueryBinnedDetections(ctx context.Context, q DetectionQuery, binMs int64) ([]BinnedSummary, error) {
	if binMs <= 0 {
		return nil, invalidQueryf("bin must be a positive number of milliseconds")
	}

	detections, err := s.QueryDetections(ctx, q)
	if err != nil {
		return nil, err
	}
	return BinDetections(detections, binMs), nil
}

// QueryBins returns persisted bins of one granularity, ordered by start ts.
func (s *Service) QueryBins(ctx context.Context, granularity string, q BinQuery) ([]*coreagg.Bin, error) {
	g, err := coreagg.ParseGranularity(granularity)
	if err != nil {
		return nil, invalidQueryf("%s", err)
	}
	if err := validateWindow(q.Start, q.End, q.Limit); err != nil {
		return nil, err
	}

	bins, err := s.bins.Query(ctx, g, storage.BinFilter{
		CameraIDs: q.CameraIDs,
		SiteIDs:   q.SiteIDs,
		ZoneIDs:   q.ZoneIDs,
		StartTs:   q.Start,
		EndTs:     q.End,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s bins: %w", g, err)
	}
	return bins, nil
}

func validateWindow(start, end int64, limit int) error {
	if start < 0 || end < 0 {
		return invalidQueryf("start and end must not be negative")
	}
	// Both bounds are inclusive, so start == end is a valid single-instant window.
	if start != 0 && end != 0 && end < start {
		return invalidQueryf("end must not be before start")
	}
	if limit < 0 {
		return invalidQueryf("limit must not be negative")
	}
	if limit > maxQueryLimit {
		return invalidQueryf("limit must not exceed %d", maxQueryLimit)
	}
	return nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
