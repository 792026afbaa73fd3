package retrieval

import (
	"github.com/shopspring/decimal"
)

// DetectionQuery carries the normalized filters of GET /v1/detections.
// Nil slices disable that filter; zero timestamps leave the range unbounded.
type DetectionQuery struct {
	IDs       []string
	SiteIDs   []string
	ZoneIDs   []string
	CameraIDs []string
	Start     int64 // inclusive, epoch ms
	End       int64 // inclusive, epoch ms
	Limit     int
}

// BinQuery carries the normalized filters of GET /v1/bins/:granularity.
// The inclusive timestamp range applies to the bin start.
type BinQuery struct {
	CameraIDs []string
	SiteIDs   []string
	ZoneIDs   []string
	Start     int64
	End       int64
	Limit     int
}

// BinnedSummary is one ad-hoc bucket of raw detections, produced on the fly
// when a caller passes a bin width instead of reading persisted bins. Ts is
// the bucket midpoint, which is what occupancy charts plot.
type BinnedSummary struct {
	Ts                 int64           `json:"ts"`
	MinOccupiedSpaces  int64           `json:"minOccupiedSpaces"`
	MeanOccupiedSpaces decimal.Decimal `json:"meanOccupiedSpaces"`
	MaxOccupiedSpaces  int64           `json:"maxOccupiedSpaces"`
	MinTotalSpaces     int64           `json:"minTotalSpaces"`
	MeanTotalSpaces    decimal.Decimal `json:"meanTotalSpaces"`
	MaxTotalSpaces     int64           `json:"maxTotalSpaces"`
	NumberOfDetections int64           `json:"numberOfDetections"`
	DetectionIDs       []string        `json:"detectionIds"`
}
