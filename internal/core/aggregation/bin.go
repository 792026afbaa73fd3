package aggregation

import (
	"fmt"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	"github.com/shopspring/decimal"
)

// Bin is one statistical bucket of detections for a single camera and
// granularity. Bins are mutated in place by folds and persisted whole;
// they are never split or rewritten from scratch.
type Bin struct {
	// ID is deterministic: cameraId + granularity + bucket start. Re-running
	// aggregation over the same data locates the same bin instead of creating
	// a sibling.
	ID      string      `json:"id"`
	BinSize Granularity `json:"binSize"`

	CameraID   string `json:"cameraId"`
	CustomerID string `json:"customerId"`
	SiteID     string `json:"siteId"`
	ZoneID     string `json:"zoneId"`
	Timezone   string `json:"timezone"`

	// Bucket boundaries in epoch milliseconds, computed in Timezone.
	// [StartTs, EndTs) is half-open; MidTs is the arithmetic midpoint.
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`
	MidTs   int64 `json:"midTs"`

	// Human-readable RFC3339 renderings of the boundaries in Timezone.
	StartISO string `json:"startISO"`
	EndISO   string `json:"endISO"`

	AggregatedNumber  int64 `json:"aggregatedNumber"`
	SumOccupiedSpaces int64 `json:"sumOccupiedSpaces"`
	SumTotalSpaces    int64 `json:"sumTotalSpaces"`
	MinOccupiedSpaces int64 `json:"minOccupiedSpaces"`
	MaxOccupiedSpaces int64 `json:"maxOccupiedSpaces"`
	MinTotalSpaces    int64 `json:"minTotalSpaces"`
	MaxTotalSpaces    int64 `json:"maxTotalSpaces"`

	// Derived values, recomputed from the sums and count on every fold.
	MeanOccupiedSpaces decimal.Decimal `json:"meanOccupiedSpaces"`
	MeanTotalSpaces    decimal.Decimal `json:"meanTotalSpaces"`
	OccupationRate     decimal.Decimal `json:"occupationRate"`

	// AggregatedIDs lists the raw detection ids folded into this bin, in fold
	// order. Hour bins only: this is the idempotency membership set. Coarser
	// bins merge already-deduplicated hour bins and never carry ids.
	AggregatedIDs []string `json:"aggregatedIds,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// BinID builds the deterministic bin identifier for a camera, granularity and
// bucket start (epoch ms).
func BinID(cameraID string, g Granularity, startTs int64) string {
	return fmt.Sprintf("%s:%s:%d", cameraID, g, startTs)
}

// newBin creates an empty bin for the bucket [start, end) with identity
// metadata frozen at creation. start and end must already be in the bin's
// own location so the ISO renderings carry the site's UTC offset.
func newBin(g Granularity, cameraID, customerID, siteID, zoneID, timezone string, start, end time.Time) *Bin {
	startTs := start.UnixMilli()
	endTs := end.UnixMilli()
	return &Bin{
		ID:         BinID(cameraID, g, startTs),
		BinSize:    g,
		CameraID:   cameraID,
		CustomerID: customerID,
		SiteID:     siteID,
		ZoneID:     zoneID,
		Timezone:   timezone,
		StartTs:    startTs,
		EndTs:      endTs,
		MidTs:      startTs + (endTs-startTs)/2,
		StartISO:   start.Format(time.RFC3339),
		EndISO:     end.Format(time.RFC3339),

		MeanOccupiedSpaces: decimal.Zero,
		MeanTotalSpaces:    decimal.Zero,
		OccupationRate:     decimal.Zero,
	}
}

// absorbDetection folds one raw observation into an hour bin.
// The caller is responsible for the id membership check; absorbing the same
// detection twice would double-count it everywhere downstream.
func (b *Bin) absorbDetection(d *v1.Detection, now time.Time) {
	occupied := int64(d.OccupiedSpaces)
	total := int64(d.TotalSpaces)

	if b.AggregatedNumber == 0 {
		b.MinOccupiedSpaces, b.MaxOccupiedSpaces = occupied, occupied
		b.MinTotalSpaces, b.MaxTotalSpaces = total, total
	} else {
		b.MinOccupiedSpaces = minInt64(b.MinOccupiedSpaces, occupied)
		b.MaxOccupiedSpaces = maxInt64(b.MaxOccupiedSpaces, occupied)
		b.MinTotalSpaces = minInt64(b.MinTotalSpaces, total)
		b.MaxTotalSpaces = maxInt64(b.MaxTotalSpaces, total)
	}

	b.AggregatedNumber++
	b.SumOccupiedSpaces += occupied
	b.SumTotalSpaces += total
	b.AggregatedIDs = append(b.AggregatedIDs, d.ID)
	b.recompute()
	b.UpdatedAt = now
}

// absorbLower merges a lower-granularity bin into this bin. Count and sum
// take only the gains the lower bin made during the current aggregate call:
// its pre-existing totals were already merged by the run that produced them.
// Min/max merge against the lower bin's full extremes, which is idempotent.
func (b *Bin) absorbLower(lower *Bin, gainCount, gainSumOccupied, gainSumTotal int64, now time.Time) {
	if b.AggregatedNumber == 0 {
		b.MinOccupiedSpaces, b.MaxOccupiedSpaces = lower.MinOccupiedSpaces, lower.MaxOccupiedSpaces
		b.MinTotalSpaces, b.MaxTotalSpaces = lower.MinTotalSpaces, lower.MaxTotalSpaces
	} else {
		b.MinOccupiedSpaces = minInt64(b.MinOccupiedSpaces, lower.MinOccupiedSpaces)
		b.MaxOccupiedSpaces = maxInt64(b.MaxOccupiedSpaces, lower.MaxOccupiedSpaces)
		b.MinTotalSpaces = minInt64(b.MinTotalSpaces, lower.MinTotalSpaces)
		b.MaxTotalSpaces = maxInt64(b.MaxTotalSpaces, lower.MaxTotalSpaces)
	}

	b.AggregatedNumber += gainCount
	b.SumOccupiedSpaces += gainSumOccupied
	b.SumTotalSpaces += gainSumTotal
	b.recompute()
	b.UpdatedAt = now
}

// recompute refreshes the derived mean and rate values from the sums and
// count. They are never stored independently of their inputs.
func (b *Bin) recompute() {
	if b.AggregatedNumber <= 0 {
		b.MeanOccupiedSpaces = decimal.Zero
		b.MeanTotalSpaces = decimal.Zero
		b.OccupationRate = decimal.Zero
		return
	}
	b.MeanOccupiedSpaces = MeanOf(b.SumOccupiedSpaces, b.AggregatedNumber)
	b.MeanTotalSpaces = MeanOf(b.SumTotalSpaces, b.AggregatedNumber)
	b.OccupationRate = OccupationRate(b.MeanOccupiedSpaces, b.MeanTotalSpaces)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
