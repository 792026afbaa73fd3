package postgres

import (
	"fmt"

	"github.com/lib/pq"
	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDetectionRow scans a database row into a Detection struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanDetectionRow(row scanner) (*v1.Detection, error) {
	var d v1.Detection

	err := row.Scan(
		&d.ID,
		&d.Ts,
		&d.CustomerID,
		&d.SiteID,
		&d.ZoneID,
		&d.CameraID,
		&d.OccupiedSpaces,
		&d.TotalSpaces,
		&d.Timezone,
		&d.IngestedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan detection row: %w", err)
	}

	return &d, nil
}

const binColumns = `id, bin_size, camera_id, customer_id, site_id, zone_id, timezone,
			start_ts, end_ts, mid_ts, start_iso, end_iso,
			aggregated_number, sum_occupied_spaces, sum_total_spaces,
			min_occupied_spaces, max_occupied_spaces, min_total_spaces, max_total_spaces,
			mean_occupied_spaces, mean_total_spaces, occupation_rate, updated_at`

const hourBinColumns = `id, bin_size, camera_id, customer_id, site_id, zone_id, timezone,
			start_ts, end_ts, mid_ts, start_iso, end_iso,
			aggregated_number, sum_occupied_spaces, sum_total_spaces,
			min_occupied_spaces, max_occupied_spaces, min_total_spaces, max_total_spaces,
			mean_occupied_spaces, mean_total_spaces, occupation_rate, aggregated_ids, updated_at`

// scanBinRow scans a database row into a Bin struct. withAggregatedIDs selects
// the hour-table shape, whose rows carry the detection id membership set.
// NUMERIC columns arrive as strings and are parsed into decimals.
func scanBinRow(row scanner, withAggregatedIDs bool) (*coreagg.Bin, error) {
	var b coreagg.Bin
	var binSize string
	var meanOccupied, meanTotal, rate string

	dest := []interface{}{
		&b.ID,
		&binSize,
		&b.CameraID,
		&b.CustomerID,
		&b.SiteID,
		&b.ZoneID,
		&b.Timezone,
		&b.StartTs,
		&b.EndTs,
		&b.MidTs,
		&b.StartISO,
		&b.EndISO,
		&b.AggregatedNumber,
		&b.SumOccupiedSpaces,
		&b.SumTotalSpaces,
		&b.MinOccupiedSpaces,
		&b.MaxOccupiedSpaces,
		&b.MinTotalSpaces,
		&b.MaxTotalSpaces,
		&meanOccupied,
		&meanTotal,
		&rate,
	}
	if withAggregatedIDs {
		dest = append(dest, pq.Array(&b.AggregatedIDs))
	}
	dest = append(dest, &b.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan bin row: %w", err)
	}

	b.BinSize = coreagg.Granularity(binSize)

	var err error
	if b.MeanOccupiedSpaces, err = decimal.NewFromString(meanOccupied); err != nil {
		return nil, fmt.Errorf("parse mean_occupied_spaces %q: %w", meanOccupied, err)
	}
	if b.MeanTotalSpaces, err = decimal.NewFromString(meanTotal); err != nil {
		return nil, fmt.Errorf("parse mean_total_spaces %q: %w", meanTotal, err)
	}
	if b.OccupationRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse occupation_rate %q: %w", rate, err)
	}

	return &b, nil
}

// textArray converts a filter slice into a pq array parameter, mapping an
// empty slice to SQL NULL so the query treats the filter as absent.
func textArray(values []string) interface{} {
	if len(values) == 0 {
		return pq.Array([]string(nil))
	}
	return pq.Array(values)
}
