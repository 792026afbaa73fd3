package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
	"github.com/oa-device/oaParkingMonitor/internal/core/storage"
)

// binTables maps each granularity to its table. Table names reach the SQL
// templates only through this map, never from request input.
var binTables = map[coreagg.Granularity]string{
	coreagg.GranularityHour:  "bins_hour",
	coreagg.GranularityDay:   "bins_day",
	coreagg.GranularityWeek:  "bins_week",
	coreagg.GranularityMonth: "bins_month",
	coreagg.GranularityYear:  "bins_year",
}

func binTable(g coreagg.Granularity) (string, error) {
	table, ok := binTables[g]
	if !ok {
		return "", fmt.Errorf("unknown bin granularity %q", g)
	}
	return table, nil
}

// BinAdapter implements aggregation.BinStore on the connection owned by
// Adapter. One granularity maps to one table; only the hour table carries the
// aggregated_ids membership column, so hour rows scan and write differently.
type BinAdapter struct {
	db *sql.DB
}

// NewBinAdapter creates a new BinAdapter sharing the given connection.
func NewBinAdapter(db *sql.DB) *BinAdapter {
	return &BinAdapter{db: db}
}

// RetrieveStartingAt fetches all bins of one granularity whose bucket starts
// at or after from (epoch ms), ordered by start_ts ASC. The runner calls this
// with a widened watermark so bins straddling the resume point are re-read.
func (a *BinAdapter) RetrieveStartingAt(ctx context.Context, granularity coreagg.Granularity, from int64) ([]*coreagg.Bin, error) {
	table, err := binTable(granularity)
	if err != nil {
		return nil, err
	}

	withIDs := granularity == coreagg.GranularityHour
	columns := binColumns
	if withIDs {
		columns = hourBinColumns
	}

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(queryRetrieveBinsTemplate, columns, table), from)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s bins: %w", granularity, err)
	}
	defer rows.Close()

	return collectBins(rows, withIDs, granularity)
}

// Query fetches bins matching the filter for the retrieval API.
// Results are ordered by start_ts ASC and capped at the filter limit
// (defaultQueryLimit when unset).
func (a *BinAdapter) Query(ctx context.Context, granularity coreagg.Granularity, filter storage.BinFilter) ([]*coreagg.Bin, error) {
	table, err := binTable(granularity)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	withIDs := granularity == coreagg.GranularityHour
	columns := binColumns
	if withIDs {
		columns = hourBinColumns
	}

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(queryFilterBinsTemplate, columns, table),
		textArray(filter.CameraIDs),
		textArray(filter.SiteIDs),
		textArray(filter.ZoneIDs),
		filter.StartTs,
		filter.EndTs,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s bins: %w", granularity, err)
	}
	defer rows.Close()

	return collectBins(rows, withIDs, granularity)
}

func collectBins(rows *sql.Rows, withAggregatedIDs bool, granularity coreagg.Granularity) ([]*coreagg.Bin, error) {
	var bins []*coreagg.Bin
	for rows.Next() {
		bin, err := scanBinRow(rows, withAggregatedIDs)
		if err != nil {
			return nil, err
		}
		bins = append(bins, bin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s bins: %w", granularity, err)
	}
	return bins, nil
}

// UpsertBatch writes every bin of one granularity in a single transaction.
// Rows are replaced whole: the runner is the only writer, and it always
// persists the version it just folded, so statistical columns never merge
// in SQL.
func (a *BinAdapter) UpsertBatch(ctx context.Context, granularity coreagg.Granularity, bins []*coreagg.Bin) error {
	if len(bins) == 0 {
		return nil
	}

	table, err := binTable(granularity)
	if err != nil {
		return err
	}

	withIDs := granularity == coreagg.GranularityHour
	query := fmt.Sprintf(queryUpsertBinTemplate, table)
	if withIDs {
		query = fmt.Sprintf(queryUpsertHourBinTemplate, table)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %s bins: begin tx: %w", granularity, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert %s bins: prepare: %w", granularity, err)
	}
	defer stmt.Close()

	for _, bin := range bins {
		args := []interface{}{
			bin.ID,
			string(bin.BinSize),
			bin.CameraID,
			bin.CustomerID,
			bin.SiteID,
			bin.ZoneID,
			bin.Timezone,
			bin.StartTs,
			bin.EndTs,
			bin.MidTs,
			bin.StartISO,
			bin.EndISO,
			bin.AggregatedNumber,
			bin.SumOccupiedSpaces,
			bin.SumTotalSpaces,
			bin.MinOccupiedSpaces,
			bin.MaxOccupiedSpaces,
			bin.MinTotalSpaces,
			bin.MaxTotalSpaces,
			bin.MeanOccupiedSpaces,
			bin.MeanTotalSpaces,
			bin.OccupationRate,
		}
		if withIDs {
			ids := bin.AggregatedIDs
			if ids == nil {
				ids = []string{}
			}
			args = append(args, pq.Array(ids))
		}
		args = append(args, bin.UpdatedAt)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert %s bin %s: %w", granularity, bin.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert %s bins: commit: %w", granularity, err)
	}

	slog.Debug("[BinAdapter] Upserted bins",
		"granularity", string(granularity),
		"count", len(bins))
	return nil
}
