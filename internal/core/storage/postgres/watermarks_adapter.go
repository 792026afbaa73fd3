package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// WatermarkAdapter implements aggregation.WatermarkStore on the connection
// owned by Adapter.
type WatermarkAdapter struct {
	db *sql.DB
}

// NewWatermarkAdapter creates a new WatermarkAdapter sharing the given connection.
func NewWatermarkAdapter(db *sql.DB) *WatermarkAdapter {
	return &WatermarkAdapter{db: db}
}

// Read returns the watermark value for key.
// Returns 0 if no row exists yet (meaning "aggregate from the beginning").
func (a *WatermarkAdapter) Read(ctx context.Context, key string) (int64, error) {
	var value int64
	err := a.db.QueryRowContext(ctx, queryReadWatermark, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read watermark %s: %w", key, err)
	}
	return value, nil
}

// Advance writes value to key only if the stored value still equals expected.
// Ingestion rewinds watermarks when late detections arrive; if that happened
// while a run was in flight, the stored value no longer matches and the
// advance is skipped so the next run resumes from the rewound position.
// Returns whether the write happened.
func (a *WatermarkAdapter) Advance(ctx context.Context, key string, value, expected int64) (bool, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("advance watermark: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Lock the row so a concurrent ingest rewind serializes against this
	// check-then-write.
	var current int64
	err = tx.QueryRowContext(ctx, querySelectWatermarkForUpdate, key).Scan(&current)
	if err == sql.ErrNoRows {
		// No row reads as 0, so any other expectation is already stale.
		if expected != 0 {
			return false, nil
		}

		if _, err := tx.ExecContext(ctx, queryInitWatermarkRow, key, time.Now().UTC()); err != nil {
			return false, fmt.Errorf("advance watermark: init row: %w", err)
		}

		err = tx.QueryRowContext(ctx, querySelectWatermarkForUpdate, key).Scan(&current)
		if err != nil {
			return false, fmt.Errorf("advance watermark: read initialized row for update: %w", err)
		}
	} else if err != nil {
		return false, fmt.Errorf("advance watermark: read for update: %w", err)
	}

	if current != expected {
		slog.Warn("[WatermarkAdapter] Skipping advance, watermark moved",
			"key", key,
			"expected", expected,
			"current", current,
			"value", value)
		return false, nil
	}

	result, err := tx.ExecContext(ctx, queryWriteWatermark, key, value, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("advance watermark: write: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance watermark: check write: %w", err)
	}
	if rowsAffected == 0 {
		return false, fmt.Errorf("advance watermark: row missing (key=%s)", key)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("advance watermark: commit: %w", err)
	}

	slog.Debug("[WatermarkAdapter] Advanced watermark",
		"key", key,
		"from", expected,
		"to", value)
	return true, nil
}
