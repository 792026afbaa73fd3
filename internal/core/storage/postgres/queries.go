package postgres

// SQL queries for detection, bin and watermark storage operations

const (
	// querySaveDetection inserts one raw detection keyed by its client-supplied id.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates, which
	// maps to storage.ErrDuplicate.
	querySaveDetection = `
		INSERT INTO detections (
			id, ts, customer_id, site_id, zone_id, camera_id,
			occupied_spaces, total_spaces, timezone, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING ts
	`

	// queryRewindWatermark pulls the aggregation watermark down to the ts of a
	// newly inserted detection. UPDATE only: a missing row already reads as 0,
	// which covers everything, so inserting one here would be wrong.
	// Runs in the same transaction as the detection insert.
	queryRewindWatermark = `
		UPDATE watermarks
		SET value = LEAST(value, $2), updated_at = $3
		WHERE id = $1
	`

	// queryRetrieveDetectionsSince fetches every detection at or after a watermark.
	// No upper bound and no row limit: the aggregation watermark contract requires
	// one run to cover all rows >= the watermark it read.
	queryRetrieveDetectionsSince = `
		SELECT
			id, ts, customer_id, site_id, zone_id, camera_id,
			occupied_spaces, total_spaces, timezone, ingested_at
		FROM detections
		WHERE ts >= $1
		ORDER BY ts ASC
	`

	// queryFilterDetections serves the retrieval API. Array parameters bind via
	// pq.Array; a NULL array disables that filter, a zero bound disables the
	// corresponding ts comparison. Both bounds are inclusive.
	queryFilterDetections = `
		SELECT
			id, ts, customer_id, site_id, zone_id, camera_id,
			occupied_spaces, total_spaces, timezone, ingested_at
		FROM detections
		WHERE ($1::text[] IS NULL OR id = ANY($1))
		  AND ($2::text[] IS NULL OR site_id = ANY($2))
		  AND ($3::text[] IS NULL OR zone_id = ANY($3))
		  AND ($4::text[] IS NULL OR camera_id = ANY($4))
		  AND ($5::bigint = 0 OR ts >= $5)
		  AND ($6::bigint = 0 OR ts <= $6)
		ORDER BY ts ASC
		LIMIT $7
	`

	// queryDeleteDetectionsBefore drops raw detections older than the retention
	// cutoff. Bins derived from them are never touched.
	queryDeleteDetectionsBefore = `DELETE FROM detections WHERE ts < $1`

	// queryReadWatermark reads one watermark row; absence means 0.
	queryReadWatermark = `SELECT value FROM watermarks WHERE id = $1`

	// querySelectWatermarkForUpdate locks the watermark row for a conditional
	// advance so a concurrent ingest rewind serializes against it.
	querySelectWatermarkForUpdate = `
		SELECT value
		FROM watermarks
		WHERE id = $1
		FOR UPDATE
	`

	// queryInitWatermarkRow creates the watermark row at 0 on first advance.
	queryInitWatermarkRow = `
		INSERT INTO watermarks (id, value, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (id) DO NOTHING
	`

	// queryWriteWatermark replaces the locked watermark value.
	queryWriteWatermark = `
		UPDATE watermarks
		SET value = $2, updated_at = $3
		WHERE id = $1
	`
)

// Bin queries are built per granularity table from these templates; the table
// name always comes from the binTables whitelist, never from input.
const (
	// queryRetrieveBinsTemplate fetches bins whose bucket starts at or after a
	// widened watermark. The %s pair is (column list, table).
	queryRetrieveBinsTemplate = `
		SELECT
			%s
		FROM %s
		WHERE start_ts >= $1
		ORDER BY start_ts ASC
	`

	// queryFilterBinsTemplate serves the bin retrieval API, same filter idiom
	// as queryFilterDetections with the inclusive range applied to start_ts.
	queryFilterBinsTemplate = `
		SELECT
			%s
		FROM %s
		WHERE ($1::text[] IS NULL OR camera_id = ANY($1))
		  AND ($2::text[] IS NULL OR site_id = ANY($2))
		  AND ($3::text[] IS NULL OR zone_id = ANY($3))
		  AND ($4::bigint = 0 OR start_ts >= $4)
		  AND ($5::bigint = 0 OR start_ts <= $5)
		ORDER BY start_ts ASC
		LIMIT $6
	`

	// queryUpsertBinTemplate replaces a whole bin row by id. Identity columns
	// are written on insert only; every statistical column is overwritten,
	// because the runner always persists a bin it read (or created) this run.
	queryUpsertBinTemplate = `
		INSERT INTO %s (
			id, bin_size, camera_id, customer_id, site_id, zone_id, timezone,
			start_ts, end_ts, mid_ts, start_iso, end_iso,
			aggregated_number, sum_occupied_spaces, sum_total_spaces,
			min_occupied_spaces, max_occupied_spaces, min_total_spaces, max_total_spaces,
			mean_occupied_spaces, mean_total_spaces, occupation_rate, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23
		)
		ON CONFLICT (id) DO UPDATE SET
			aggregated_number    = EXCLUDED.aggregated_number,
			sum_occupied_spaces  = EXCLUDED.sum_occupied_spaces,
			sum_total_spaces     = EXCLUDED.sum_total_spaces,
			min_occupied_spaces  = EXCLUDED.min_occupied_spaces,
			max_occupied_spaces  = EXCLUDED.max_occupied_spaces,
			min_total_spaces     = EXCLUDED.min_total_spaces,
			max_total_spaces     = EXCLUDED.max_total_spaces,
			mean_occupied_spaces = EXCLUDED.mean_occupied_spaces,
			mean_total_spaces    = EXCLUDED.mean_total_spaces,
			occupation_rate      = EXCLUDED.occupation_rate,
			updated_at           = EXCLUDED.updated_at
	`

	// queryUpsertHourBinTemplate is the hour-table variant carrying the
	// aggregated_ids membership set (TEXT[], bound via pq.Array).
	queryUpsertHourBinTemplate = `
		INSERT INTO %s (
			id, bin_size, camera_id, customer_id, site_id, zone_id, timezone,
			start_ts, end_ts, mid_ts, start_iso, end_iso,
			aggregated_number, sum_occupied_spaces, sum_total_spaces,
			min_occupied_spaces, max_occupied_spaces, min_total_spaces, max_total_spaces,
			mean_occupied_spaces, mean_total_spaces, occupation_rate, aggregated_ids, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23, $24
		)
		ON CONFLICT (id) DO UPDATE SET
			aggregated_number    = EXCLUDED.aggregated_number,
			sum_occupied_spaces  = EXCLUDED.sum_occupied_spaces,
			sum_total_spaces     = EXCLUDED.sum_total_spaces,
			min_occupied_spaces  = EXCLUDED.min_occupied_spaces,
			max_occupied_spaces  = EXCLUDED.max_occupied_spaces,
			min_total_spaces     = EXCLUDED.min_total_spaces,
			max_total_spaces     = EXCLUDED.max_total_spaces,
			mean_occupied_spaces = EXCLUDED.mean_occupied_spaces,
			mean_total_spaces    = EXCLUDED.mean_total_spaces,
			occupation_rate      = EXCLUDED.occupation_rate,
			aggregated_ids       = EXCLUDED.aggregated_ids,
			updated_at           = EXCLUDED.updated_at
	`
)
