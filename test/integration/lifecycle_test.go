//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
	"github.com/stretchr/testify/require"
)

// runResult mirrors the trigger endpoint's response body.
type runResult struct {
	Status          string `json:"status"`
	AggregatedCount int    `json:"aggregatedCount"`
}

func TestCoreAPI_E2ELifecycle(t *testing.T) {
	h := startHarnessWithoutScheduler(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	cameraID := fmt.Sprintf("cam-lifecycle-%d", time.Now().UnixNano())

	// Anchor everything in the previous UTC hour so every detection sits
	// strictly behind the watermark once the first run completes.
	base := time.Now().UTC().Truncate(time.Hour).Add(-time.Hour)

	var ingestedCount int

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := h.client.Get(h.baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	})

	t.Run("ingest single detection", func(t *testing.T) {
		detection := newTestDetection(t, cameraID, base.Add(5*time.Minute).UnixMilli(), 3, 10)
		status, body := postJSON(t, h.client, h.baseURL+"/v1/detections", detection)
		require.Equal(t, http.StatusCreated, status, string(body))
		ingestedCount++
	})

	t.Run("ingest batch of detections", func(t *testing.T) {
		batch := []*v1.Detection{
			newTestDetection(t, cameraID, base.Add(10*time.Minute).UnixMilli(), 5, 10),
			newTestDetection(t, cameraID, base.Add(15*time.Minute).UnixMilli(), 7, 10),
		}
		status, body := postJSON(t, h.client, h.baseURL+"/v1/detections", batch)
		require.Equal(t, http.StatusCreated, status, string(body))

		var payload struct {
			Created    int `json:"created"`
			Duplicates int `json:"duplicates"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, 2, payload.Created)
		require.Equal(t, 0, payload.Duplicates)
		ingestedCount += 2
	})

	t.Run("list raw detections", func(t *testing.T) {
		listURL := fmt.Sprintf("%s/v1/detections?cameraId=%s&limit=100", h.baseURL, cameraID)
		status, body := getJSON(t, h.client, listURL)
		require.Equal(t, http.StatusOK, status, string(body))

		var payload struct {
			Detections []*v1.Detection `json:"detections"`
			Count      int             `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, ingestedCount, payload.Count)
	})

	t.Run("trigger aggregation run", func(t *testing.T) {
		status, body := postJSON(t, h.client, h.baseURL+"/v1/aggregations/run", nil)
		require.Equal(t, http.StatusOK, status, string(body))

		var result runResult
		require.NoError(t, json.Unmarshal(body, &result))
		require.Equal(t, "success", result.Status)
		require.Equal(t, ingestedCount, result.AggregatedCount)
		require.Greater(t, readWatermark(t, h.db), int64(0))
	})

	t.Run("hour bin folds all detections", func(t *testing.T) {
		bin := fetchSingleBin(t, h, "hour", cameraID)
		require.Equal(t, int64(ingestedCount), bin.AggregatedNumber)
		require.Len(t, bin.AggregatedIDs, ingestedCount)
		require.Equal(t, int64(3), bin.MinOccupiedSpaces)
		require.Equal(t, int64(7), bin.MaxOccupiedSpaces)
		require.Equal(t, "5", bin.MeanOccupiedSpaces.String())
	})

	t.Run("day bin carries the rolled up gain", func(t *testing.T) {
		bin := fetchSingleBin(t, h, "day", cameraID)
		require.Equal(t, int64(ingestedCount), bin.AggregatedNumber)
		require.Empty(t, bin.AggregatedIDs)
	})

	t.Run("rerun without new detections is a no-op", func(t *testing.T) {
		watermarkBefore := readWatermark(t, h.db)

		status, body := postJSON(t, h.client, h.baseURL+"/v1/aggregations/run", nil)
		require.Equal(t, http.StatusOK, status, string(body))

		var result runResult
		require.NoError(t, json.Unmarshal(body, &result))
		require.Equal(t, "no new detections to aggregate", result.Status)
		require.Equal(t, watermarkBefore, readWatermark(t, h.db))

		bin := fetchSingleBin(t, h, "hour", cameraID)
		require.Equal(t, int64(ingestedCount), bin.AggregatedNumber)
	})

	t.Run("late detection rewinds the watermark and refolds once", func(t *testing.T) {
		late := newTestDetection(t, cameraID, base.Add(20*time.Minute).UnixMilli(), 9, 10)
		status, body := postJSON(t, h.client, h.baseURL+"/v1/detections", late)
		require.Equal(t, http.StatusCreated, status, string(body))
		ingestedCount++

		// Ingestion pulled the watermark back to the late detection's ts.
		require.Equal(t, late.Ts, readWatermark(t, h.db))

		status, body = postJSON(t, h.client, h.baseURL+"/v1/aggregations/run", nil)
		require.Equal(t, http.StatusOK, status, string(body))

		var result runResult
		require.NoError(t, json.Unmarshal(body, &result))
		require.Equal(t, "success", result.Status)

		// The refold adds exactly the late detection: earlier ids are already
		// members of the hour bin and must not count twice.
		bin := fetchSingleBin(t, h, "hour", cameraID)
		require.Equal(t, int64(ingestedCount), bin.AggregatedNumber)
		require.Len(t, bin.AggregatedIDs, ingestedCount)
		require.Equal(t, int64(9), bin.MaxOccupiedSpaces)

		dayBin := fetchSingleBin(t, h, "day", cameraID)
		require.Equal(t, int64(ingestedCount), dayBin.AggregatedNumber)
	})
}

func fetchSingleBin(t *testing.T, h *integrationHarness, granularity, cameraID string) *coreagg.Bin {
	t.Helper()

	binsURL := fmt.Sprintf("%s/v1/bins/%s?cameraId=%s&limit=10", h.baseURL, granularity, cameraID)
	status, body := getJSON(t, h.client, binsURL)
	require.Equal(t, http.StatusOK, status, string(body))

	var payload struct {
		Bins  []*coreagg.Bin `json:"bins"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, 1, payload.Count, "expected exactly one %s bin for %s", granularity, cameraID)
	return payload.Bins[0]
}
