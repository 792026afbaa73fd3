package aggregation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	httperr "github.com/oa-device/oaParkingMonitor/internal/core/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func triggerRouter(t *testing.T, runner *Runner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewTriggerService(runner).RegisterRoutes(r)
	return r
}

func TestRunHandler_Success(t *testing.T) {
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	source := &mockDetectionSource{detections: []*v1.Detection{
		runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2),
	}}
	runner := NewRunner(source, newMockBinStore(), newMockWatermarkStore(), fastRunParameter())
	r := triggerRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/aggregations/run", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	// The wire shape is part of the contract: camelCase keys, per-level counts.
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Contains(t, body, "status")
	require.Contains(t, body, "aggregatedCount")
	require.Contains(t, body, "binsUpdatedByLevel")

	var result Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, 1, result.AggregatedCount)
	require.Equal(t, LevelCounts{Hour: 1, Day: 1, Week: 1, Month: 1, Year: 1}, result.BinsUpdatedByLevel)
}

func TestRunHandler_NoNewDetections(t *testing.T) {
	runner := NewRunner(&mockDetectionSource{}, newMockBinStore(), newMockWatermarkStore(), fastRunParameter())
	r := triggerRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/aggregations/run", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var result Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, StatusNoNewDetections, result.Status)
	require.Zero(t, result.AggregatedCount)
}

func TestRunHandler_BusyReturnsConflict(t *testing.T) {
	source := &mockDetectionSource{
		blockOn: make(chan struct{}),
		entered: make(chan struct{}),
	}
	runner := NewRunner(source, newMockBinStore(), newMockWatermarkStore(), fastRunParameter())
	r := triggerRouter(t, runner)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		done <- err
	}()
	<-source.entered

	req := httptest.NewRequest(http.MethodPost, "/v1/aggregations/run", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpRunInProgressError, errResp.ErrorType)

	close(source.blockOn)
	require.NoError(t, <-done)
}

func TestRunHandler_RunFailure(t *testing.T) {
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	source := &mockDetectionSource{detections: []*v1.Detection{
		runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2),
	}}
	bins := newMockBinStore()
	bins.failUpserts = 100
	runner := NewRunner(source, bins, newMockWatermarkStore(), fastRunParameter())
	r := triggerRouter(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/aggregations/run", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var result Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, StatusError, result.Status)
}

func TestNewTriggerService_RequiresRunner(t *testing.T) {
	require.Panics(t, func() { NewTriggerService(nil) })
}
