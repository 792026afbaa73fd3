package aggregation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDetectionSource for testing
type mockDetectionSource struct {
	mu            sync.Mutex
	detections    []*v1.Detection
	retrieveCalls int
	failRetrieves int
	onRetrieve    func()
	blockOn       chan struct{}
	entered       chan struct{}
	enterOnce     sync.Once
	deleteCalls   []int64
}

func (m *mockDetectionSource) RetrieveSince(ctx context.Context, from int64) ([]*v1.Detection, error) {
	m.mu.Lock()
	m.retrieveCalls++
	shouldFail := m.failRetrieves > 0
	if shouldFail {
		m.failRetrieves--
	}
	hook := m.onRetrieve
	block := m.blockOn
	m.mu.Unlock()

	if m.entered != nil {
		m.enterOnce.Do(func() { close(m.entered) })
	}
	if block != nil {
		<-block
	}
	if shouldFail {
		return nil, errors.New("detections: connection reset")
	}
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*v1.Detection
	for _, d := range m.detections {
		if d.Ts >= from {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockDetectionSource) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, cutoff)

	var dropped int64
	var kept []*v1.Detection
	for _, d := range m.detections {
		if d.Ts < cutoff {
			dropped++
			continue
		}
		kept = append(kept, d)
	}
	m.detections = kept
	return dropped, nil
}

// mockBinStore for testing
type mockBinStore struct {
	mu          sync.Mutex
	bins        map[Granularity]map[string]*Bin
	upsertOrder []Granularity
	upsertCalls int
	failUpserts int
}

func newMockBinStore() *mockBinStore {
	return &mockBinStore{bins: make(map[Granularity]map[string]*Bin)}
}

func (m *mockBinStore) RetrieveStartingAt(ctx context.Context, granularity Granularity, from int64) ([]*Bin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*Bin
	for _, b := range m.bins[granularity] {
		if b.StartTs >= from {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTs < result[j].StartTs })
	return result, nil
}

func (m *mockBinStore) UpsertBatch(ctx context.Context, granularity Granularity, bins []*Bin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upsertCalls++
	if m.failUpserts > 0 {
		m.failUpserts--
		return errors.New("bins: connection reset")
	}

	if m.bins[granularity] == nil {
		m.bins[granularity] = make(map[string]*Bin)
	}
	for _, b := range bins {
		m.bins[granularity][b.ID] = b
	}
	m.upsertOrder = append(m.upsertOrder, granularity)
	return nil
}

func (m *mockBinStore) stored(granularity Granularity) []*Bin {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*Bin
	for _, b := range m.bins[granularity] {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTs < result[j].StartTs })
	return result
}

// mockWatermarkStore for testing
type mockWatermarkStore struct {
	mu       sync.Mutex
	values   map[string]int64
	advances []advanceCall
}

type advanceCall struct {
	value    int64
	expected int64
}

func newMockWatermarkStore() *mockWatermarkStore {
	return &mockWatermarkStore{values: make(map[string]int64)}
}

func (m *mockWatermarkStore) Read(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *mockWatermarkStore) Advance(ctx context.Context, key string, value, expected int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.advances = append(m.advances, advanceCall{value: value, expected: expected})
	if m.values[key] != expected {
		return false, nil
	}
	m.values[key] = value
	return true, nil
}

func (m *mockWatermarkStore) set(key string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *mockWatermarkStore) get(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func runnerDetection(id string, ts time.Time, occupied int) *v1.Detection {
	return &v1.Detection{
		ID:             id,
		Ts:             ts.UnixMilli(),
		CustomerID:     "cust-1",
		SiteID:         "site-1",
		ZoneID:         "zone-1",
		CameraID:       "cam-1",
		OccupiedSpaces: occupied,
		TotalSpaces:    12,
		Timezone:       "America/Montreal",
	}
}

func fastRunParameter() RunParameter {
	return RunParameter{
		RetryAttempts:  2,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestRunner_NoNewDetections(t *testing.T) {
	ctx := context.Background()
	source := &mockDetectionSource{}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	result, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, StatusNoNewDetections, result.Status)
	assert.Zero(t, result.AggregatedCount)
	assert.Equal(t, LevelCounts{}, result.BinsUpdatedByLevel)

	// A no-op run writes nothing.
	assert.Zero(t, bins.upsertCalls)
	assert.Empty(t, watermarks.advances)
	assert.Empty(t, source.deleteCalls)
}

func TestRunner_FirstRunAggregatesEverything(t *testing.T) {
	ctx := context.Background()
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	source := &mockDetectionSource{detections: []*v1.Detection{
		runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2),
		runnerDetection("d2", time.Date(2025, 9, 22, 15, 40, 0, 0, montreal), 3),
	}}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	before := time.Now().UnixMilli()
	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	result, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.AggregatedCount)
	assert.Equal(t, LevelCounts{Hour: 1, Day: 1, Week: 1, Month: 1, Year: 1}, result.BinsUpdatedByLevel)

	for _, g := range Granularities {
		require.Len(t, bins.stored(g), 1, "granularity %s", g)
	}
	hour := bins.stored(GranularityHour)[0]
	assert.Equal(t, int64(2), hour.AggregatedNumber)
	assert.Equal(t, []string{"d1", "d2"}, hour.AggregatedIDs)

	// Finer levels are persisted before coarser ones.
	assert.Equal(t, []Granularity{GranularityHour, GranularityDay, GranularityWeek, GranularityMonth, GranularityYear}, bins.upsertOrder)

	require.Len(t, watermarks.advances, 1)
	assert.Equal(t, int64(0), watermarks.advances[0].expected)
	assert.GreaterOrEqual(t, watermarks.get(WatermarkKey), before)

	// Retention disabled: raw detections stay.
	assert.Empty(t, source.deleteCalls)
}

func TestRunner_ResumesFromRewoundWatermark(t *testing.T) {
	ctx := context.Background()
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	d1 := runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2)
	d2 := runnerDetection("d2", time.Date(2025, 9, 22, 15, 40, 0, 0, montreal), 3)
	source := &mockDetectionSource{detections: []*v1.Detection{d1, d2}}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	_, err = runner.Run(ctx)
	require.NoError(t, err)

	// A late detection lands with an old ts, rewinding the watermark the way
	// ingestion does.
	d3 := runnerDetection("d3", time.Date(2025, 9, 22, 15, 55, 0, 0, montreal), 7)
	source.mu.Lock()
	source.detections = append(source.detections, d3)
	source.mu.Unlock()
	watermarks.set(WatermarkKey, d3.Ts)

	result, err := runner.Run(ctx)
	require.NoError(t, err)

	// Only d3 is new; the straddling bins are merged into, not recreated.
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.AggregatedCount)

	hour := bins.stored(GranularityHour)[0]
	assert.Equal(t, int64(3), hour.AggregatedNumber)
	assert.Equal(t, int64(12), hour.SumOccupiedSpaces)
	assert.Equal(t, []string{"d1", "d2", "d3"}, hour.AggregatedIDs)

	day := bins.stored(GranularityDay)[0]
	assert.Equal(t, int64(3), day.AggregatedNumber)
	assert.Equal(t, int64(12), day.SumOccupiedSpaces)
}

func TestRunner_SkipsAdvanceWhenWatermarkMovesMidRun(t *testing.T) {
	ctx := context.Background()
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	d1 := runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2)
	initial := d1.Ts - 60_000
	rewound := d1.Ts - 300_000

	watermarks := newMockWatermarkStore()
	watermarks.set(WatermarkKey, initial)

	source := &mockDetectionSource{detections: []*v1.Detection{d1}}
	source.onRetrieve = func() {
		// An older detection arrives mid-run and rewinds the watermark.
		watermarks.set(WatermarkKey, rewound)
	}
	bins := newMockBinStore()

	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	result, err := runner.Run(ctx)
	require.NoError(t, err)

	// The run still succeeds, but the rewound watermark survives so the next
	// run re-reads the late detection.
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, watermarks.advances, 1)
	assert.Equal(t, initial, watermarks.advances[0].expected)
	assert.Equal(t, rewound, watermarks.get(WatermarkKey))
}

func TestRunner_UpsertFailureLeavesWatermark(t *testing.T) {
	ctx := context.Background()
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	source := &mockDetectionSource{detections: []*v1.Detection{
		runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2),
	}}
	bins := newMockBinStore()
	bins.failUpserts = 100
	watermarks := newMockWatermarkStore()

	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	result, err := runner.Run(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert hour bins")
	assert.Equal(t, StatusError, result.Status)

	// Exhausted retries: two attempts, then abort without touching the watermark.
	assert.Equal(t, 2, bins.upsertCalls)
	assert.Empty(t, watermarks.advances)
	assert.Equal(t, int64(0), watermarks.get(WatermarkKey))
}

func TestRunner_RetriesTransientReadFailure(t *testing.T) {
	ctx := context.Background()
	montreal, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	source := &mockDetectionSource{
		detections: []*v1.Detection{
			runnerDetection("d1", time.Date(2025, 9, 22, 15, 10, 0, 0, montreal), 2),
		},
		failRetrieves: 1,
	}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	runner := NewRunner(source, bins, watermarks, fastRunParameter())
	result, err := runner.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, source.retrieveCalls)
}

func TestRunner_ConcurrentRunFailsFast(t *testing.T) {
	ctx := context.Background()
	source := &mockDetectionSource{
		blockOn: make(chan struct{}),
		entered: make(chan struct{}),
	}
	runner := NewRunner(source, newMockBinStore(), newMockWatermarkStore(), fastRunParameter())

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(ctx)
		done <- err
	}()

	<-source.entered
	result, err := runner.Run(ctx)
	require.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, StatusError, result.Status)

	close(source.blockOn)
	require.NoError(t, <-done)
}

func TestRunner_RetentionDropsOldDetections(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	old := runnerDetection("old", now.Add(-800*time.Hour), 2)
	recent := runnerDetection("recent", now.Add(-time.Hour), 3)
	source := &mockDetectionSource{detections: []*v1.Detection{old, recent}}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	parameter := fastRunParameter()
	parameter.RetentionAge = 720 * time.Hour
	runner := NewRunner(source, bins, watermarks, parameter)

	before := time.Now().UTC()
	result, err := runner.Run(ctx)
	after := time.Now().UTC()
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	require.Len(t, source.deleteCalls, 1)
	cutoff := source.deleteCalls[0]
	assert.GreaterOrEqual(t, cutoff, before.Add(-720*time.Hour).UnixMilli())
	assert.LessOrEqual(t, cutoff, after.Add(-720*time.Hour).UnixMilli())

	source.mu.Lock()
	defer source.mu.Unlock()
	require.Len(t, source.detections, 1)
	assert.Equal(t, "recent", source.detections[0].ID)
}

func TestNewRunner_RequiresAllStores(t *testing.T) {
	source := &mockDetectionSource{}
	bins := newMockBinStore()
	watermarks := newMockWatermarkStore()

	require.Panics(t, func() { NewRunner(nil, bins, watermarks, RunParameter{}) })
	require.Panics(t, func() { NewRunner(source, nil, watermarks, RunParameter{}) })
	require.Panics(t, func() { NewRunner(source, bins, nil, RunParameter{}) })
}

func TestLookbacks_Defaults(t *testing.T) {
	normalized := Lookbacks{}.normalized()
	assert.Equal(t, DefaultLookbacks(), normalized)

	// Partial overrides keep the rest at defaults.
	custom := Lookbacks{Hour: 4 * time.Hour}.normalized()
	assert.Equal(t, 4*time.Hour, custom.Hour)
	assert.Equal(t, DefaultLookbacks().Day, custom.Day)

	// Unknown granularities fall back to the widest window.
	assert.Equal(t, DefaultLookbacks().Year, DefaultLookbacks().For(Granularity("decade")))
}
