package aggregation

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
)

const defaultWorkerCount = 8

// AggregatorParameter controls fold concurrency.
type AggregatorParameter struct {
	WorkerCount int
}

func (p AggregatorParameter) normalized() AggregatorParameter {
	n := p
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	return n
}

// Aggregator folds raw detections into hour bins and rolls hour bins up into
// day, week, month and year bins. It performs no I/O: the caller fetches the
// relevant existing bins, hands them in, and persists the returned sets.
//
// Duplicate suppression lives at the hour level only. Each hour bin carries
// the ids of the detections folded into it; a detection seen again is a no-op.
// Coarser levels then merge hour bins arithmetically, taking from each lower
// bin only the gains it made during the current call. Gains are exact because
// of the hour-level dedup, and merging them (rather than the lower bin's full
// totals) keeps upper bins correct when the same straddling lower bins are
// re-read run after run. Min/max merge against full extremes, which is
// idempotent on its own.
type Aggregator struct {
	locations *LocationCache
	workers   int
}

// NewAggregator creates an aggregator with its own timezone location cache.
func NewAggregator(p AggregatorParameter) *Aggregator {
	p = p.normalized()
	return &Aggregator{
		locations: NewLocationCache(),
		workers:   p.WorkerCount,
	}
}

// Aggregate folds detections into the given existing bins and returns the
// complete updated sets for all five granularities, sorted by camera and
// bucket start. Existing bins that nothing touched pass through unchanged, so
// feeding a call's output back in with the same detections yields identical
// sets.
//
// Detections missing a camera id or a loadable timezone are skipped, logged,
// and counted in the summary; they never abort the batch.
//
// Cameras are folded concurrently: bin ids embed the camera id, so per-camera
// indexes never collide and worker results merge disjointly.
func (a *Aggregator) Aggregate(detections []*v1.Detection, existing BinSets) (BinSets, Summary) {
	groups, skipped := groupByCamera(detections, existing)

	summary := Summary{SkippedCount: skipped}
	if len(groups) == 0 {
		return BinSets{}, summary
	}

	workerCount := minWorkers(a.workers, len(groups))
	jobs := make(chan *cameraGroup, len(groups))
	results := make(chan cameraResult, workerCount)

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			var local cameraResult
			for group := range jobs {
				r := a.aggregateCamera(group, now)
				local.sets = appendSets(local.sets, r.sets)
				local.summary.add(r.summary)
			}
			results <- local
		}()
	}

	for _, group := range groups {
		jobs <- group
	}
	close(jobs)

	wg.Wait()
	close(results)

	var merged BinSets
	for local := range results {
		merged = appendSets(merged, local.sets)
		summary.add(local.summary)
	}

	sortBins(merged.Hour)
	sortBins(merged.Day)
	sortBins(merged.Week)
	sortBins(merged.Month)
	sortBins(merged.Year)

	return merged, summary
}

type cameraGroup struct {
	cameraID   string
	detections []*v1.Detection
	existing   BinSets
}

type cameraResult struct {
	sets    BinSets
	summary Summary
}

// aggregateCamera runs the full pipeline for one camera: the hour fold over
// raw detections, then the four rollups in fixed order. Hour gains feed day
// and week, day gains feed month and year; week stays off the month chain
// because weeks straddle month boundaries.
func (a *Aggregator) aggregateCamera(group *cameraGroup, now time.Time) cameraResult {
	hour := newLevelIndex(GranularityHour, group.existing.Hour)
	day := newLevelIndex(GranularityDay, group.existing.Day)
	week := newLevelIndex(GranularityWeek, group.existing.Week)
	month := newLevelIndex(GranularityMonth, group.existing.Month)
	year := newLevelIndex(GranularityYear, group.existing.Year)

	var folded, skipped int
	for _, d := range group.detections {
		loc, err := a.locations.Load(d.Timezone)
		if err != nil {
			skipped++
			slog.Warn("[BinAggregator] Skipping detection without usable timezone",
				"detection_id", d.ID,
				"camera_id", d.CameraID,
				"timezone", d.Timezone,
				"error", err)
			continue
		}
		if d.Ts <= 0 {
			skipped++
			slog.Warn("[BinAggregator] Skipping detection with invalid timestamp",
				"detection_id", d.ID,
				"camera_id", d.CameraID,
				"ts", d.Ts)
			continue
		}

		local := time.UnixMilli(d.Ts).In(loc)
		state := hour.locate(d.CameraID, d.CustomerID, d.SiteID, d.ZoneID, d.Timezone, local)
		if state.contains(d.ID) {
			continue
		}
		state.absorb(d, now)
		folded++
	}

	a.rollup(hour, day, now)
	a.rollup(hour, week, now)
	a.rollup(day, month, now)
	a.rollup(day, year, now)

	return cameraResult{
		sets: BinSets{
			Hour:  hour.bins(),
			Day:   day.bins(),
			Week:  week.bins(),
			Month: month.bins(),
			Year:  year.bins(),
		},
		summary: Summary{
			AggregatedCount: folded,
			SkippedCount:    skipped,
			UpdatedBins: LevelCounts{
				Hour:  hour.touchedCount(),
				Day:   day.touchedCount(),
				Week:  week.touchedCount(),
				Month: month.touchedCount(),
				Year:  year.touchedCount(),
			},
		},
	}
}

// rollup merges this call's gains from each touched lower bin into its
// enclosing upper bucket. Untouched lower bins contribute nothing and never
// create upper bins.
func (a *Aggregator) rollup(lower, upper *levelIndex, now time.Time) {
	for _, state := range lower.states {
		if !state.touched() {
			continue
		}

		loc, err := a.locations.Load(state.bin.Timezone)
		if err != nil {
			slog.Warn("[BinAggregator] Skipping rollup for bin without usable timezone",
				"bin_id", state.bin.ID,
				"timezone", state.bin.Timezone,
				"error", err)
			continue
		}

		local := time.UnixMilli(state.bin.StartTs).In(loc)
		target := upper.locate(state.bin.CameraID, state.bin.CustomerID, state.bin.SiteID, state.bin.ZoneID, state.bin.Timezone, local)

		gainCount, gainSumOccupied, gainSumTotal := state.gains()
		target.bin.absorbLower(state.bin, gainCount, gainSumOccupied, gainSumTotal, now)
	}
}

// foldState wraps a bin with the bookkeeping a fold needs but the bin does
// not persist: the id membership set for hour-level dedup, and the aggregate
// values the bin entered this call with, from which rollup gains are derived.
type foldState struct {
	bin *Bin

	ids      map[string]struct{}
	idsBuilt bool

	baseAggregated  int64
	baseSumOccupied int64
	baseSumTotal    int64
}

func (s *foldState) touched() bool {
	return s.bin.AggregatedNumber != s.baseAggregated
}

func (s *foldState) gains() (count, sumOccupied, sumTotal int64) {
	return s.bin.AggregatedNumber - s.baseAggregated,
		s.bin.SumOccupiedSpaces - s.baseSumOccupied,
		s.bin.SumTotalSpaces - s.baseSumTotal
}

// ensureIDs materializes the membership set lazily: most seeded bins are only
// passed through and never looked up.
func (s *foldState) ensureIDs() {
	if s.idsBuilt {
		return
	}
	s.ids = make(map[string]struct{}, len(s.bin.AggregatedIDs))
	for _, existing := range s.bin.AggregatedIDs {
		s.ids[existing] = struct{}{}
	}
	s.idsBuilt = true
}

// contains reports whether a detection id is already folded into this bin.
func (s *foldState) contains(id string) bool {
	s.ensureIDs()
	_, ok := s.ids[id]
	return ok
}

func (s *foldState) absorb(d *v1.Detection, now time.Time) {
	s.ensureIDs()
	s.bin.absorbDetection(d, now)
	s.ids[d.ID] = struct{}{}
}

// levelIndex holds one camera's bins for one granularity, keyed by bin id.
type levelIndex struct {
	granularity Granularity
	states      map[string]*foldState
}

func newLevelIndex(g Granularity, existing []*Bin) *levelIndex {
	idx := &levelIndex{
		granularity: g,
		states:      make(map[string]*foldState, len(existing)),
	}
	for _, b := range existing {
		idx.states[b.ID] = &foldState{
			bin:             b,
			baseAggregated:  b.AggregatedNumber,
			baseSumOccupied: b.SumOccupiedSpaces,
			baseSumTotal:    b.SumTotalSpaces,
		}
	}
	return idx
}

// locate returns the fold state for the bucket containing local, creating an
// empty bin when the bucket has none yet.
func (x *levelIndex) locate(cameraID, customerID, siteID, zoneID, timezone string, local time.Time) *foldState {
	start, end := BucketFor(local, x.granularity)
	id := BinID(cameraID, x.granularity, start.UnixMilli())

	if state, ok := x.states[id]; ok {
		return state
	}

	state := &foldState{
		bin: newBin(x.granularity, cameraID, customerID, siteID, zoneID, timezone, start, end),
	}
	x.states[id] = state
	return state
}

func (x *levelIndex) bins() []*Bin {
	out := make([]*Bin, 0, len(x.states))
	for _, state := range x.states {
		out = append(out, state.bin)
	}
	return out
}

func (x *levelIndex) touchedCount() int {
	count := 0
	for _, state := range x.states {
		if state.touched() {
			count++
		}
	}
	return count
}

func groupByCamera(detections []*v1.Detection, existing BinSets) (map[string]*cameraGroup, int) {
	groups := make(map[string]*cameraGroup)
	locate := func(cameraID string) *cameraGroup {
		g, ok := groups[cameraID]
		if !ok {
			g = &cameraGroup{cameraID: cameraID}
			groups[cameraID] = g
		}
		return g
	}

	skipped := 0
	for _, d := range detections {
		if d.CameraID == "" {
			skipped++
			slog.Warn("[BinAggregator] Skipping detection without camera id", "detection_id", d.ID)
			continue
		}
		g := locate(d.CameraID)
		g.detections = append(g.detections, d)
	}

	for _, b := range existing.Hour {
		g := locate(b.CameraID)
		g.existing.Hour = append(g.existing.Hour, b)
	}
	for _, b := range existing.Day {
		g := locate(b.CameraID)
		g.existing.Day = append(g.existing.Day, b)
	}
	for _, b := range existing.Week {
		g := locate(b.CameraID)
		g.existing.Week = append(g.existing.Week, b)
	}
	for _, b := range existing.Month {
		g := locate(b.CameraID)
		g.existing.Month = append(g.existing.Month, b)
	}
	for _, b := range existing.Year {
		g := locate(b.CameraID)
		g.existing.Year = append(g.existing.Year, b)
	}

	return groups, skipped
}

func appendSets(dst, src BinSets) BinSets {
	dst.Hour = append(dst.Hour, src.Hour...)
	dst.Day = append(dst.Day, src.Day...)
	dst.Week = append(dst.Week, src.Week...)
	dst.Month = append(dst.Month, src.Month...)
	dst.Year = append(dst.Year, src.Year...)
	return dst
}

func sortBins(bins []*Bin) {
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].CameraID != bins[j].CameraID {
			return bins[i].CameraID < bins[j].CameraID
		}
		return bins[i].StartTs < bins[j].StartTs
	})
}

func minWorkers(a, b int) int {
	if a < b {
		return a
	}
	return b
}
