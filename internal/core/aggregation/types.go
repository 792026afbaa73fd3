package aggregation

// BinSets groups bins by granularity. Five named fields rather than a
// map keyed by Granularity: the set is closed, and explicit fields make
// every producer and consumer handle every level.
type BinSets struct {
	Hour  []*Bin `json:"hour"`
	Day   []*Bin `json:"day"`
	Week  []*Bin `json:"week"`
	Month []*Bin `json:"month"`
	Year  []*Bin `json:"year"`
}

// Of returns the set for one granularity.
func (s BinSets) Of(g Granularity) []*Bin {
	switch g {
	case GranularityHour:
		return s.Hour
	case GranularityDay:
		return s.Day
	case GranularityWeek:
		return s.Week
	case GranularityMonth:
		return s.Month
	case GranularityYear:
		return s.Year
	}
	return nil
}

// Len returns the total number of bins across all granularities.
func (s BinSets) Len() int {
	return len(s.Hour) + len(s.Day) + len(s.Week) + len(s.Month) + len(s.Year)
}

// LevelCounts carries one integer per granularity, used to report how many
// bins each level of a run created or updated.
type LevelCounts struct {
	Hour  int `json:"hour"`
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Total sums the counts across all levels.
func (c LevelCounts) Total() int {
	return c.Hour + c.Day + c.Week + c.Month + c.Year
}

func (c *LevelCounts) add(other LevelCounts) {
	c.Hour += other.Hour
	c.Day += other.Day
	c.Week += other.Week
	c.Month += other.Month
	c.Year += other.Year
}

// Summary reports what one Aggregate call did: how many detections were
// folded (duplicates excluded), how many were skipped as anomalies, and how
// many bins each level created or updated.
type Summary struct {
	AggregatedCount int
	SkippedCount    int
	UpdatedBins     LevelCounts
}

func (s *Summary) add(other Summary) {
	s.AggregatedCount += other.AggregatedCount
	s.SkippedCount += other.SkippedCount
	s.UpdatedBins.add(other.UpdatedBins)
}
