package aggregation

import "fmt"

// Granularity is the size class of a statistical bin.
// The set is closed: the rollup pipeline is hard-wired per level
// (hour feeds day and week; day feeds month and year), so new members
// cannot be added without extending the pipeline itself.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Granularities lists all bin sizes in rollup order: hour bins are folded from
// raw detections, day and week bins from hour bins, month and year bins from
// day bins. Weeks straddle month boundaries, so the week level hangs off hour
// directly instead of joining the month/year chain.
var Granularities = []Granularity{
	GranularityHour,
	GranularityDay,
	GranularityWeek,
	GranularityMonth,
	GranularityYear,
}

// ParseGranularity validates a granularity token from a request or config.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q (must be one of hour, day, week, month, year)", s)
}

func (g Granularity) String() string {
	return string(g)
}
