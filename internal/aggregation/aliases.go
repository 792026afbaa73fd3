package aggregation

import core "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"

// Re-export core aggregation types for package-level compatibility.
type Aggregator = core.Aggregator
type AggregatorParameter = core.AggregatorParameter
type Bin = core.Bin
type BinSets = core.BinSets
type Granularity = core.Granularity
type LevelCounts = core.LevelCounts
type LocationCache = core.LocationCache
type Summary = core.Summary
type WindowSpec = core.WindowSpec

const (
	GranularityHour  = core.GranularityHour
	GranularityDay   = core.GranularityDay
	GranularityWeek  = core.GranularityWeek
	GranularityMonth = core.GranularityMonth
	GranularityYear  = core.GranularityYear
)

var (
	Granularities    = core.Granularities
	BinID            = core.BinID
	BucketFor        = core.BucketFor
	NewAggregator    = core.NewAggregator
	NewLocationCache = core.NewLocationCache
	ParseGranularity = core.ParseGranularity
	ParseWindowSize  = core.ParseWindowSize
)
