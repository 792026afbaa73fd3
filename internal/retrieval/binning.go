package retrieval

import (
	"sort"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
)

// BinDetections groups detections into fixed-width buckets of binMs
// milliseconds, aligned to the epoch, and summarizes each bucket. Unlike the
// persisted bins this ignores timezones: ad-hoc buckets are epoch-aligned
// windows over raw data, not calendar units.
func BinDetections(detections []*v1.Detection, binMs int64) []BinnedSummary {
	summaries := []BinnedSummary{}
	if binMs <= 0 || len(detections) == 0 {
		return summaries
	}

	type bucket struct {
		start              int64
		minOcc, maxOcc     int64
		minTotal, maxTotal int64
		sumOcc, sumTotal   int64
		ids                []string
	}

	buckets := make(map[int64]*bucket)
	for _, d := range detections {
		start := (d.Ts / binMs) * binMs
		occ, total := int64(d.OccupiedSpaces), int64(d.TotalSpaces)

		b, ok := buckets[start]
		if !ok {
			b = &bucket{
				start:    start,
				minOcc:   occ,
				maxOcc:   occ,
				minTotal: total,
				maxTotal: total,
			}
			buckets[start] = b
		} else {
			if occ < b.minOcc {
				b.minOcc = occ
			}
			if occ > b.maxOcc {
				b.maxOcc = occ
			}
			if total < b.minTotal {
				b.minTotal = total
			}
			if total > b.maxTotal {
				b.maxTotal = total
			}
		}

		b.sumOcc += occ
		b.sumTotal += total
		b.ids = append(b.ids, d.ID)
	}

	for _, b := range buckets {
		count := int64(len(b.ids))
		summaries = append(summaries, BinnedSummary{
			Ts:                 b.start + binMs/2,
			MinOccupiedSpaces:  b.minOcc,
			MeanOccupiedSpaces: coreagg.MeanOf(b.sumOcc, count),
			MaxOccupiedSpaces:  b.maxOcc,
			MinTotalSpaces:     b.minTotal,
			MeanTotalSpaces:    coreagg.MeanOf(b.sumTotal, count),
			MaxTotalSpaces:     b.maxTotal,
			NumberOfDetections: count,
			DetectionIDs:       b.ids,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Ts < summaries[j].Ts
	})

	return summaries
}
