package retrieval

import (
	"testing"

	v1 "github.com/oa-device/oaParkingMonitor/internal/api/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func det(id string, ts int64, occupied, total int) *v1.Detection {
	return &v1.Detection{
		ID:             id,
		Ts:             ts,
		CameraID:       "cam-1",
		SiteID:         "site-1",
		ZoneID:         "zone-a",
		OccupiedSpaces: occupied,
		TotalSpaces:    total,
	}
}

func TestBinDetections_GroupsByEpochAlignedBuckets(t *testing.T) {
	// 60s buckets: the first two land in [0, 60000), the third in [60000, 120000).
	detections := []*v1.Detection{
		det("det-1", 10000, 2, 10),
		det("det-2", 50000, 6, 10),
		det("det-3", 70000, 4, 12),
	}

	summaries := BinDetections(detections, 60000)

	require.Len(t, summaries, 2)

	first := summaries[0]
	require.Equal(t, int64(30000), first.Ts) // midpoint of [0, 60000)
	require.Equal(t, int64(2), first.MinOccupiedSpaces)
	require.Equal(t, int64(6), first.MaxOccupiedSpaces)
	require.True(t, first.MeanOccupiedSpaces.Equal(decimal.NewFromInt(4)))
	require.Equal(t, int64(10), first.MinTotalSpaces)
	require.Equal(t, int64(10), first.MaxTotalSpaces)
	require.Equal(t, int64(2), first.NumberOfDetections)
	require.Equal(t, []string{"det-1", "det-2"}, first.DetectionIDs)

	second := summaries[1]
	require.Equal(t, int64(90000), second.Ts)
	require.Equal(t, int64(1), second.NumberOfDetections)
	require.Equal(t, []string{"det-3"}, second.DetectionIDs)
	require.True(t, second.MeanTotalSpaces.Equal(decimal.NewFromInt(12)))
}

func TestBinDetections_FractionalMean(t *testing.T) {
	detections := []*v1.Detection{
		det("det-1", 1000, 1, 10),
		det("det-2", 2000, 2, 10),
		det("det-3", 3000, 2, 10),
	}

	summaries := BinDetections(detections, 60000)

	require.Len(t, summaries, 1)
	want := decimal.NewFromInt(5).Div(decimal.NewFromInt(3))
	require.True(t, summaries[0].MeanOccupiedSpaces.Equal(want))
}

func TestBinDetections_EmptyInput(t *testing.T) {
	require.Empty(t, BinDetections(nil, 60000))
	require.Empty(t, BinDetections([]*v1.Detection{det("det-1", 1000, 1, 2)}, 0))
}
