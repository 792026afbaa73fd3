package aggregation

import "github.com/shopspring/decimal"

// MeanOf returns sum/count as an exact decimal. Integer division would lose
// the fractional occupancy that downstream dashboards chart; float division
// drifts under repeated re-aggregation. A zero count yields decimal.Zero.
func MeanOf(sum, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count))
}

// OccupationRate returns meanOccupied/meanTotal, the fraction of monitored
// spaces that were occupied. A camera reporting zero total spaces (lens
// blocked, zone misconfigured) yields decimal.Zero rather than a division
// error.
func OccupationRate(meanOccupied, meanTotal decimal.Decimal) decimal.Decimal {
	if meanTotal.IsZero() {
		return decimal.Zero
	}
	return meanOccupied.Div(meanTotal)
}
