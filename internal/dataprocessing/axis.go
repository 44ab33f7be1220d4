package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"sheetpulse/pkg/contracts/domain"
)

// DefaultPaddingRatio widens the data range by 5% on each side.
const DefaultPaddingRatio = 0.05

// axisSplits is the target number of gridline intervals.
const axisSplits = 5

// maxAxisMagnitude bounds axis ends so they convert to int exactly.
const maxAxisMagnitude = 1 << 53

// CalculateAxisRange returns an integer-rounded value axis that contains
// every present value with padding. An empty or all-missing input, or one
// whose padded bounds do not fit an int, yields (0, 1, 1).
func CalculateAxisRange(values []domain.NullFloat, paddingRatio ...float64) domain.AxisRange {
	ratio := DefaultPaddingRatio
	if len(paddingRatio) > 0 {
		ratio = paddingRatio[0]
	}

	present := domain.ValidValues(values)
	if len(present) == 0 {
		return domain.AxisRange{Min: 0, Max: 1, Interval: 1}
	}

	lo, hi := floats.Min(present), floats.Max(present)
	padding := ratio * (hi - lo)

	lower, upper := math.Floor(lo-padding), math.Ceil(hi+padding)
	if !(math.Abs(lower) <= maxAxisMagnitude && math.Abs(upper) <= maxAxisMagnitude) {
		return domain.AxisRange{Min: 0, Max: 1, Interval: 1}
	}

	minRound := int(lower)
	maxRound := int(upper)
	if maxRound == minRound {
		maxRound = minRound + 1
	}

	interval := (maxRound - minRound) / axisSplits
	if interval < 1 {
		interval = 1
	}

	return domain.AxisRange{Min: minRound, Max: maxRound, Interval: interval}
}

// CalculateAxisRangeFloats is CalculateAxisRange over plain values.
func CalculateAxisRangeFloats(values []float64, paddingRatio ...float64) domain.AxisRange {
	nf := make([]domain.NullFloat, len(values))
	for i, v := range values {
		nf[i] = domain.Float(v)
	}
	return CalculateAxisRange(nf, paddingRatio...)
}
