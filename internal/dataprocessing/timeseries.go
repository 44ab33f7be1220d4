package dataprocessing

import (
	"sort"
	"time"

	"sheetpulse/pkg/contracts/domain"
)

// BuildTimeSeries drops missing observations, sorts the rest by date and
// computes their axis range.
func BuildTimeSeries(column string, points []domain.Observation) domain.TimeSeries {
	kept := make([]domain.Observation, 0, len(points))
	for _, p := range points {
		if p.Value.Valid {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	ts := domain.TimeSeries{
		Column: column,
		Dates:  make([]time.Time, len(kept)),
		Values: make([]float64, len(kept)),
	}
	for i, p := range kept {
		ts.Dates[i] = p.Date
		ts.Values[i] = p.Value.Float64
	}
	ts.Axis = CalculateAxisRangeFloats(ts.Values)
	return ts
}
