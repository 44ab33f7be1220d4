package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"sheetpulse/pkg/contracts/domain"
)

var (
	primaryPalette   = []string{"#FF0000", "#000000", "#0000FF", "#00FF00", "#800080", "#FFA500"}
	secondaryPalette = []string{"#8B0000", "#006400", "#00008B", "#8B8B00", "#8B008B", "#008B8B", "#FF8C00", "#4B0082"}
)

// SeriesColor returns the line color of the i-th year series (0 = most
// recent year).
func SeriesColor(i int) string {
	if i < 0 {
		i = 0
	}
	if i < len(primaryPalette) {
		return primaryPalette[i]
	}
	return secondaryPalette[(i-len(primaryPalette))%len(secondaryPalette)]
}

// AlignSeasonal buckets the observations of one column into a year x period
// grid. Each cell is the mean of the observations falling in it; periods with
// none are missing. Years are ordered most recent first and cut to window.
func AlignSeasonal(points []domain.Observation, freq domain.Frequency, window domain.YearWindow) domain.SeasonalChart {
	n := freq.PeriodCount()
	chart := domain.SeasonalChart{
		Frequency: freq,
		Window:    window,
		Periods:   make([]int, n),
		Series:    []domain.SeasonalSeries{},
	}
	for i := range chart.Periods {
		chart.Periods[i] = i + 1
	}

	// year -> period -> values
	buckets := make(map[int]map[int][]float64)
	for _, p := range points {
		if !p.Value.Valid {
			continue
		}
		if chart.Column == "" {
			chart.Column = p.Column
		}
		year := p.Date.Year()
		if buckets[year] == nil {
			buckets[year] = make(map[int][]float64)
		}
		period := freq.PeriodOf(p.Date)
		buckets[year][period] = append(buckets[year][period], p.Value.Float64)
	}

	years := make([]int, 0, len(buckets))
	for y := range buckets {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if limit := window.Limit(); limit > 0 && len(years) > limit {
		years = years[:limit]
	}

	var present []domain.NullFloat
	for i, year := range years {
		series := domain.SeasonalSeries{
			Year:   year,
			Color:  SeriesColor(i),
			Values: make([]domain.NullFloat, n),
		}
		for period, vals := range buckets[year] {
			if period < 1 || period > n {
				continue
			}
			mean := domain.Float(stat.Mean(vals, nil))
			series.Values[period-1] = mean
			present = append(present, mean)
		}
		chart.Series = append(chart.Series, series)
	}

	chart.Axis = CalculateAxisRange(present)
	return chart
}
