package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/pkg/contracts/domain"
)

func TestBuildTimeSeries(t *testing.T) {
	points := []domain.Observation{
		obs(2023, time.March, 1, 30),
		obs(2023, time.January, 1, 10),
		{Date: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), Column: "price"},
		obs(2023, time.February, 15, 20),
	}

	ts := BuildTimeSeries("price", points)

	assert.Equal(t, "price", ts.Column)
	require.Len(t, ts.Dates, 3)
	assert.Equal(t, []float64{10, 20, 30}, ts.Values)
	assert.True(t, ts.Dates[0].Before(ts.Dates[1]))
	assert.True(t, ts.Dates[1].Before(ts.Dates[2]))
	assert.Equal(t, domain.AxisRange{Min: 9, Max: 31, Interval: 4}, ts.Axis)
}

func TestBuildTimeSeriesEmpty(t *testing.T) {
	ts := BuildTimeSeries("price", nil)
	assert.Empty(t, ts.Values)
	assert.Equal(t, domain.AxisRange{Min: 0, Max: 1, Interval: 1}, ts.Axis)
}
