package domain

import (
	"strings"
	"time"
	"unicode"
)

// Frequency is the sampling granularity of a column, read from its header
// block descriptor.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Chinese markers match anywhere in the descriptor; English ones only as
// whole words, so "Friday" or "business days" stay unmatched.
var (
	dailyMarker  = "日"
	weeklyMarker = "周"
	dailyWords   = []string{"daily"}
	weeklyWords  = []string{"weekly", "week"}
)

// DetectFrequency inspects a frequency descriptor. Daily tokens win over
// weekly ones; anything else is monthly.
func DetectFrequency(descriptor string) Frequency {
	d := strings.ToLower(descriptor)
	words := strings.FieldsFunc(d, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if strings.Contains(d, dailyMarker) || hasWord(words, dailyWords) {
		return FrequencyDaily
	}
	if strings.Contains(d, weeklyMarker) || hasWord(words, weeklyWords) {
		return FrequencyWeekly
	}
	return FrequencyMonthly
}

func hasWord(words, want []string) bool {
	for _, w := range words {
		for _, t := range want {
			if w == t {
				return true
			}
		}
	}
	return false
}

// PeriodCount is the size of the within-year period domain.
func (f Frequency) PeriodCount() int {
	switch f {
	case FrequencyDaily:
		return 366
	case FrequencyWeekly:
		return 53
	default:
		return 12
	}
}

// PeriodOf returns the 1-based within-year period index of t: day of year,
// ISO week number or calendar month.
func (f Frequency) PeriodOf(t time.Time) int {
	switch f {
	case FrequencyDaily:
		return t.YearDay()
	case FrequencyWeekly:
		_, week := t.ISOWeek()
		return week
	default:
		return int(t.Month())
	}
}

// AxisName is the label of the period axis on seasonal charts.
func (f Frequency) AxisName() string {
	switch f {
	case FrequencyDaily:
		return "日序（1 - 366）"
	case FrequencyWeekly:
		return "周序（1 - 53）"
	default:
		return "月份（1 - 12）"
	}
}
