// Package layout turns a chart document into deterministic grid geometry:
// column and row placement from bucket indices, and a best-effort "today"
// marker positioned per bucket granularity.
package layout

import (
	"fmt"
	"regexp"
	"time"
)

// Granularity of the time axis, inferred from the first bucket label.
type Granularity int

const (
	GranularityUnknown Granularity = iota
	GranularityWeek
	GranularityMonth
	GranularityQuarter
	GranularityYear
)

var (
	yearLabelRe    = regexp.MustCompile(`^\d{4}$`)
	quarterLabelRe = regexp.MustCompile(`^Q[1-4] \d{4}$`)
	monthLabelRe   = regexp.MustCompile(`^[A-Z][a-z]{2} \d{4}$`)
	weekLabelRe    = regexp.MustCompile(`^W\d{1,2} \d{4}$`)
)

// InferGranularity classifies the bucket label format.
func InferGranularity(label string) Granularity {
	switch {
	case yearLabelRe.MatchString(label):
		return GranularityYear
	case quarterLabelRe.MatchString(label):
		return GranularityQuarter
	case monthLabelRe.MatchString(label):
		return GranularityMonth
	case weekLabelRe.MatchString(label):
		return GranularityWeek
	default:
		return GranularityUnknown
	}
}

// TodayPosition locates date on the time axis: the 0-based index of the
// bucket containing it and the fractional offset within that bucket. ok is
// false when the label format is unrecognized or no bucket matches the date;
// the marker is simply not drawn in that case.
func TodayPosition(date time.Time, timeColumns []string) (index int, fraction float64, ok bool) {
	if len(timeColumns) == 0 {
		return 0, 0, false
	}
	g := InferGranularity(timeColumns[0])
	if g == GranularityUnknown {
		return 0, 0, false
	}

	label := bucketLabel(date, g)
	for i, col := range timeColumns {
		if col == label {
			return i, bucketFraction(date, g), true
		}
	}
	return 0, 0, false
}

// bucketLabel formats date as the bucket label it falls into.
func bucketLabel(date time.Time, g Granularity) string {
	switch g {
	case GranularityYear:
		return fmt.Sprintf("%d", date.Year())
	case GranularityQuarter:
		return fmt.Sprintf("Q%d %d", (int(date.Month())-1)/3+1, date.Year())
	case GranularityMonth:
		return date.Format("Jan 2006")
	case GranularityWeek:
		year, week := date.ISOWeek()
		return fmt.Sprintf("W%d %d", week, year)
	default:
		return ""
	}
}

// bucketFraction computes how far through its bucket the date is. The year
// fraction counts elapsed days; month and quarter count the current day; the
// week fraction centers the marker on the weekday.
func bucketFraction(date time.Time, g Granularity) float64 {
	switch g {
	case GranularityYear:
		return float64(date.YearDay()-1) / float64(daysInYear(date.Year()))
	case GranularityQuarter:
		return float64(dayInQuarter(date)) / float64(daysInQuarter(date))
	case GranularityMonth:
		return float64(date.Day()) / float64(daysInMonth(date))
	case GranularityWeek:
		return (float64(date.Weekday()) + 0.5) / 7
	default:
		return 0
	}
}

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// quarterStart returns the first day of date's quarter.
func quarterStart(date time.Time) time.Time {
	m := time.Month((int(date.Month())-1)/3*3 + 1)
	return time.Date(date.Year(), m, 1, 0, 0, 0, 0, time.UTC)
}

// dayInQuarter is 1-based: the quarter's first day is day 1.
func dayInQuarter(date time.Time) int {
	return date.YearDay() - quarterStart(date).YearDay() + 1
}

func daysInQuarter(date time.Time) int {
	start := quarterStart(date)
	end := start.AddDate(0, 3, 0)
	return int(end.Sub(start).Hours() / 24)
}
