// Package timeseries normalizes the heterogeneous request payloads into a
// canonical ordered time series ready for model fitting.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

var (
	ErrEmptyDataset = errors.New("dataset is missing or empty")
	ErrBadShape     = errors.New("year must have 12 monthly values")
	ErrBadYearLabel = errors.New("year label is not a valid year")
)

// MonthsPerYear is the number of periods in one full seasonal cycle of
// monthly data.
const MonthsPerYear = 12

// NumericMode selects the formatting policy applied uniformly to every
// numeric field of a response.
type NumericMode int

const (
	// ModeInteger truncates input values and rounds output values to whole numbers.
	ModeInteger NumericMode = iota
	// ModeDecimal keeps input precision and rounds output values to 2 decimal places.
	ModeDecimal
)

// ModeFromFlag maps the wire-level has_decimal flag to a NumericMode.
func ModeFromFlag(hasDecimal int) NumericMode {
	if hasDecimal == 0 {
		return ModeInteger
	}
	return ModeDecimal
}

// PeriodType selects the unit between consecutive points of a flat series.
type PeriodType int

const (
	PeriodYearly PeriodType = iota + 1
	PeriodMonthly
	PeriodWeekly
)

var ErrUnknownPeriodType = errors.New("invalid 'type' (1=annual,2=monthly,3=weekly)")

// ParsePeriodType validates the wire-level type field.
func ParsePeriodType(v int) (PeriodType, error) {
	switch pt := PeriodType(v); pt {
	case PeriodYearly, PeriodMonthly, PeriodWeekly:
		return pt, nil
	default:
		return 0, ErrUnknownPeriodType
	}
}

// Step advances t by one period unit.
func (pt PeriodType) Step(t time.Time) time.Time {
	switch pt {
	case PeriodYearly:
		return t.AddDate(1, 0, 0)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}

func (pt PeriodType) stepBack(t time.Time) time.Time {
	switch pt {
	case PeriodYearly:
		return t.AddDate(-1, 0, 0)
	case PeriodMonthly:
		return t.AddDate(0, -1, 0)
	default:
		return t.AddDate(0, 0, -7)
	}
}

// Series is an ordered univariate time series with a declared numeric mode.
// Timestamps are strictly increasing with one point per calendar period.
type Series struct {
	T    []time.Time
	Y    []float64
	Mode NumericMode
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return len(s.Y)
}

// End returns the timestamp of the last point in the series.
func (s Series) End() time.Time {
	if len(s.T) == 0 {
		return time.Time{}
	}
	return s.T[len(s.T)-1]
}

// FallbackAnchor is the first period timestamp used when a flat series
// carries no explicit end date.
var FallbackAnchor = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromMonthlyGrid flattens a year label to monthly values mapping into a
// Series. Years are ordered by their parsed integer value so that label
// widths cannot reorder the history. Every year must carry exactly 12 values,
// except targetYear which may be a partial 0-12 month prefix of a year still
// in progress; a partial target year must be the most recent year in the
// dataset or the series would carry a gap.
func FromMonthlyGrid(dataset map[string][]float64, targetYear string, mode NumericMode) (Series, error) {
	if len(dataset) == 0 {
		return Series{}, ErrEmptyDataset
	}

	years := make([]int, 0, len(dataset))
	byYear := make(map[int][]float64, len(dataset))
	for label, months := range dataset {
		year, err := strconv.Atoi(label)
		if err != nil || year <= 0 {
			return Series{}, fmt.Errorf("year %q, %w", label, ErrBadYearLabel)
		}
		if label != targetYear && len(months) != MonthsPerYear {
			return Series{}, fmt.Errorf("year %s has %d monthly values, %w", label, len(months), ErrBadShape)
		}
		if len(months) > MonthsPerYear {
			return Series{}, fmt.Errorf("year %s has %d monthly values, %w", label, len(months), ErrBadShape)
		}
		years = append(years, year)
		byYear[year] = months
	}
	sort.Ints(years)

	if targetYear != "" {
		if year, err := strconv.Atoi(targetYear); err == nil {
			if months, ok := byYear[year]; ok && len(months) < MonthsPerYear && year != years[len(years)-1] {
				return Series{}, fmt.Errorf("partial target year %s precedes year %d, %w",
					targetYear, years[len(years)-1], ErrBadShape)
			}
		}
	}

	s := Series{
		T:    make([]time.Time, 0, len(years)*MonthsPerYear),
		Y:    make([]float64, 0, len(years)*MonthsPerYear),
		Mode: mode,
	}
	for _, year := range years {
		for i, val := range byYear[year] {
			s.T = append(s.T, time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC))
			s.Y = append(s.Y, Coerce(val, mode))
		}
	}
	return s, nil
}

// FromPeriodic lays a flat value list out on the calendar. With a non-zero
// lastDate the periods end at lastDate stepping backward one unit per
// element; otherwise they start at the fallback anchor stepping forward.
func FromPeriodic(values []float64, period PeriodType, lastDate time.Time, mode NumericMode) (Series, error) {
	if len(values) == 0 {
		return Series{}, ErrEmptyDataset
	}

	t := make([]time.Time, len(values))
	if lastDate.IsZero() {
		cur := FallbackAnchor
		for i := range values {
			t[i] = cur
			cur = period.Step(cur)
		}
	} else {
		cur := lastDate
		for i := len(values) - 1; i >= 0; i-- {
			t[i] = cur
			cur = period.stepBack(cur)
		}
	}

	// values train the model as-is; the numeric mode only shapes output
	// rounding on this path
	y := make([]float64, len(values))
	copy(y, values)
	return Series{T: t, Y: y, Mode: mode}, nil
}

// Coerce applies the numeric mode to an input value. Integer mode drops the
// fractional part; decimal mode keeps the source precision.
func Coerce(v float64, mode NumericMode) float64 {
	if mode == ModeInteger {
		return math.Trunc(v)
	}
	return v
}
