package forecast

import (
	"fmt"
	"strconv"
	"time"

	"github.com/potionkit/forecast-api/internal/timeseries"
)

// Plan decides how many future periods an engine must produce and where
// they land on the calendar.
type Plan struct {
	// Steps is the number of periods to request from the engine. Zero means
	// the engine is skipped entirely.
	Steps int
	// Start is the first forecast period, immediately after the known
	// history.
	Start time.Time

	// FillYear is the calendar year being completed, or zero for a plain
	// fixed-horizon forecast.
	FillYear int
	// Known is the count of already-known months of FillYear (0-12).
	Known int
}

// FixedHorizon plans exactly steps periods continuing from the series end.
func FixedHorizon(series timeseries.Series, steps int) Plan {
	return Plan{
		Steps: steps,
		Start: timeseries.PeriodMonthly.Step(series.End()),
	}
}

// FixedPeriodic plans steps periods of the given unit continuing from the
// series end.
func FixedPeriodic(series timeseries.Series, period timeseries.PeriodType, steps int) Plan {
	return Plan{
		Steps: steps,
		Start: period.Step(series.End()),
	}
}

// FillYearEnd plans the completion of a target calendar year of which the
// first known months are already historical. When the year is fully known
// no engine call is planned and all 12 months are echoed back as history.
func FillYearEnd(yearLabel string, known int) (Plan, error) {
	if yearLabel == "" {
		return Plan{}, ErrMissingYear
	}
	year, err := strconv.Atoi(yearLabel)
	if err != nil || year <= 0 {
		return Plan{}, fmt.Errorf("year %q, %w", yearLabel, timeseries.ErrBadYearLabel)
	}
	if known < 0 || known > timeseries.MonthsPerYear {
		return Plan{}, fmt.Errorf("year %s has %d known months, %w", yearLabel, known, timeseries.ErrBadShape)
	}
	return Plan{
		Steps:    timeseries.MonthsPerYear - known,
		Start:    time.Date(year, time.Month(known+1), 1, 0, 0, 0, 0, time.UTC),
		FillYear: year,
		Known:    known,
	}, nil
}
