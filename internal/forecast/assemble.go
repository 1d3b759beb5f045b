package forecast

import (
	"fmt"
	"time"

	"github.com/potionkit/forecast-api/internal/timeseries"
	"github.com/shopspring/decimal"
)

// Point is one period of the assembled output sequence. Historical points
// carry the original value in all three fields; forecast points carry the
// engine output.
type Point struct {
	T        time.Time
	Mean     float64
	Lower    float64
	Upper    float64
	Forecast bool
}

// Round applies the numeric-formatting policy to a single value: half-even
// to a whole number under integer mode, half-even to 2 decimal places under
// decimal mode.
func Round(v float64, mode timeseries.NumericMode) float64 {
	d := decimal.NewFromFloat(v)
	if mode == timeseries.ModeInteger {
		f, _ := d.RoundBank(0).Float64()
		return f
	}
	f, _ := d.RoundBank(2).Float64()
	return f
}

func forecastPoint(t time.Time, pred Prediction, i int, mode timeseries.NumericMode) Point {
	// mean, lower, and upper are rounded independently, never re-derived
	// from a single rounded base
	return Point{
		T:        t,
		Mean:     Round(pred.Mean[i], mode),
		Lower:    Round(pred.Lower[i], mode),
		Upper:    Round(pred.Upper[i], mode),
		Forecast: true,
	}
}

func historicalPoint(t time.Time, v float64, mode timeseries.NumericMode) Point {
	v = Round(v, mode)
	return Point{T: t, Mean: v, Lower: v, Upper: v}
}

// AssembleHorizon produces exactly plan.Steps forecast points with no
// historical prefix, one per period of the given unit starting at plan.Start.
func AssembleHorizon(plan Plan, period timeseries.PeriodType, pred Prediction, mode timeseries.NumericMode) ([]Point, error) {
	if err := pred.validate(plan.Steps); err != nil {
		return nil, err
	}
	out := make([]Point, 0, plan.Steps)
	t := plan.Start
	for i := 0; i < plan.Steps; i++ {
		out = append(out, forecastPoint(t, pred, i, mode))
		t = period.Step(t)
	}
	return out, nil
}

// AssembleYearFill produces exactly 12 points for plan.FillYear: the known
// months echoed as history followed by the engine output for the remainder.
func AssembleYearFill(plan Plan, known []float64, pred Prediction, mode timeseries.NumericMode) ([]Point, error) {
	if len(known) != plan.Known {
		return nil, fmt.Errorf("plan expects %d known months, got %d, %w",
			plan.Known, len(known), timeseries.ErrBadShape)
	}
	if err := pred.validate(plan.Steps); err != nil {
		return nil, err
	}

	out := make([]Point, 0, timeseries.MonthsPerYear)
	for i, v := range known {
		t := time.Date(plan.FillYear, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, historicalPoint(t, v, mode))
	}
	for i := 0; i < plan.Steps; i++ {
		t := time.Date(plan.FillYear, time.Month(plan.Known+i+1), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, forecastPoint(t, pred, i, mode))
	}
	return out, nil
}

// Run executes the planned engine call and assembles the output sequence.
// A zero-step plan skips the engine entirely. Engine failures surface as a
// single wrapped ErrModelFit and are never retried.
func Run(eng Engine, series timeseries.Series, plan Plan, period timeseries.PeriodType, known []float64) ([]Point, error) {
	var pred Prediction
	if plan.Steps > 0 {
		var err error
		pred, err = eng.FitAndForecast(series, plan.Steps)
		if err != nil {
			return nil, fmt.Errorf("%v, %w", err, ErrModelFit)
		}
	}
	if plan.FillYear != 0 {
		return AssembleYearFill(plan, known, pred, series.Mode)
	}
	return AssembleHorizon(plan, period, pred, series.Mode)
}
