// Package decomp implements the decomposition-based forecasting engine. The
// series is modeled as a linear trend plus Fourier seasonal components
// selected by the period type, fit with ordinary least squares. Monthly
// series additionally fold in a ~30.5-day seasonal component.
package decomp

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/timeseries"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidSteps             = errors.New("steps must be at least 1")
	ErrNoTrainingData           = errors.New("no training data")
	ErrInsufficientTrainingData = errors.New("insufficient training data for decomposition")
	ErrResLenMismatch           = errors.New("predicted and actual have different lengths")
	ErrSingularFeatures         = errors.New("singular feature matrix")
)

const (
	secondsPerDay = 86400.0
	daysPerYear   = 365.25
	daysPerMonth  = 30.5
	daysPerWeek   = 7.0

	defaultYearlyOrders  = 10
	defaultMonthlyOrders = 5

	// z value of the two-sided 95% interval
	z95 = 1.959963984540054
)

// Options selects which seasonal cycles are active and at how many Fourier
// orders each.
type Options struct {
	Period timeseries.PeriodType

	YearlyOrders  int
	MonthlyOrders int
	WeeklyOrders  int
}

// NewOptions returns the cycle configuration for a period type. Monthly
// series carry the yearly cycle plus a ~30.5 day component; weekly series
// carry the yearly cycle. Yearly series reduce to trend plus intercept, and
// cycles at or below the sampling interval (the weekly cycle on weekly
// data) stay inactive since their phase never varies across samples.
func NewOptions(period timeseries.PeriodType) *Options {
	opt := &Options{Period: period}
	switch period {
	case timeseries.PeriodMonthly:
		opt.YearlyOrders = defaultYearlyOrders
		opt.MonthlyOrders = defaultMonthlyOrders
	case timeseries.PeriodWeekly:
		opt.YearlyOrders = defaultYearlyOrders
	}
	return opt
}

// Engine fits a fresh decomposition model per request. It holds no state
// across calls and is safe for concurrent use.
type Engine struct {
	opt *Options
}

// New creates a decomposition engine for the given options. If none are
// provided a monthly configuration is used.
func New(opt *Options) *Engine {
	if opt == nil {
		opt = NewOptions(timeseries.PeriodMonthly)
	}
	return &Engine{opt: opt}
}

type cycle struct {
	name   string
	period float64 // days
	orders int
}

// cycles caps each component's Fourier orders so the design matrix keeps
// fewer columns than observations.
func (e *Engine) cycles(n int) []cycle {
	all := []cycle{
		{name: "yearly", period: daysPerYear, orders: e.opt.YearlyOrders},
		{name: "monthly", period: daysPerMonth, orders: e.opt.MonthlyOrders},
		{name: "weekly", period: daysPerWeek, orders: e.opt.WeeklyOrders},
	}

	active := make([]cycle, 0, len(all))
	for _, c := range all {
		if c.orders > 0 {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}

	// two columns per order plus intercept and trend
	budget := (n - 3) / 2
	if budget < len(active) {
		budget = len(active)
	}
	perCycle := budget / len(active)
	for i := range active {
		if active[i].orders > perCycle {
			active[i].orders = perCycle
		}
		if active[i].orders < 1 {
			active[i].orders = 1
		}
	}
	return active
}

// FitAndForecast fits the model to the series and produces steps point
// forecasts with two-sided 95% interval bounds.
func (e *Engine) FitAndForecast(series timeseries.Series, steps int) (forecast.Prediction, error) {
	if series.Len() == 0 {
		return forecast.Prediction{}, ErrNoTrainingData
	}
	if steps < 1 {
		return forecast.Prediction{}, ErrInvalidSteps
	}

	cycles := e.cycles(series.Len())
	t0 := series.T[0]
	span := series.End().Sub(t0).Seconds()
	if span <= 0 {
		span = 1
	}

	x := designMatrix(series.T, t0, span, cycles)
	if rows, cols := x.Dims(); rows < cols {
		return forecast.Prediction{}, fmt.Errorf("%d points for %d features, %w",
			rows, cols, ErrInsufficientTrainingData)
	}
	y := mat.NewDense(len(series.Y), 1, append([]float64(nil), series.Y...))

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		// a Condition error still carries a usable least-squares solution
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return forecast.Prediction{}, fmt.Errorf("%v, %w", err, ErrSingularFeatures)
		}
	}

	var fittedMx mat.Dense
	fittedMx.Mul(x, &beta)
	fitted := mat.Col(nil, 0, &fittedMx)

	residuals := make([]float64, len(fitted))
	for i := range residuals {
		residuals[i] = series.Y[i] - fitted[i]
	}
	sigma := stat.StdDev(residuals, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}

	if scores, err := NewScores(fitted, series.Y); err == nil {
		slog.Debug("decomposition fit",
			"n", series.Len(),
			"mse", scores.MSE,
			"mape", scores.MAPE,
		)
	}

	future := make([]time.Time, 0, steps)
	cur := series.End()
	for i := 0; i < steps; i++ {
		cur = e.opt.Period.Step(cur)
		future = append(future, cur)
	}

	xf := designMatrix(future, t0, span, cycles)
	var meanMx mat.Dense
	meanMx.Mul(xf, &beta)
	mean := mat.Col(nil, 0, &meanMx)

	lower := make([]float64, steps)
	upper := make([]float64, steps)
	for i := range mean {
		lower[i] = mean[i] - z95*sigma
		upper[i] = mean[i] + z95*sigma
	}
	return forecast.Prediction{Mean: mean, Lower: lower, Upper: upper}, nil
}

// designMatrix builds one row per time point: intercept, normalized linear
// trend, then sin/cos pairs per Fourier order of each active cycle.
func designMatrix(t []time.Time, t0 time.Time, span float64, cycles []cycle) *mat.Dense {
	cols := 2
	for _, c := range cycles {
		cols += 2 * c.orders
	}

	x := mat.NewDense(len(t), cols, nil)
	for i, tPnt := range t {
		x.Set(i, 0, 1.0)
		x.Set(i, 1, tPnt.Sub(t0).Seconds()/span)

		col := 2
		days := float64(tPnt.Unix()) / secondsPerDay
		for _, c := range cycles {
			phase := math.Mod(days, c.period)
			for order := 1; order <= c.orders; order++ {
				rad := 2.0 * math.Pi * float64(order) * phase / c.period
				x.Set(i, col, math.Sin(rad))
				x.Set(i, col+1, math.Cos(rad))
				col += 2
			}
		}
	}
	return x
}

// Scores summarizes how well the fit tracked the training data.
type Scores struct {
	MSE  float64 // mean squared error
	MAPE float64 // mean absolute percent error
}

// NewScores computes fit scores for a prediction over the training window.
func NewScores(predicted, actual []float64) (*Scores, error) {
	if len(predicted) != len(actual) {
		return nil, ErrResLenMismatch
	}

	var mse, mape float64
	for i := range actual {
		mse += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		if actual[i] != 0 {
			mape += math.Abs((actual[i] - predicted[i]) / actual[i])
		}
	}
	n := float64(len(actual))
	return &Scores{MSE: mse / n, MAPE: mape / n}, nil
}
