// Package forecast orchestrates a single forecasting request: it gates the
// normalized series, plans the horizon, invokes an engine, and assembles the
// ordered output sequence.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/potionkit/forecast-api/internal/timeseries"
)

var (
	ErrInvalidSteps        = errors.New("steps must be at least 1")
	ErrInsufficientHistory = errors.New("at least 2 years of monthly data are required for seasonal forecasting")
	ErrMissingYear         = errors.New("target year must not be empty")
	ErrModelFit            = errors.New("model failed to fit")
	ErrBoundsLenMismatch   = errors.New("prediction bounds do not match requested steps")
)

// MinSeasonalHistory is the smallest monthly history accepted for seasonal
// modeling with period 12. The underlying model needs two full seasonal
// cycles to estimate seasonal parameters, so the gate rejects anything
// shorter before an engine is ever invoked.
const MinSeasonalHistory = 2 * timeseries.MonthsPerYear

// Prediction carries the engine output for each requested future step at a
// fixed two-sided 95% interval.
type Prediction struct {
	Mean  []float64
	Lower []float64
	Upper []float64
}

// Engine is the narrow capability contract the pipeline calls. Fitting is
// synchronous and request-scoped; implementations must not retain state
// across calls.
type Engine interface {
	FitAndForecast(series timeseries.Series, steps int) (Prediction, error)
}

// ValidateSeasonal gates a monthly series before any engine call. The total
// history requirement applies even when the target year is fully known and
// no engine call will follow.
func ValidateSeasonal(series timeseries.Series, steps int) error {
	if series.Len() == 0 {
		return timeseries.ErrEmptyDataset
	}
	if steps < 1 {
		return ErrInvalidSteps
	}
	if series.Len() < MinSeasonalHistory {
		return ErrInsufficientHistory
	}
	return nil
}

// ValidatePeriodic gates a flat generic series. Only non-emptiness and the
// step count are checked; the decomposition engine has no fixed minimum
// history.
func ValidatePeriodic(series timeseries.Series, steps int) error {
	if series.Len() == 0 {
		return timeseries.ErrEmptyDataset
	}
	if steps < 1 {
		return ErrInvalidSteps
	}
	return nil
}

func (p Prediction) validate(steps int) error {
	if len(p.Mean) != steps || len(p.Lower) != steps || len(p.Upper) != steps {
		return fmt.Errorf("got %d/%d/%d values for %d steps, %w",
			len(p.Mean), len(p.Lower), len(p.Upper), steps, ErrBoundsLenMismatch)
	}
	// extreme-magnitude inputs can overflow a fit into NaN or Inf; such
	// output must surface as a fit failure, never reach the assembler
	for _, vals := range [][]float64{p.Mean, p.Lower, p.Upper} {
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("engine produced a non-finite value, %w", ErrModelFit)
			}
		}
	}
	return nil
}
