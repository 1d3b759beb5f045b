package forecast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/potionkit/forecast-api/internal/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine returns fixed offsets around a growing mean so assembly can be
// verified deterministically.
type stubEngine struct {
	calls int
	err   error
}

func (s *stubEngine) FitAndForecast(series timeseries.Series, steps int) (Prediction, error) {
	s.calls++
	if s.err != nil {
		return Prediction{}, s.err
	}
	pred := Prediction{
		Mean:  make([]float64, steps),
		Lower: make([]float64, steps),
		Upper: make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		pred.Mean[i] = 100.4 + float64(i)
		pred.Lower[i] = pred.Mean[i] - 10.26
		pred.Upper[i] = pred.Mean[i] + 10.24
	}
	return pred, nil
}

func TestRound(t *testing.T) {
	// integer mode is half-even
	assert.Equal(t, 2.0, Round(2.5, timeseries.ModeInteger))
	assert.Equal(t, 4.0, Round(3.5, timeseries.ModeInteger))
	assert.Equal(t, 13.0, Round(12.7, timeseries.ModeInteger))
	assert.Equal(t, -13.0, Round(-12.7, timeseries.ModeInteger))

	// decimal mode keeps two places
	assert.Equal(t, 0.12, Round(0.125, timeseries.ModeDecimal))
	assert.Equal(t, 0.14, Round(0.135, timeseries.ModeDecimal))
	assert.Equal(t, 12.35, Round(12.349, timeseries.ModeDecimal))
}

func TestRunFixedHorizon(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeInteger)
	eng := &stubEngine{}

	plan := FixedHorizon(series, 3)
	pts, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, 1, eng.calls)

	for i, pt := range pts {
		assert.True(t, pt.Forecast)
		assert.Equal(t, time.Month(i+1), pt.T.Month())
		assert.Equal(t, 2023, pt.T.Year())
		assert.LessOrEqual(t, pt.Lower, pt.Mean)
		assert.LessOrEqual(t, pt.Mean, pt.Upper)
		assertWholeNumber(t, pt.Mean)
		assertWholeNumber(t, pt.Lower)
		assertWholeNumber(t, pt.Upper)
	}
}

func TestRunFixedHorizonMonthsCycle(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeInteger)
	eng := &stubEngine{}

	plan := FixedHorizon(series, 15)
	pts, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
	require.NoError(t, err)
	require.Len(t, pts, 15)

	for i, pt := range pts {
		assert.Equal(t, time.Month(i%12+1), pt.T.Month())
	}
	// continues past December into the following year
	assert.Equal(t, 2024, pts[12].T.Year())
}

func TestRunYearFill(t *testing.T) {
	series := monthlySeries(t, 28, timeseries.ModeInteger)
	known := []float64{401, 402, 403, 404}
	eng := &stubEngine{}

	plan, err := FillYearEnd("2023", len(known))
	require.NoError(t, err)

	pts, err := Run(eng, series, plan, timeseries.PeriodMonthly, known)
	require.NoError(t, err)
	require.Len(t, pts, 12)
	assert.Equal(t, 1, eng.calls)

	for i, pt := range pts {
		assert.Equal(t, 2023, pt.T.Year())
		assert.Equal(t, time.Month(i+1), pt.T.Month())
		if i < len(known) {
			assert.False(t, pt.Forecast)
			assert.Equal(t, known[i], pt.Mean)
			assert.Equal(t, known[i], pt.Lower)
			assert.Equal(t, known[i], pt.Upper)
			continue
		}
		assert.True(t, pt.Forecast)
		assert.LessOrEqual(t, pt.Lower, pt.Mean)
		assert.LessOrEqual(t, pt.Mean, pt.Upper)
	}
}

func TestRunYearFillFullyKnownSkipsEngine(t *testing.T) {
	series := monthlySeries(t, 36, timeseries.ModeInteger)
	known := make([]float64, 12)
	for i := range known {
		known[i] = float64(500 + i)
	}
	eng := &stubEngine{}

	plan, err := FillYearEnd("2023", len(known))
	require.NoError(t, err)
	require.Zero(t, plan.Steps)

	pts, err := Run(eng, series, plan, timeseries.PeriodMonthly, known)
	require.NoError(t, err)
	require.Len(t, pts, 12)
	assert.Zero(t, eng.calls)

	for i, pt := range pts {
		assert.False(t, pt.Forecast)
		assert.Equal(t, known[i], pt.Mean)
	}
}

func TestRunDecimalMode(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeDecimal)
	eng := &stubEngine{}

	plan := FixedHorizon(series, 2)
	pts, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
	require.NoError(t, err)

	for _, pt := range pts {
		assertTwoDecimals(t, pt.Mean)
		assertTwoDecimals(t, pt.Lower)
		assertTwoDecimals(t, pt.Upper)
		assert.LessOrEqual(t, pt.Lower, pt.Mean)
		assert.LessOrEqual(t, pt.Mean, pt.Upper)
	}
}

func TestRunEngineFailure(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeInteger)
	eng := &stubEngine{err: errors.New("matrix is singular")}

	plan := FixedHorizon(series, 3)
	_, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
	assert.ErrorIs(t, err, ErrModelFit)
	assert.Contains(t, err.Error(), "matrix is singular")
}

func TestRunNonFiniteEngineOutput(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeDecimal)
	plan := FixedHorizon(series, 2)

	testData := []struct {
		name string
		v    float64
	}{
		{"nan", math.NaN()},
		{"positive inf", math.Inf(1)},
		{"negative inf", math.Inf(-1)},
	}
	for _, td := range testData {
		t.Run(td.name, func(t *testing.T) {
			eng := &nonFiniteEngine{v: td.v}
			_, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
			assert.ErrorIs(t, err, ErrModelFit)
		})
	}
}

type nonFiniteEngine struct {
	v float64
}

func (e *nonFiniteEngine) FitAndForecast(series timeseries.Series, steps int) (Prediction, error) {
	pred := Prediction{
		Mean:  make([]float64, steps),
		Lower: make([]float64, steps),
		Upper: make([]float64, steps),
	}
	for i := range pred.Mean {
		pred.Mean[i] = e.v
		pred.Lower[i] = e.v
		pred.Upper[i] = e.v
	}
	return pred, nil
}

func TestRunBoundsLenMismatch(t *testing.T) {
	series := monthlySeries(t, 24, timeseries.ModeInteger)
	eng := &lengthLiarEngine{}

	plan := FixedHorizon(series, 3)
	_, err := Run(eng, series, plan, timeseries.PeriodMonthly, nil)
	assert.ErrorIs(t, err, ErrBoundsLenMismatch)
}

type lengthLiarEngine struct{}

func (lengthLiarEngine) FitAndForecast(series timeseries.Series, steps int) (Prediction, error) {
	return Prediction{Mean: []float64{1}, Lower: []float64{0}, Upper: []float64{2}}, nil
}

func assertWholeNumber(t *testing.T, v float64) {
	t.Helper()
	s := strconv.FormatFloat(v, 'f', -1, 64)
	assert.NotContains(t, s, ".", "expected whole number, got %s", s)
}

func assertTwoDecimals(t *testing.T, v float64) {
	t.Helper()
	// reformatting at 2 places must not change the value
	s := fmt.Sprintf("%.2f", v)
	back, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	assert.Equal(t, v, back, "expected at most 2 decimal places, got %s", strings.TrimRight(s, "0"))
}
