// Package sarima implements the seasonal autoregressive forecasting engine.
// The model is a SARIMA(p,d,q)(P,D,Q,s) fit by conditional sum of squares
// using gradient descent with momentum. Coefficients are clamped inside the
// unit interval so borderline non-stationary or non-invertible series
// degrade the fit instead of failing the request.
package sarima

import (
	"errors"
	"fmt"
	"math"

	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/timeseries"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientData = errors.New("insufficient data points after differencing")
	ErrInvalidSteps     = errors.New("steps must be at least 1")
)

const (
	// DefaultSeasonalPeriod is one year of monthly data.
	DefaultSeasonalPeriod = 12

	maxIterations    = 200
	convergenceTol   = 1e-8
	baseLearningRate = 0.005
	momentumFactor   = 0.9
	learningDecay    = 0.99
	earlyStopRounds  = 20

	// z value of the two-sided 95% interval
	z95 = 1.959963984540054
)

// Options holds the SARIMA model order.
type Options struct {
	P, D, Q    int // non-seasonal AR, differencing, MA orders
	SP, SD, SQ int // seasonal AR, differencing, MA orders
	Period     int // seasonal period
}

// NewDefaultOptions returns the (1,1,1)(1,1,1,12) order used for monthly
// bookings data with yearly seasonality.
func NewDefaultOptions() *Options {
	return &Options{
		P: 1, D: 1, Q: 1,
		SP: 1, SD: 1, SQ: 1,
		Period: DefaultSeasonalPeriod,
	}
}

// Engine fits a fresh SARIMA model per request. It holds no state across
// calls and is safe for concurrent use.
type Engine struct {
	opt *Options
}

// New creates a SARIMA engine with the given order. If none is provided a
// default is used.
func New(opt *Options) *Engine {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Engine{opt: opt}
}

// FitAndForecast fits the model to the series and produces steps point
// forecasts with two-sided 95% interval bounds.
func (e *Engine) FitAndForecast(series timeseries.Series, steps int) (forecast.Prediction, error) {
	if steps < 1 {
		return forecast.Prediction{}, ErrInvalidSteps
	}

	m := newModel(e.opt)
	if err := m.fit(series.Y); err != nil {
		return forecast.Prediction{}, fmt.Errorf("unable to fit seasonal model, %w", err)
	}
	return m.predict(steps), nil
}

type model struct {
	opt *Options

	original  []float64
	diffed    []float64
	intercept float64
	ar        []float64
	ma        []float64
	sar       []float64
	sma       []float64
	residuals []float64
	variance  float64
}

func newModel(opt *Options) *model {
	return &model{
		opt: opt,
		ar:  make([]float64, opt.P),
		ma:  make([]float64, opt.Q),
		sar: make([]float64, opt.SP),
		sma: make([]float64, opt.SQ),
	}
}

func (m *model) fit(y []float64) error {
	m.original = y

	diffed := y
	for i := 0; i < m.opt.D; i++ {
		diffed = diff(diffed, 1)
	}
	for i := 0; i < m.opt.SD; i++ {
		diffed = diff(diffed, m.opt.Period)
	}
	if len(diffed) < 2 {
		return ErrInsufficientData
	}
	m.diffed = diffed

	m.intercept = stat.Mean(diffed, nil)
	m.initCoefficients()
	m.optimize()
	return nil
}

// initCoefficients seeds the AR terms from sample autocorrelations and the
// MA terms with a small constant.
func (m *model) initCoefficients() {
	acf := autocorrelations(m.diffed, maxLag(m.opt))
	for i := 0; i < m.opt.P; i++ {
		if i+1 < len(acf) {
			m.ar[i] = acf[i+1] * 0.5
		}
	}
	for i := 0; i < m.opt.SP; i++ {
		lag := (i + 1) * m.opt.Period
		if lag < len(acf) {
			m.sar[i] = acf[lag] * 0.5
		}
	}
	for i := range m.ma {
		m.ma[i] = 0.1
	}
	for i := range m.sma {
		m.sma[i] = 0.1
	}
}

// predictAt computes the one-step prediction for index t of y using the
// current coefficients and the running residuals.
func (m *model) predictAt(y, residuals []float64, t, horizon int) float64 {
	pred := m.intercept
	for i := 0; i < m.opt.P && t-i-1 >= 0; i++ {
		pred += m.ar[i] * (y[t-i-1] - m.intercept)
	}
	for i := 0; i < m.opt.SP; i++ {
		if lag := (i + 1) * m.opt.Period; t-lag >= 0 {
			pred += m.sar[i] * (y[t-lag] - m.intercept)
		}
	}
	// future residuals are zero by construction, so MA terms only reach
	// into the observed portion
	for i := 0; i < m.opt.Q && t-i-1 >= 0; i++ {
		if t-i-1 < horizon {
			pred += m.ma[i] * residuals[t-i-1]
		}
	}
	for i := 0; i < m.opt.SQ; i++ {
		if lag := (i + 1) * m.opt.Period; t-lag >= 0 && t-lag < horizon {
			pred += m.sma[i] * residuals[t-lag]
		}
	}
	return pred
}

func (m *model) optimize() {
	y := m.diffed
	n := len(y)

	startIdx := maxLag(m.opt)
	if startIdx >= n-10 {
		startIdx = 0
	}

	arVel := make([]float64, m.opt.P)
	maVel := make([]float64, m.opt.Q)
	sarVel := make([]float64, m.opt.SP)
	smaVel := make([]float64, m.opt.SQ)

	bestSSE := math.Inf(1)
	bestAR := make([]float64, m.opt.P)
	bestMA := make([]float64, m.opt.Q)
	bestSAR := make([]float64, m.opt.SP)
	bestSMA := make([]float64, m.opt.SQ)
	noImprove := 0

	rate := baseLearningRate
	for iter := 0; iter < maxIterations; iter++ {
		residuals := make([]float64, n)
		sse := 0.0
		for t := startIdx; t < n; t++ {
			residuals[t] = y[t] - m.predictAt(y, residuals, t, n)
			sse += residuals[t] * residuals[t]
		}

		if sse < bestSSE {
			bestSSE = sse
			copy(bestAR, m.ar)
			copy(bestMA, m.ma)
			copy(bestSAR, m.sar)
			copy(bestSMA, m.sma)
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove > earlyStopRounds {
			break
		}

		arGrad := make([]float64, m.opt.P)
		maGrad := make([]float64, m.opt.Q)
		sarGrad := make([]float64, m.opt.SP)
		smaGrad := make([]float64, m.opt.SQ)
		for t := startIdx; t < n; t++ {
			for i := 0; i < m.opt.P && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.intercept)
			}
			for i := 0; i < m.opt.SP; i++ {
				if lag := (i + 1) * m.opt.Period; t-lag >= 0 {
					sarGrad[i] -= 2 * residuals[t] * (y[t-lag] - m.intercept)
				}
			}
			for i := 0; i < m.opt.Q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
			for i := 0; i < m.opt.SQ; i++ {
				if lag := (i + 1) * m.opt.Period; t-lag >= 0 {
					smaGrad[i] -= 2 * residuals[t] * residuals[t-lag]
				}
			}
		}

		step(m.ar, arVel, arGrad, rate, n)
		step(m.sar, sarVel, sarGrad, rate, n)
		step(m.ma, maVel, maGrad, rate, n)
		step(m.sma, smaVel, smaGrad, rate, n)
		rate *= learningDecay

		if iter > 0 && math.Abs(sse-bestSSE) < convergenceTol {
			break
		}
	}

	copy(m.ar, bestAR)
	copy(m.ma, bestMA)
	copy(m.sar, bestSAR)
	copy(m.sma, bestSMA)

	// final residual pass with the best coefficients
	m.residuals = make([]float64, n)
	for t := 0; t < n; t++ {
		m.residuals[t] = y[t] - m.predictAt(y, m.residuals, t, n)
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	numParams := m.opt.P + m.opt.Q + m.opt.SP + m.opt.SQ + 1
	if count > numParams {
		m.variance = sse / float64(count-numParams)
	} else if count > 0 {
		m.variance = sse / float64(count)
	}
}

func step(coef, vel, grad []float64, rate float64, n int) {
	for i := range coef {
		vel[i] = momentumFactor*vel[i] + rate*grad[i]/float64(n)
		coef[i] -= vel[i]
		coef[i] = clamp(coef[i], -0.99, 0.99)
	}
}

func (m *model) predict(steps int) forecast.Prediction {
	n := len(m.diffed)

	extY := make([]float64, n+steps)
	copy(extY, m.diffed)
	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		extY[t] = m.predictAt(extY, extResiduals, t, n)
	}

	mean := make([]float64, steps)
	copy(mean, extY[n:])
	mean = m.integrate(mean)

	lower := make([]float64, steps)
	upper := make([]float64, steps)
	copy(lower, mean)
	copy(upper, mean)
	se := math.Sqrt(m.variance)
	margins := make([]float64, steps)
	for h := 0; h < steps; h++ {
		// interval width grows with the horizon for integrated series
		growth := 1.0
		if m.opt.D > 0 {
			growth *= math.Sqrt(float64(h + 1))
		}
		if m.opt.SD > 0 && m.opt.Period > 0 {
			growth *= math.Sqrt(float64(h/m.opt.Period + 1))
		}
		margins[h] = z95 * se * growth
	}
	floats.Sub(lower, margins)
	floats.Add(upper, margins)

	return forecast.Prediction{Mean: mean, Lower: lower, Upper: upper}
}

// integrate undoes the differencing applied during fit, seasonal first then
// non-seasonal, to bring the forecasts back onto the original scale.
func (m *model) integrate(values []float64) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	nonSeasonal := m.original
	for i := 0; i < m.opt.D; i++ {
		if len(nonSeasonal) <= 1 {
			break
		}
		nonSeasonal = diff(nonSeasonal, 1)
	}

	if m.opt.SD > 0 && m.opt.Period > 0 {
		period := m.opt.Period
		nDiff := len(nonSeasonal)
		for i := 0; i < m.opt.SD; i++ {
			for j := range result {
				if j < period {
					if idx := nDiff - period + j; idx >= 0 && idx < nDiff {
						result[j] += nonSeasonal[idx]
					}
				} else {
					result[j] += result[j-period]
				}
			}
		}
	}

	for i := 0; i < m.opt.D; i++ {
		last := m.original[len(m.original)-1]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}

// diff returns the lagged difference of y at the given lag.
func diff(y []float64, lag int) []float64 {
	if len(y) <= lag {
		return nil
	}
	out := make([]float64, len(y)-lag)
	for i := lag; i < len(y); i++ {
		out[i-lag] = y[i] - y[i-lag]
	}
	return out
}

// autocorrelations computes the sample ACF of y up to maxLag inclusive.
func autocorrelations(y []float64, maxLag int) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(y, nil)

	var c0 float64
	for _, v := range y {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return make([]float64, maxLag+1)
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1.0
	for lag := 1; lag <= maxLag && lag < n; lag++ {
		var ck float64
		for t := lag; t < n; t++ {
			ck += (y[t] - mean) * (y[t-lag] - mean)
		}
		acf[lag] = ck / c0
	}
	return acf
}

func maxLag(opt *Options) int {
	lag := max(opt.P, opt.Q)
	if s := max(opt.SP, opt.SQ) * opt.Period; s > lag {
		lag = s
	}
	return lag
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
