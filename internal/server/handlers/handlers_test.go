package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/potionkit/forecast-api/internal/config"
	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/metrics"
	"github.com/potionkit/forecast-api/internal/sms"
	"github.com/potionkit/forecast-api/internal/timeseries"
	"github.com/prometheus/client_golang/prometheus"
)

// stubEngine returns a fixed ramp so handler tests can assert exact rounded
// output without fitting a real model.
type stubEngine struct {
	calls int
	err   error
}

func (s *stubEngine) FitAndForecast(series timeseries.Series, steps int) (forecast.Prediction, error) {
	s.calls++
	if s.err != nil {
		return forecast.Prediction{}, s.err
	}
	pred := forecast.Prediction{
		Mean:  make([]float64, 0, steps),
		Lower: make([]float64, 0, steps),
		Upper: make([]float64, 0, steps),
	}
	for i := 0; i < steps; i++ {
		m := 100.4 + float64(i)
		pred.Mean = append(pred.Mean, m)
		pred.Lower = append(pred.Lower, m-10.26)
		pred.Upper = append(pred.Upper, m+10.24)
	}
	return pred, nil
}

func newTestHandler(t *testing.T) (*Handler, *stubEngine, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.SMS.APIKey = "relay-secret"

	eng := &stubEngine{}
	h := &Handler{
		cfg:      cfg,
		metrics:  metrics.New(prometheus.NewRegistry()),
		seasonal: eng,
		periodic: func(timeseries.PeriodType) forecast.Engine { return eng },
		sms:      sms.NewClient("http://127.0.0.1:1", "gw-secret"),
	}
	r := gin.New()
	h.RegisterRoutes(r)
	return h, eng, r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postRaw(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fullYear builds 12 monthly values starting at base, rising by one per
// month.
func fullYear(base float64) []float64 {
	vals := make([]float64, 0, timeseries.MonthsPerYear)
	for i := 0; i < timeseries.MonthsPerYear; i++ {
		vals = append(vals, base+float64(i))
	}
	return vals
}
