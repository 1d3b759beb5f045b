// Package handlers maps the HTTP endpoints onto the forecasting pipeline
// and the SMS relay.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/potionkit/forecast-api/internal/config"
	"github.com/potionkit/forecast-api/internal/engine/decomp"
	"github.com/potionkit/forecast-api/internal/engine/sarima"
	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/metrics"
	"github.com/potionkit/forecast-api/internal/sms"
	"github.com/potionkit/forecast-api/internal/timeseries"
)

// Handler carries the injected collaborators of all endpoints. Engines are
// stateless so a single instance serves concurrent requests.
type Handler struct {
	cfg     *config.Config
	metrics *metrics.Metrics

	seasonal forecast.Engine
	periodic func(timeseries.PeriodType) forecast.Engine
	sms      *sms.Client
}

// New creates the handler set with the production engines.
func New(cfg *config.Config, m *metrics.Metrics) *Handler {
	return &Handler{
		cfg:      cfg,
		metrics:  m,
		seasonal: sarima.New(nil),
		periodic: func(pt timeseries.PeriodType) forecast.Engine {
			return decomp.New(decomp.NewOptions(pt))
		},
		sms: sms.NewClient(cfg.SMS.GatewayURL, cfg.SMS.GatewayKey),
	}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/arima/", h.ForecastSeasonal)
	r.POST("/arima/plot", h.PlotSeasonal)
	r.POST("/prophet/", h.ForecastPeriodic)
	r.POST("/sms-semaphore/", h.RelaySMS)
}

// decodeJSON reads the request body into dst.
func decodeJSON(c *gin.Context, dst any) error {
	return json.NewDecoder(c.Request.Body).Decode(dst)
}

// respondJSON writes v as the response body.
func respondJSON(c *gin.Context, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(code, "application/json; charset=utf-8", body)
}

// statusFor maps the pipeline error taxonomy onto HTTP status codes:
// malformed input and failed validation are 400, everything else is an
// internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, timeseries.ErrEmptyDataset),
		errors.Is(err, timeseries.ErrBadShape),
		errors.Is(err, timeseries.ErrBadYearLabel),
		errors.Is(err, timeseries.ErrUnknownPeriodType),
		errors.Is(err, forecast.ErrInvalidSteps),
		errors.Is(err, forecast.ErrInsufficientHistory),
		errors.Is(err, forecast.ErrMissingYear):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	respondJSON(c, statusFor(err), gin.H{"error": err.Error()})
}

// run executes the planned pipeline, timing the engine call.
func (h *Handler) run(engineName string, eng forecast.Engine, series timeseries.Series, plan forecast.Plan, period timeseries.PeriodType, known []float64) ([]forecast.Point, error) {
	start := time.Now()
	pts, err := forecast.Run(eng, series, plan, period, known)
	if h.metrics != nil && plan.Steps > 0 {
		h.metrics.FitDuration.WithLabelValues(engineName).Observe(time.Since(start).Seconds())
	}
	return pts, err
}
