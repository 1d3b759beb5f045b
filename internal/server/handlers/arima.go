package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/timeseries"
)

const defaultSeasonalSteps = 12

type seasonalRequest struct {
	HasDecimal int                  `json:"has_decimal"`
	Dataset    map[string][]float64 `json:"dataset"`
	Steps      *int                 `json:"steps"`
	TargetYear string               `json:"target_year"`
}

type seasonalPoint struct {
	Month      int     `json:"month"`
	Forecast   float64 `json:"forecast"`
	Lower95CI  float64 `json:"lower95CI"`
	Upper95CI  float64 `json:"upper95CI"`
	IsForecast bool    `json:"is_forecast"`
}

type seasonalResponse struct {
	ForecastYear   int             `json:"forecast_year"`
	ForecastResult []seasonalPoint `json:"forecast_result"`
}

// ForecastSeasonal serves POST /arima/. Without a target year it forecasts
// exactly steps months past the end of the history; with a target year it
// returns all 12 months of that year, echoing the known months and
// forecasting the remainder.
func (h *Handler) ForecastSeasonal(c *gin.Context) {
	var req seasonalRequest
	if err := decodeJSON(c, &req); err != nil {
		respondJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, pts, plan, err := h.seasonalPipeline(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	year := plan.Start.Year()
	if plan.FillYear != 0 {
		year = plan.FillYear
	}
	out := make([]seasonalPoint, 0, len(pts))
	for _, pt := range pts {
		out = append(out, seasonalPoint{
			Month:      int(pt.T.Month()),
			Forecast:   pt.Mean,
			Lower95CI:  pt.Lower,
			Upper95CI:  pt.Upper,
			IsForecast: pt.Forecast,
		})
	}
	respondJSON(c, http.StatusOK, seasonalResponse{
		ForecastYear:   year,
		ForecastResult: out,
	})
}

// seasonalPipeline runs normalize, validate, plan, fit, assemble for a
// monthly-grid request.
func (h *Handler) seasonalPipeline(req seasonalRequest) (timeseries.Series, []forecast.Point, forecast.Plan, error) {
	steps := defaultSeasonalSteps
	if req.Steps != nil {
		steps = *req.Steps
	}
	mode := timeseries.ModeFromFlag(req.HasDecimal)

	series, err := timeseries.FromMonthlyGrid(req.Dataset, req.TargetYear, mode)
	if err != nil {
		return timeseries.Series{}, nil, forecast.Plan{}, err
	}
	if err := forecast.ValidateSeasonal(series, steps); err != nil {
		return timeseries.Series{}, nil, forecast.Plan{}, err
	}

	var plan forecast.Plan
	var known []float64
	if req.TargetYear == "" {
		plan = forecast.FixedHorizon(series, steps)
	} else {
		raw := req.Dataset[req.TargetYear]
		known = make([]float64, 0, len(raw))
		for _, v := range raw {
			known = append(known, timeseries.Coerce(v, mode))
		}
		plan, err = forecast.FillYearEnd(req.TargetYear, len(known))
		if err != nil {
			return timeseries.Series{}, nil, forecast.Plan{}, err
		}
	}

	pts, err := h.run("sarima", h.seasonal, series, plan, timeseries.PeriodMonthly, known)
	if err != nil {
		return timeseries.Series{}, nil, forecast.Plan{}, err
	}
	return series, pts, plan, nil
}
