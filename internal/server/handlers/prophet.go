package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/timeseries"
)

const defaultPeriodicSteps = 5

var errMissingTypeOrDataset = errors.New("'type' and 'dataset' are required")

type periodicRequest struct {
	Type       int       `json:"type"`
	Dataset    []float64 `json:"dataset"`
	Steps      *int      `json:"steps"`
	HasDecimal *int      `json:"has_decimal"`
	LastDate   string    `json:"last_date"`
}

type periodicPoint struct {
	DS        string  `json:"ds"`
	YHat      float64 `json:"yhat"`
	YHatLower float64 `json:"yhat_lower"`
	YHatUpper float64 `json:"yhat_upper"`
}

type periodicResponse struct {
	Forecast []periodicPoint `json:"forecast"`
}

// ForecastPeriodic serves POST /prophet/. The type field selects the period
// unit (1=yearly, 2=monthly, 3=weekly) and with it the active seasonal
// components of the decomposition engine.
func (h *Handler) ForecastPeriodic(c *gin.Context) {
	var req periodicRequest
	if err := decodeJSON(c, &req); err != nil {
		respondJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == 0 || req.Dataset == nil {
		respondJSON(c, http.StatusBadRequest, gin.H{"error": errMissingTypeOrDataset.Error()})
		return
	}

	period, err := timeseries.ParsePeriodType(req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}

	steps := defaultPeriodicSteps
	if req.Steps != nil {
		steps = *req.Steps
	}
	// numeric mode defaults to decimal on this endpoint
	mode := timeseries.ModeDecimal
	if req.HasDecimal != nil {
		mode = timeseries.ModeFromFlag(*req.HasDecimal)
	}

	var lastDate time.Time
	if req.LastDate != "" {
		lastDate, err = time.Parse("2006-01-02", req.LastDate)
		if err != nil {
			respondJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	series, err := timeseries.FromPeriodic(req.Dataset, period, lastDate, mode)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := forecast.ValidatePeriodic(series, steps); err != nil {
		h.fail(c, err)
		return
	}

	plan := forecast.FixedPeriodic(series, period, steps)
	pts, err := h.run("decomp", h.periodic(period), series, plan, period, nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]periodicPoint, 0, len(pts))
	for _, pt := range pts {
		out = append(out, periodicPoint{
			DS:        pt.T.Format("2006-01-02"),
			YHat:      pt.Mean,
			YHatLower: pt.Lower,
			YHatUpper: pt.Upper,
		})
	}
	respondJSON(c, http.StatusOK, periodicResponse{Forecast: out})
}
