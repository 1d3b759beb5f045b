package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotSeasonal(t *testing.T) {
	_, _, r := newTestHandler(t)

	w := postJSON(r, "/arima/plot", map[string]any{
		"steps": 6,
		"dataset": map[string][]float64{
			"2021": fullYear(100),
			"2022": fullYear(120),
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "Seasonal Forecast")
	assert.Contains(t, body, "2022-12")
	assert.Contains(t, body, "2023-06")
}

func TestPlotSeasonalBadRequest(t *testing.T) {
	_, _, r := newTestHandler(t)

	w := postJSON(r, "/arima/plot", map[string]any{
		"dataset": map[string][]float64{"2022": fullYear(120)},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
