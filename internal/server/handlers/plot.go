package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/potionkit/forecast-api/internal/forecast"
	"github.com/potionkit/forecast-api/internal/timeseries"
)

// PlotSeasonal serves POST /arima/plot. It accepts the same body as
// POST /arima/ and renders an HTML line chart of the history followed by the
// forecast with its interval bounds.
func (h *Handler) PlotSeasonal(c *gin.Context) {
	var req seasonalRequest
	if err := decodeJSON(c, &req); err != nil {
		respondJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, pts, _, err := h.seasonalPipeline(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	page := components.NewPage()
	page.AddCharts(lineForecast(series, pts))

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// lineForecast charts the historical values and the forecast with its upper
// and lower bounds on a shared month axis. Series are padded with empty
// points so history and forecast occupy disjoint stretches of the axis.
func lineForecast(series timeseries.Series, pts []forecast.Point) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Seasonal Forecast",
			},
		),
	)

	n := series.Len()
	x := make([]string, 0, n+len(pts))
	lineDataActual := make([]opts.LineData, 0, n+len(pts))
	lineDataForecast := make([]opts.LineData, 0, n+len(pts))
	lineDataUpper := make([]opts.LineData, 0, n+len(pts))
	lineDataLower := make([]opts.LineData, 0, n+len(pts))

	for i := 0; i < n; i++ {
		x = append(x, series.T[i].Format("2006-01"))
		lineDataActual = append(lineDataActual, opts.LineData{Value: series.Y[i]})
		lineDataForecast = append(lineDataForecast, opts.LineData{})
		lineDataUpper = append(lineDataUpper, opts.LineData{})
		lineDataLower = append(lineDataLower, opts.LineData{})
	}
	for _, pt := range pts {
		x = append(x, pt.T.Format("2006-01"))
		lineDataActual = append(lineDataActual, opts.LineData{})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: pt.Mean})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: pt.Upper})
		lineDataLower = append(lineDataLower, opts.LineData{Value: pt.Lower})
	}

	line.SetXAxis(x).
		AddSeries("Actual", lineDataActual).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}
