// Package server wires the gin engine, middleware, and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/potionkit/forecast-api/internal/config"
	"github.com/potionkit/forecast-api/internal/metrics"
	"github.com/potionkit/forecast-api/internal/server/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP front of the service.
type Server struct {
	router *gin.Engine
}

// New builds a fully routed server from the loaded configuration.
func New(cfg *config.Config) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(m), CORS())

	h := handlers.New(cfg, m)
	h.RegisterRoutes(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return &Server{router: router}
}

// Run starts serving on addr and blocks.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
