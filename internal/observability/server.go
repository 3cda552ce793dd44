package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatsFunc supplies the current counters for the /stats endpoint.
type StatsFunc func() any

// NewStatsRouter builds the debugging surface: health, live counters,
// and Prometheus metrics.
func NewStatsRouter(logger zerolog.Logger, stats StatsFunc) *gin.Engine {
	RegisterMetrics()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), RequestMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, stats())
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
