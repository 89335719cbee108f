// Package api exposes the tracker over a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/tracker"
)

// Options configures the router.
type Options struct {
	Logger *zap.Logger
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string
}

// NewRouter builds the gin engine serving t.
func NewRouter(t *tracker.Tracker, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery(), corsMiddleware(opts.AllowOrigins))

	readings := &ReadingsController{tracker: t, logger: logger}
	settings := &SettingsController{tracker: t}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/readings", readings.List)
		v1.POST("/readings", readings.Create)
		v1.PUT("/readings/:id", readings.Update)
		v1.DELETE("/readings/:id", readings.Delete)
		v1.DELETE("/readings", readings.DeleteAll)
		v1.GET("/trends", readings.Trends)
		v1.GET("/export", readings.Export)
		v1.POST("/import", readings.Import)
		v1.GET("/settings", settings.Get)
		v1.PUT("/settings", settings.Update)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
