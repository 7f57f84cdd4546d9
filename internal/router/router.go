package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediqo/booking-api/internal/handler"
	"github.com/mediqo/booking-api/internal/middleware"
)

// Handler is implemented by every feature handler that registers routes.
type Handler interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// Config carries everything the router needs to assemble the HTTP surface.
type Config struct {
	Base           *handler.Handler
	Auth           *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration

	// Public handlers are reachable without a token.
	Public []Handler
	// Protected handlers require authentication.
	Protected []Handler
}

// New assembles the gin engine with the full middleware chain and all
// registered routes.
func New(cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(metricsMiddleware())
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit())
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.GET("/health/live", cfg.Base.LivenessCheck)
	r.GET("/health/ready", cfg.Base.ReadinessCheck)
	r.GET("/metrics", cfg.Base.MetricsHandler)

	api := r.Group("/api/v1")
	for _, h := range cfg.Public {
		h.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(cfg.Auth.Authenticate())
	for _, h := range cfg.Protected {
		h.RegisterRoutes(protected)
	}

	return r
}

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(requestDuration, requestTotal)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := statusLabel(c.Writer.Status())

		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
