package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldserve/booking-api/config"
	"github.com/fieldserve/booking-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    Handler
	webhookH Handler
	bookingH Handler
	employeeH Handler
	jobH      Handler
	paymentH  Handler
	catalogH  Handler
	db        *sqlx.DB
	metrics   *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	webhookH Handler,
	bookingH Handler,
	employeeH Handler,
	jobH Handler,
	paymentH Handler,
	catalogH Handler,
	db *sqlx.DB,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		authH:     authH,
		webhookH:  webhookH,
		bookingH:  bookingH,
		employeeH: employeeH,
		jobH:      jobH,
		paymentH:  paymentH,
		catalogH:  catalogH,
		db:        db,
		metrics:   initRouterMetrics("booking_api_http"),
	}

	engine.Use(
		gin.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.RequestID(),
		middleware.CORS(),
	)

	if cfg.RateLimit.Enabled {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimit).RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes: login/refresh, and the webhook endpoint whose
	// authentication is the provider signature.
	r.authH.RegisterRoutes(api)
	r.webhookH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	// Staff-app routes key off the authenticated profile alone.
	r.jobH.RegisterRoutes(protected)

	// Admin routes are additionally tenant-scoped.
	company := protected.Group("")
	company.Use(r.auth.RequireCompany())
	r.bookingH.RegisterRoutes(company)
	r.employeeH.RegisterRoutes(company)
	r.paymentH.RegisterRoutes(company)
	r.catalogH.RegisterRoutes(company)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		health.GET("/ready", func(c *gin.Context) {
			if err := r.db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
