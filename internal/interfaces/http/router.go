package http

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/turtacn/riskengine/internal/application/dto"
	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/infrastructure/monitoring"
	"github.com/turtacn/riskengine/internal/interfaces/http/handlers"
	"github.com/turtacn/riskengine/internal/interfaces/http/middleware"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// Dependencies groups what the router needs besides configuration.
type Dependencies struct {
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	Tracer   trace.Tracer

	// Redis enables the Idempotency-Key check when non-nil.
	Redis redis.UniversalClient

	Health *handlers.HealthHandler
	Risk   *handlers.RiskHandler
	Alert  *handlers.AlertHandler
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger logger.Logger
	deps   Dependencies

	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

// NewRouter 创建路由器
func NewRouter(cfg *config.Config, log logger.Logger, deps Dependencies) *Router {
	if cfg.Log.Level != string(constants.LogLevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	r := &Router{
		engine: gin.New(),
		config: cfg,
		logger: log.WithComponent("http"),
		deps:   deps,
	}
	r.setupRoutes()
	return r
}

// Handler exposes the configured engine.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.AccessLog(r.logger))
	if r.deps.Tracer != nil && r.deps.Metrics != nil {
		r.engine.Use(middleware.ObservabilityMiddleware(
			r.deps.Tracer,
			r.deps.Metrics.HTTPRequestsTotal,
			r.deps.Metrics.HTTPRequestDuration,
		))
	}

	// CORS 配置
	if origins := r.config.Server.CORSOrigins; len(origins) > 0 {
		corsConfig := cors.Config{
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader, middleware.IdempotencyKeyHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
			MaxAge:        12 * time.Hour,
		}
		if slices.Contains(origins, "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = origins
		}
		r.engine.Use(cors.New(corsConfig))
	}

	// 健康检查路由
	r.engine.GET("/health/live", r.deps.Health.LivenessCheck)
	r.engine.GET("/health/ready", r.deps.Health.ReadinessCheck)

	// Prometheus metrics
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))

	if r.config.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	var portfolioLimit gin.HandlerFunc = noop
	if rl := r.config.RateLimit; rl.Enabled {
		var hits middleware.RateLimitRecorder
		if r.deps.Metrics != nil {
			hits = r.deps.Metrics
		}
		v1.Use(middleware.RateLimitMiddleware(
			middleware.NewIPRateLimiter(rate.Limit(rl.DefaultRPS), rl.BurstSize), "api", hits, r.logger))
		portfolioLimit = middleware.RateLimitMiddleware(
			middleware.NewIPRateLimiter(middleware.PerMinute(rl.PortfolioRPM), 1), "portfolio", hits, r.logger)
	}
	var idempotent gin.HandlerFunc = noop
	if r.deps.Redis != nil && r.config.Redis.IdempotencyTTL > 0 {
		idempotent = middleware.IdempotencyMiddleware(r.deps.Redis, r.config.Redis.IdempotencyTTL, r.logger)
	}

	risks := v1.Group("/risks")
	{
		risks.POST("/assess", r.deps.Risk.Assess)
		risks.POST("/portfolio/assess", portfolioLimit, r.deps.Risk.AssessPortfolio)
		risks.GET("/assessments/:id", r.deps.Risk.GetAssessment)
		risks.GET("/:entity_type/:entity_id/assessments", r.deps.Risk.ListEntityAssessments)
		risks.GET("/:entity_type/:entity_id/trends", r.deps.Risk.GetTrends)
	}

	alerts := v1.Group("/alerts")
	{
		alerts.GET("", r.deps.Alert.ListAlerts)
		alerts.GET("/stats", r.deps.Alert.Statistics)
		alerts.POST("/process", r.deps.Alert.ProcessQueue)
		alerts.GET("/:id", r.deps.Alert.GetAlert)
		alerts.POST("/:id/acknowledge", idempotent, r.deps.Alert.Acknowledge)
		alerts.POST("/:id/resolve", idempotent, r.deps.Alert.Resolve)
		alerts.POST("/:id/escalate", idempotent, r.deps.Alert.Escalate)
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		_, body := dto.ErrorResponse(errors.ErrNotFound("route", c.Request.URL.Path),
			c.GetString(string(constants.ContextKeyRequestID)))
		c.JSON(http.StatusNotFound, body)
	})
}

func noop(c *gin.Context) { c.Next() }

// Start 启动 HTTP 服务器, blocking until the server stops.
func (r *Router) Start() error {
	addr := r.config.Server.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadTimeout:       r.config.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      r.config.Server.WriteTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.server = server
	r.mu.Unlock()

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	server := r.server
	r.mu.Unlock()

	if server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return server.Shutdown(ctx)
}
