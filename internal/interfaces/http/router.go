package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/sentinel/internal/application/dto"
	"github.com/turtacn/sentinel/internal/config"
	"github.com/turtacn/sentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/sentinel/internal/interfaces/http/middleware"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/logger"
)

// Router HTTP 路由器
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	logger           logger.Logger
	tracer           trace.Tracer
	httpMetrics      middleware.HTTPMetrics
	metricsHandler   http.Handler
	healthHandler    *handlers.HealthHandler
	detectionHandler *handlers.DetectionHandler
	server           *http.Server
}

// NewRouter 创建路由器并注册全部路由
// metricsHandler serves /metrics and may be nil.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	tracer trace.Tracer,
	httpMetrics middleware.HTTPMetrics,
	metricsHandler http.Handler,
	healthHandler *handlers.HealthHandler,
	detectionHandler *handlers.DetectionHandler,
) *Router {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if tracer == nil {
		tracer = otel.Tracer("sentinel-http")
	}

	r := &Router{
		engine:           gin.New(),
		config:           cfg,
		logger:           log.WithComponent("HTTPRouter"),
		tracer:           tracer,
		httpMetrics:      httpMetrics,
		metricsHandler:   metricsHandler,
		healthHandler:    healthHandler,
		detectionHandler: detectionHandler,
	}
	r.setupRoutes()
	r.server = &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        r.engine,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return r
}

// Handler exposes the engine, mainly for tests.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) corsConfig() cors.Config {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", constants.HeaderAPIKey, constants.HeaderRequestID, "traceparent"},
		ExposeHeaders: []string{constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	origins := r.config.Server.AllowedOrigins
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.ObservabilityMiddleware(r.tracer, r.httpMetrics))
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(cors.New(r.corsConfig()))

	// 健康检查路由（不需要认证）
	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	if r.config.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	if r.config.Auth.APIKey == "" {
		r.logger.Warn(context.Background(), "auth.api_key is empty, the detection API is unauthenticated")
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireAPIKey(r.config.Auth.APIKey, r.logger))
	{
		v1.POST("/detect", middleware.BodyLimit(constants.MaxRequestBodyBytes), r.detectionHandler.Detect)
		v1.GET("/signatures", r.detectionHandler.ListSignatures)

		tenants := v1.Group("/tenants/:tenant_id/profiles")
		{
			tenants.GET("", r.detectionHandler.ListProfiles)
			tenants.GET("/:client_id", r.detectionHandler.GetProfile)
			tenants.POST("/:client_id/compromise", r.detectionHandler.MarkCompromised)
			tenants.DELETE("/:client_id", r.detectionHandler.ResetProfile)
		}
	}

	// 404 处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse(
			errors.NewError(errors.CodeNotFound, http.StatusNotFound,
				"The requested resource was not found", "route not found"), ""))
	})
}

// Start 启动 HTTP 服务器. It blocks until the server stops.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}

//Personal.AI order the ending
