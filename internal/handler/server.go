package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/geodiary/diary-backend/internal/config"
	"github.com/geodiary/diary-backend/internal/metrics"
	"github.com/geodiary/diary-backend/internal/repository"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// Server HTTP сервер сервиса дневников
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	logger      *utils.Logger
	config      *config.Config
	restHandler *RESTHandler
	pings       repository.PingStore
	cache       repository.DiaryCache
}

// NewServer создает новый HTTP сервер
func NewServer(cfg *config.Config, provider DiaryProvider, pings repository.PingStore, cache repository.DiaryCache, logger *utils.Logger) *Server {
	// Production mode для Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RateLimitMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if cfg.Monitoring.MetricsEnabled {
		router.Use(metrics.HTTPMetricsMiddleware())
	}

	server := &Server{
		router:      router,
		logger:      logger,
		config:      cfg,
		restHandler: NewRESTHandler(provider, logger),
		pings:       pings,
		cache:       cache,
	}

	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1 группа
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/diary", s.restHandler.PostDiary)
	}

	// Метрики Prometheus
	if s.config.Monitoring.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"address": s.config.Server.Address,
		"mode":    gin.Mode(),
	}).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Shutdown корректное завершение сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Health check endpoint: проверяет доступность MySQL и Redis
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if s.pings != nil {
		if err := s.pings.Ping(ctx); err != nil {
			checks["mysql"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks["mysql"] = "ok"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().Unix(),
	})
}

// ==================== Middleware ====================

// LoggerMiddleware логирование запросов
func LoggerMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		logger.WithFields(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("HTTP request completed")
	}
}

// CORSMiddleware настройка CORS
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // В production указать конкретные домены
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RateLimitMiddleware ограничение частоты запросов
func RateLimitMiddleware() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(100), 200) // 100 req/sec, burst 200

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limit_exceeded",
				"message": "Too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware заголовки безопасности
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
