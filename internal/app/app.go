package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/atomic"

	"pushrelay/internal/config"
	"pushrelay/internal/engine"
	"pushrelay/internal/handler/http/health"
	httpiface "pushrelay/internal/handler/http/interface"
	"pushrelay/internal/handler/http/push"
	"pushrelay/internal/metrics"
	"pushrelay/internal/poster"
	"pushrelay/internal/transfer"
	"pushrelay/internal/worker"
	"pushrelay/pkg/logger"
)

// App represents the application with its lifecycle management
type App struct {
	config       *config.Config
	echo         *echo.Echo
	readiness    *atomic.Bool
	httpHandlers []httpiface.HttpRouter
	engine       *engine.Manager
	poster       poster.Poster
	cancel       context.CancelFunc
}

// NewApp creates a new App instance with the given configuration
// Follows constructor injection pattern - all dependencies passed via parameters
func NewApp(cfg *config.Config) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &App{
		config:    cfg,
		echo:      e,
		readiness: atomic.NewBool(false),
	}
}

// injectDependency builds the engine, orchestrator, scheduler, and handlers
func (a *App) injectDependency() {
	shutdownTimeout := time.Duration(a.config.ShutdownTimeoutSeconds) * time.Second

	a.engine = engine.NewManager(engine.Config{
		ConnectTimeout: time.Duration(a.config.ConnectTimeoutSeconds) * time.Second,
		RequestTimeout: time.Duration(a.config.RequestTimeoutSeconds) * time.Second,
	})

	orc := transfer.NewOrchestrator(a.engine, a.config.AllowInsecureHTTP, a.config.MaxResponseSizeMB*1024*1024)

	// Choose scheduler based on config
	switch a.config.SchedulerMode {
	case "semaphore":
		a.poster = poster.NewSemaphorePoster(orc, a.config.SemaphoreMaxConcurrent, shutdownTimeout)
		logger.Info("Using semaphore-based scheduler (maxConcurrent=%d)", a.config.SemaphoreMaxConcurrent)
	default:
		pool := worker.NewPool(orc, a.config.WorkerPoolSize, a.config.JobQueueSize, shutdownTimeout)
		a.poster = poster.NewPoolPoster(pool)
		logger.Info("Using pool-based scheduler (workers=%d, queueSize=%d)", a.config.WorkerPoolSize, a.config.JobQueueSize)
	}

	a.httpHandlers = []httpiface.HttpRouter{
		health.NewHealthHandler(a.readiness),
		push.NewPushHandler(a.config.UpstreamURL, a.poster, a.config.SyncPushDebug),
	}
}

// preProcess is called before the server starts accepting traffic.
// Engine initialization must happen here: after config load, before the
// scheduler starts and before readiness flips true.
func (a *App) preProcess() error {
	logger.Info("Preparing to start server...")

	if err := a.engine.Initialize(); err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}

	if a.poster != nil {
		a.poster.Start()
	}
	return nil
}

// postProcess is called after shutdown signal is received
func (a *App) postProcess() {
	logger.Info("Shutting down gracefully...")
}

// Run starts the Echo server and handles graceful shutdown
// Full lifecycle: startup -> run -> graceful shutdown -> engine teardown
func (a *App) Run() error {
	_, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.injectDependency()
	if err := a.preProcess(); err != nil {
		a.cancel()
		return err
	}

	go func() {
		e := a.echo
		addr := fmt.Sprintf(":%d", a.config.ServerPort)

		// CORS first so preflight is handled before anything else
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: a.config.AllowedOrigins,
			AllowMethods: []string{http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", "Content-Encoding", "Authorization", "Accept", "Origin", "User-Agent", "X-Requested-With"},
		}))

		// Body size limit protects against memory exhaustion from large payloads
		limit := fmt.Sprintf("%dM", a.config.MaxRequestSizeMB)
		e.Use(middleware.BodyLimit(limit))

		e.Use(middleware.Logger())
		e.Use(middleware.Recover())

		// Readiness middleware rejects requests while readiness=false,
		// except for health endpoints and metrics
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if !a.readiness.Load() {
					p := c.Request().URL.Path
					if p != "/healthz" && p != "/readyz" && p != "/metrics" {
						logger.Info("readiness=false: reject new request path=%s", p)
						return c.NoContent(http.StatusServiceUnavailable)
					}
				}
				return next(c)
			}
		})

		// Prometheus middleware tracks HTTP requests and serves /metrics
		e.Use(echoprometheus.NewMiddleware("pushrelay"))
		e.GET("/metrics", echoprometheus.NewHandler())

		// Refresh the backlog gauge on each request
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if a.poster != nil {
					metrics.QueueDepthGauge.Set(float64(a.poster.QueueDepth()))
				}
				return next(c)
			}
		})

		for _, handler := range a.httpHandlers {
			handler.SetupRoutes(e)
		}

		logger.Info("Starting pushrelay server on %s", addr)

		// Mark readiness true just before starting to accept connections
		a.readiness.Store(true)

		// http.ErrServerClosed is expected during graceful shutdown
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	logger.Info("Server ready. Waiting for interrupt signal...")
	<-quit

	a.postProcess()

	// Step 1: Mark as not ready (load balancers stop routing traffic)
	a.readiness.Store(false)
	drainDuration := time.Duration(a.config.ShutdownDrainSeconds) * time.Second
	logger.Info("readiness=false: start drain window duration=%v", drainDuration)

	// Step 2: Drain period - allow load balancers to detect unhealthy state
	time.Sleep(drainDuration)

	// Step 3: Stop the scheduler (finish in-flight transfers)
	logger.Info("Stopping scheduler...")
	if a.poster != nil {
		a.poster.Stop()
	}

	// Step 4: Shutdown Echo server with timeout
	shutdownTimeout := time.Duration(a.config.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Info("Shutting down Echo server...")
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
		a.engine.Close()
		a.cancel()
		return err
	}

	// Step 5: Tear down the engine; no transfers can be scheduled anymore
	a.engine.Close()

	a.cancel()

	logger.Info("Server stopped gracefully")
	return nil
}
