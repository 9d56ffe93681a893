package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"camelsrating/internal/camels"
	"camelsrating/internal/config"
	"camelsrating/internal/dataprocessing"
	"camelsrating/internal/errors"
	"camelsrating/internal/infrastructure"
	customMiddleware "camelsrating/internal/middleware"
	"camelsrating/internal/services"
	handlers "camelsrating/internal/transport/http"
	ws "camelsrating/internal/websocket"
	"camelsrating/pkg/contracts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const (
	AppName = "CAMELS Rating Service"

	systemMetricsInterval = 15 * time.Second
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer

	systemMetrics *infrastructure.SystemMetricsCollector
	cancelMetrics context.CancelFunc
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Rating    *services.RatingService
	Health    *services.HealthService
	WebSocket *ws.Hub
}

// NewApplication sets up the process-wide logger for cfg and wires every
// component. A relative log file is written to the logs directory. The
// caller closes the log file with infrastructure.CloseLogFile.
func NewApplication(cfg *config.Config) (*Application, error) {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.ResolveLogFile(cfg.Logging.FilePath)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ValidatePaths()
	if err != nil {
		return nil, err
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// BuildEngine creates the rating engine described by the engine section of
// cfg. An empty scheme file selects the built-in scheme.
func BuildEngine(cfg config.EngineConfig, paths *config.Paths, logger *slog.Logger) (*camels.Engine, error) {
	scheme := camels.DefaultScheme()

	file, err := paths.ResolveSchemeFile(cfg.SchemeFile)
	if err != nil {
		return nil, err
	}
	if file != "" {
		scheme, err = camels.LoadScheme(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load scheme: %w", err)
		}
		logger.Info("Rating scheme loaded",
			slog.String("file", file),
			slog.String("scheme", scheme.Name))
	}

	method, err := camels.ParseBenchmarkMethod(cfg.BenchmarkMethod)
	if err != nil {
		return nil, err
	}

	return camels.NewEngine(scheme, camels.Options{
		MaxConcurrency:  cfg.MaxConcurrency,
		Timeout:         cfg.Timeout,
		BenchmarkMethod: method,
		BackfillLags:    cfg.BackfillLags,
	}, logger)
}

// BuildSheetsSource connects to the configured spreadsheet, or returns nil
// when none is configured
func BuildSheetsSource(ctx context.Context, cfg config.SheetsConfig, paths *config.Paths, logger *slog.Logger) (*dataprocessing.SheetsSource, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	credentials := cfg.CredentialsFile
	if credentials == "" && cfg.APIKey == "" && config.FileExists(paths.CredentialsFile) {
		credentials = paths.CredentialsFile
	}

	return dataprocessing.NewSheetsSource(ctx, dataprocessing.SheetsConfig{
		SpreadsheetID:   cfg.SpreadsheetID,
		SheetName:       cfg.SheetName,
		CredentialsFile: credentials,
		APIKey:          cfg.APIKey,
	}, logger)
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	engine, err := BuildEngine(a.Config.Engine, a.Paths, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create rating engine: %w", err)
	}

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create WebSocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, wsMetrics)
	hub.Start()

	sheets, err := BuildSheetsSource(context.Background(), a.Config.Sheets, a.Paths, a.Logger)
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to connect spreadsheet source: %w", err)
	}

	ratingService, err := services.NewRatingService(services.RatingServiceConfig{
		Engine:    engine,
		Paths:     a.Paths,
		CacheSize: a.Config.Engine.CacheSize,
		Publisher: hub,
		Metrics:   a.Metrics,
		Tracer:    a.OTelProviders.Tracer,
		Sheets:    sheets,
	}, a.Logger)
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to initialize rating service: %w", err)
	}

	healthService := services.NewHealthService(ratingService, hub, a.Paths, a.Logger)

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, systemMetricsInterval)
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to create system metrics collector: %w", err)
	}
	a.systemMetrics = collector

	a.Services = &ServiceContainer{
		Rating:    ratingService,
		Health:    healthService,
		WebSocket: hub,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These do not wrap the ResponseWriter, so the WebSocket upgrade below
	// still sees the raw connection
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	corsConfig := a.getCORSConfig()

	wsHandler := ws.NewHandler(a.Services.WebSocket, a.Config.WebSocket, corsConfig.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		r.Use(customMiddleware.CORS(corsConfig))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.BodyLimit(a.Config.Server.MaxUploadBytes))
		r.Use(customMiddleware.AuditLog(a.Logger))

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
		})

		// Rating runs may take up to the engine timeout plus export time
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.OperationTimeout, a.Logger))

			ratingHandler := handlers.NewRatingHandler(a.Services.Rating, validator, a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)
			r.Mount("/camels", ratingHandler.Routes())
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	local := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}

	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append(local, "http://localhost:3000", "http://127.0.0.1:3000")
		a.Logger.Info("CORS configured for development mode",
			slog.Any("allowed_origins", cfg.AllowedOrigins))
		return cfg
	}

	cfg.AllowedOrigins = local
	if a.Config.Security.EnableCORS {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, a.Config.Security.AllowedOrigins...)
	}
	a.Logger.Info("CORS configured for production mode",
		slog.Any("allowed_origins", cfg.AllowedOrigins))

	return cfg
}

// isDevelopmentMode detects if we're running in development mode
func (a *Application) isDevelopmentMode() bool {
	if a.Config.Logging.Development {
		return true
	}
	return strings.EqualFold(a.Config.Telemetry.Environment, "development") ||
		strings.EqualFold(os.Getenv("GO_ENV"), "development")
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the background collectors and the HTTP server. A listen
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("scheme", a.Services.Rating.Scheme().Name))

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	a.cancelMetrics = stopMetrics
	go a.systemMetrics.Start(metricsCtx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.systemMetrics != nil {
		a.systemMetrics.Stop()
	}
	if a.cancelMetrics != nil {
		a.cancelMetrics()
	}
	a.Services.WebSocket.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline
	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the data directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Input":   a.Paths.InputDir,
		"Reports": a.Paths.ReportsDir,
		"Schemes": a.Paths.SchemesDir,
		"Logs":    a.Paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if a.Config.Sheets.Enabled() && a.Config.Sheets.CredentialsFile == "" && a.Config.Sheets.APIKey == "" {
		a.Logger.InfoContext(ctx, "Spreadsheet credentials resolved from default location",
			slog.String("path", a.Paths.CredentialsFile))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
