package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"sheetpulse/internal/charts"
	"sheetpulse/internal/config"
	"sheetpulse/internal/dataprocessing"
	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/files"
	"sheetpulse/internal/infrastructure"
	customMiddleware "sheetpulse/internal/middleware"
	"sheetpulse/internal/services"
	handlers "sheetpulse/internal/transport/http"
	"sheetpulse/pkg/contracts"
	"sheetpulse/pkg/contracts/domain"
)

const (
	AppName = "SheetPulse"
)

var (
	// Version of the running binary
	Version = contracts.Version
	// BuildTime is set at link time, empty for development builds
	BuildTime = ""
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Dashboard     *services.DashboardService
	Library       *services.LibraryService
	Exports       *services.ExportService
	Health        *services.HealthService
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from cfg. A configured workbook that cannot be
// read is logged and skipped; the dashboard then waits for an upload.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution(logger)

	a := &Application{
		Config: cfg,
		Paths:  paths,
		Logger: logger,
	}

	if err := a.initializeTelemetry(); err != nil {
		return nil, err
	}
	if err := a.initializeServices(); err != nil {
		return nil, err
	}
	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeTelemetry() error {
	providers, err := infrastructure.InitializeOTel(
		infrastructure.OTelConfigFrom(a.Config.Telemetry, Version), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.OTelProviders = providers
	a.Metrics = metrics
	return nil
}

// initializeServices creates the dashboard, export and health services
func (a *Application) initializeServices() error {
	cfg := a.Config

	window, err := domain.ParseYearWindow(cfg.Dashboard.DefaultWindow)
	if err != nil {
		return fmt.Errorf("invalid default window: %w", err)
	}

	layout := dataprocessing.DefaultLayout()
	layout.HeaderStart = cfg.Dashboard.HeaderStart
	htmlOpts := charts.HTMLOptions{
		Width:      cfg.Dashboard.ChartWidth,
		Height:     cfg.Dashboard.ChartHeight,
		AssetsHost: cfg.Export.AssetsHost,
	}

	a.Dashboard = services.NewDashboardService(services.DashboardOptions{
		Layout:        layout,
		DefaultWindow: window,
		HTML:          htmlOpts,
		RasterWidth:   cfg.Export.Width,
		RasterHeight:  cfg.Export.Height,
	}, a.Metrics, a.Logger)

	a.Library = services.NewLibraryService(files.NewCatalog(a.Paths.DataDir), a.Dashboard, a.Logger)
	a.loadInitialWorkbook(context.Background())

	a.Exports = services.NewExportService(a.Dashboard, a.imageRenderer(htmlOpts), a.Paths, services.ExportOptions{
		MaxItems:  cfg.Export.MaxItems,
		KeepDecks: cfg.Export.KeepDecks,
	}, a.Metrics, a.Logger)

	a.Health = services.NewHealthService(Version, BuildTime, a.Paths, a.Dashboard, a.Logger)
	return nil
}

// loadInitialWorkbook opens the configured workbook, or the newest one in the
// data directory. Failures leave the dashboard empty.
func (a *Application) loadInitialWorkbook(ctx context.Context) {
	cfg := a.Config.Dashboard
	switch {
	case cfg.WorkbookPath != "":
		path := a.Paths.GetDataPath(cfg.WorkbookPath)
		if _, err := a.Dashboard.Load(ctx, path); err != nil {
			a.Logger.WarnContext(ctx, "Configured workbook could not be loaded",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	case cfg.AutoLoadLatest:
		wb, ok, err := a.Library.OpenLatest(ctx)
		if err != nil {
			a.Logger.WarnContext(ctx, "Latest stored workbook could not be loaded",
				slog.String("dir", a.Paths.DataDir),
				slog.String("error", err.Error()))
			return
		}
		if ok {
			a.Logger.InfoContext(ctx, "Opened latest stored workbook", slog.String("name", wb.Name))
		}
	}
}

// imageRenderer picks the slide image renderer named in the export config
func (a *Application) imageRenderer(html charts.HTMLOptions) exporter.ImageRenderer {
	cfg := a.Config.Export
	if cfg.Renderer == config.RendererStatic {
		return exporter.NewStaticRenderer(cfg.Width, cfg.Height)
	}
	// The screenshot page is sized to the browser window, not the dashboard.
	html.Width, html.Height = "", ""
	return exporter.NewChromeRenderer(exporter.ChromeOptions{
		Wait:     cfg.ScreenshotWait,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Headless: cfg.Headless,
		ExecPath: cfg.ChromePath,
		Timeout:  cfg.Timeout,
		TempDir:  a.Paths.CacheDir,
		HTML:     html,
	}, a.Logger)
}

// setupRouter builds the middleware chain and mounts every handler
func (a *Application) setupRouter() error {
	cfg := a.Config
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, cfg.Logging.Development)
	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	// Subrouters inherit these when mounted.
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))

	var scriptHosts []string
	if cfg.Export.AssetsHost != "" {
		scriptHosts = append(scriptHosts, cfg.Export.AssetsHost)
	}
	r.Use(customMiddleware.DefaultSecureHeaders(scriptHosts...).Handler)

	if cfg.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: cfg.Security.AllowedOrigins,
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:         300,
			Logger:         a.Logger,
		}))
	}

	if cfg.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			cfg.Security.RateLimit.RPS,
			cfg.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, validator, errorHandler, cfg.Dashboard.MaxUploadBytes, a.Logger)
	exportHandler := handlers.NewExportHandler(a.Exports, validator, errorHandler, a.Logger)
	libraryHandler := handlers.NewLibraryHandler(a.Library, errorHandler, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(validator.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		// Each export item is bounded by the renderer timeout instead.
		r.Mount("/exports", exportHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(cfg.Server.RequestTimeout))
			r.Mount("/workbooks", libraryHandler.Routes())
			r.Mount("/", dashboardHandler.Routes())
		})
	})

	window, _ := domain.ParseYearWindow(cfg.Dashboard.DefaultWindow)
	page, err := handlers.NewPageHandler(a.Paths.WebDir, handlers.DefaultPageData(Version, window), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load dashboard page: %w", err)
	}
	r.With(middleware.Compress(5)).Get("/", page.ServeDashboard)

	a.Router = r
	return nil
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

// Start starts serving in the background. cancel is called when the
// listener fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_id", BuildID),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	ready := a.Health.ReadinessCheck(ctx)
	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("readiness", ready.Status),
		slog.Bool("workbook_loaded", a.Dashboard.Loaded()))
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

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the listener fails
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
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline.
	return a.Stop(context.Background())
}
