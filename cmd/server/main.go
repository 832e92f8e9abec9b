package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	printingapp "github.com/helenrm365/rm365-tools-testing-sub001/internal/application/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/cache"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/catalog"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/config"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/logger"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/persistence"
	infraprinting "github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/scheduler"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/telemetry"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/handler"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/middleware"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/router"
)

func main() {
	// A missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting label service",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("render_engine", cfg.Render.Engine),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         cfg.Log.Level,
		SlowThreshold: cfg.Database.SlowQueryThreshold,
	})
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	registry := telemetry.NewRegistry()
	var labelMetrics *telemetry.LabelMetrics
	var httpMetrics *telemetry.HTTPMetrics
	if cfg.Metrics.Enabled {
		labelMetrics = telemetry.NewLabelMetrics(registry)
		httpMetrics = telemetry.NewHTTPMetrics(registry)
		if sqlDB, err := db.SQL(); err == nil {
			registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.Database.DBName))
		}
	}

	tokens, err := newTokenSource(cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog token source", zap.Error(err))
	}
	catalogClient, err := catalog.NewClient(catalog.Config{
		BaseURL:        cfg.Catalog.BaseURL,
		OrganizationID: cfg.Catalog.OrganizationID,
		AuthScheme:     cfg.Catalog.AuthScheme,
		PerPage:        cfg.Catalog.PerPage,
		Concurrency:    cfg.Catalog.Concurrency,
		MaxPages:       cfg.Catalog.MaxPages,
		Timeout:        cfg.Catalog.Timeout,
		RetryCount:     cfg.Catalog.RetryCount,
		RetryWait:      cfg.Catalog.RetryWait,
	}, tokens, log.Named("catalog"))
	if err != nil {
		log.Fatal("Failed to initialize catalog client", zap.Error(err))
	}

	pdf, closeRenderer, err := newLabelRenderer(cfg, log.Named("render"))
	if err != nil {
		log.Fatal("Failed to initialize label renderer", zap.Error(err))
	}
	defer closeRenderer()

	service := printingapp.NewLabelService(printingapp.LabelServiceConfig{
		Jobs:            persistence.NewGormPrintJobRepository(db.DB, log.Named("jobs")),
		Candidates:      persistence.NewGormProductAllowList(db.DB),
		Catalog:         catalogClient,
		Metrics:         persistence.NewGormSalesMetricsRepository(db.DB),
		PDF:             pdf,
		Telemetry:       labelMetrics,
		UpstreamTimeout: cfg.Upstream.Timeout,
		Logger:          log.Named("labels"),
	})

	retention := scheduler.NewRetentionScheduler(service, log.Named("retention"), scheduler.RetentionSchedulerConfig{
		Enabled:   cfg.Scheduler.RetentionEnabled,
		Retention: cfg.Scheduler.JobRetention,
		Interval:  cfg.Scheduler.SweepInterval,
		Timeout:   cfg.Scheduler.SweepTimeout,
	})
	if err := retention.Start(ctx); err != nil {
		log.Fatal("Failed to start retention scheduler", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engineCfg := router.EngineConfig{
		Logger:      log,
		HTTPMetrics: httpMetrics,
		BodyLimit:   cfg.HTTP.MaxBodySize,
		Health: handler.NewHealthHandler(cfg.App.Name, map[string]handler.HealthCheck{
			"database": db.Ping,
		}).Health,
	}
	if cfg.Metrics.Enabled {
		engineCfg.MetricsHandler = telemetry.Handler(registry)
		engineCfg.MetricsPath = cfg.Metrics.Path
	}
	engine := router.NewEngine(engineCfg)
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	router.NewRouter(engine).
		Register(handler.LabelRoutes(handler.NewLabelHandler(service))).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := retention.Stop(shutdownCtx); err != nil {
		log.Warn("Retention scheduler did not stop in time", zap.Error(err))
	}
	log.Info("Server exited")
}

// newTokenSource prefers a static token; otherwise the token an out-of-band
// refresher keeps in Redis is read through a TTL cache.
func newTokenSource(cfg *config.Config) (catalog.TokenSource, error) {
	if cfg.Catalog.StaticToken != "" {
		return catalog.StaticToken(cfg.Catalog.StaticToken), nil
	}
	if !cfg.Redis.Enabled {
		return nil, errors.New("no catalog token configured: set catalog.static_token or enable redis")
	}
	store, err := cache.NewRedisTokenStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Catalog.TokenKey)
	if err != nil {
		return nil, err
	}
	return catalog.NewCachedTokenSource(store, cfg.Catalog.TokenTTL), nil
}

// newLabelRenderer builds the label sheet renderer on the configured PDF
// engine. The returned func releases the headless browser, if any.
func newLabelRenderer(cfg *config.Config, log *zap.Logger) (*infraprinting.LabelSheetRenderer, func(), error) {
	closeFn := func() {}

	var browser infraprinting.PDFRenderer
	if cfg.Render.Engine == infraprinting.EngineChromedp {
		chrome, err := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			DefaultTimeout: cfg.Render.Chromedp.Timeout,
			RemoteURL:      cfg.Render.Chromedp.RemoteURL,
			NoSandbox:      cfg.Render.Chromedp.NoSandbox,
			Scale:          cfg.Render.Chromedp.Scale,
			Logger:         log,
		})
		if err != nil {
			return nil, closeFn, err
		}
		browser = chrome
		closeFn = func() {
			if err := chrome.Close(); err != nil {
				log.Warn("Error closing browser", zap.Error(err))
			}
		}
	}

	canvas, err := infraprinting.NewCanvasFactory(cfg.Render.Engine, browser)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	measurer, err := infraprinting.NewOpenTypeMeasurer()
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	barcodes, err := infraprinting.NewBarcodeEncoder(infraprinting.DefaultBarcodeOptions())
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}

	renderer, err := infraprinting.NewLabelSheetRenderer(infraprinting.LabelSheetConfig{
		Layout:   cfg.Render.Layout,
		Style:    cfg.Render.Style,
		Measurer: measurer,
		Barcodes: barcodes,
		Canvas:   canvas,
		Logger:   log,
	})
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return renderer, closeFn, nil
}
