package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/calendar-todo/internal/config"
	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/handlers"
	"github.com/benvon/calendar-todo/internal/logger"
	"github.com/benvon/calendar-todo/internal/middleware"
	"github.com/benvon/calendar-todo/internal/queue"
	"github.com/benvon/calendar-todo/internal/services/planner"
	"github.com/benvon/calendar-todo/internal/services/theme"
	"github.com/benvon/calendar-todo/internal/telemetry"
	"github.com/benvon/calendar-todo/internal/workers"
)

const version = "1.0.0"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// stderr sync errors are expected on some platforms
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTELEndpoint,
	})
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		cfg.OTELEnabled = false
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store, err := database.Open(startCtx, cfg.StoreOptions())
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()
	zapLogger.Info("opened_store", zap.String("backend", cfg.StoreBackend))

	var publisher queue.Publisher = queue.NopPublisher{}
	var brokerCheck func(ctx context.Context) error
	if cfg.RabbitMQURL != "" {
		mq, err := queue.ConnectWithRetry(startCtx, cfg.RabbitMQURL, 5, zapLogger)
		if err != nil {
			zapLogger.Warn("events_disabled_rabbitmq_unavailable", zap.Error(err))
		} else {
			publisher = mq
			brokerCheck = mq.HealthCheck
			defer func() {
				if err := mq.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	plan, err := planner.Open(startCtx, store,
		planner.WithLogger(zapLogger),
		planner.WithPublisher(publisher),
	)
	if err != nil {
		// The manager refuses mutations until a reload succeeds
		zapLogger.Error("initial_load_failed", zap.Error(err))
	}

	themeOpts := []theme.Option{theme.WithLogger(zapLogger)}
	if cfg.ThemePersist {
		themeOpts = append(themeOpts, theme.WithPersistence(store))
	}
	themes := theme.NewStore(theme.BuiltinRegistry(), themeOpts...)
	if err := themes.Restore(startCtx); err != nil {
		zapLogger.Warn("failed_to_restore_theme", zap.Error(err))
	}
	stopThemeEvents := theme.PublishChanges(themes, publisher, zapLogger)
	defer stopThemeEvents()

	var rateLimitRedis *redis.Client
	if rs, ok := store.(*database.RedisStore); ok {
		rateLimitRedis = rs.Client()
	}

	router, err := buildRouter(routerDeps{
		cfg:            cfg,
		logger:         zapLogger,
		store:          store,
		planner:        plan,
		themes:         themes,
		brokerCheck:    brokerCheck,
		rateLimitRedis: rateLimitRedis,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_build_router", zap.Error(err))
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// WriteTimeout stays zero so theme event streams survive; other routes
	// are bounded by the Timeout middleware. Streams end when bgCtx is cancelled.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return bgCtx },
	}

	go workers.NewReconciler(plan, cfg.ReconcileInterval, zapLogger).Run(bgCtx)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

type routerDeps struct {
	cfg            *config.Config
	logger         *zap.Logger
	store          database.KVStore
	planner        *planner.Manager
	themes         *theme.Store
	brokerCheck    func(ctx context.Context) error
	rateLimitRedis *redis.Client
}

// buildRouter assembles the middleware chain and routes.
// In gorilla/mux the middleware registered first is the outermost wrapper.
func buildRouter(d routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()

	if d.cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.DefaultServiceName))
	}
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(d.cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Logging(d.logger))

	rateLimitMW, err := middleware.RateLimit(d.cfg.RateLimit, d.rateLimitRedis, d.cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	healthChecker := handlers.NewHealthChecker(d.store, d.brokerCheck)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)

	taskHandler := handlers.NewTaskHandler(d.planner, d.logger)
	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())

	calendarHandler := handlers.NewCalendarHandler(d.planner)
	calendarHandler.RegisterRoutes(apiRouter.PathPrefix("/calendar").Subrouter())

	themeHandler := handlers.NewThemeHandler(d.themes, d.logger)
	themeHandler.RegisterRoutes(apiRouter)
	themeHandler.RegisterStreamRoutes(apiRouter)

	openAPIHandler, err := handlers.NewOpenAPIHandler()
	if err != nil {
		return nil, err
	}
	openAPIHandler.RegisterRoutes(apiRouter)

	// Preflight requests are answered by the CORS middleware; this only
	// keeps the router from returning 405 for them.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":%q}`, version, time.Now().UTC().Format(time.RFC3339))
}
