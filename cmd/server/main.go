package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/kevin07696/payment-intents/internal/adapters/memory"
	"github.com/kevin07696/payment-intents/internal/adapters/postgres"
	"github.com/kevin07696/payment-intents/internal/adapters/stripe"
	"github.com/kevin07696/payment-intents/internal/auth"
	"github.com/kevin07696/payment-intents/internal/config"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/internal/handlers"
	"github.com/kevin07696/payment-intents/internal/middleware"
	customerService "github.com/kevin07696/payment-intents/internal/services/customer"
	paymentService "github.com/kevin07696/payment-intents/internal/services/payment"
	svcports "github.com/kevin07696/payment-intents/internal/services/ports"
	pkghttp "github.com/kevin07696/payment-intents/pkg/http"
	pkgmiddleware "github.com/kevin07696/payment-intents/pkg/middleware"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
	"github.com/kevin07696/payment-intents/pkg/security"
	"github.com/kevin07696/payment-intents/pkg/shutdown"
)

const (
	serviceVersion     = "0.1.0"
	poolStatsInterval  = 30 * time.Second
	healthSyncInterval = 10 * time.Second
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		// logger config is part of cfg; fall back to a production logger
		zap.Must(zap.NewProduction()).Fatal("Invalid configuration", zap.Error(err))
	}

	logger := initLogger(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting payment intents service",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
		zap.String("store_driver", cfg.Database.Driver),
		zap.String("secret_manager", cfg.Secrets.Backend),
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	store, err := initStore(ctx, cfg, logger, shutdownMgr)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	deps, err := initDependencies(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	healthChecker := observability.NewHealthChecker(store.pinger)

	var rateLimiter *pkgmiddleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = pkgmiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	}

	var tokenValidator middleware.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		jwtManager, err := auth.NewJWTManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, time.Hour)
		if err != nil {
			logger.Fatal("Invalid AUTH_JWT_SECRET", zap.Error(err))
		}
		tokenValidator = jwtManager
	} else {
		logger.Warn("Bearer token authentication disabled (AUTH_JWT_SECRET not set)")
	}

	// gRPC health service mirrors the readiness check
	if cfg.Server.GRPCPort > 0 {
		if err := startGRPCHealth(cfg.Server.GRPCPort, healthChecker, logger, shutdownMgr); err != nil {
			logger.Fatal("Failed to start gRPC health server", zap.Error(err))
		}
	}

	metricsServer := observability.NewMetricsServer(fmt.Sprintf(":%d", cfg.Server.MetricsPort), healthChecker)
	observability.StartMetricsServer(metricsServer, logger)
	shutdownMgr.Register("metrics-server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	inFlight := shutdown.NewInFlightTracker("http", logger)
	router := handlers.NewRouter(handlers.RouterConfig{
		Payments:    deps.payments,
		Customers:   deps.customers,
		Logger:      logger,
		Health:      healthChecker,
		Timeouts:    deps.timeouts,
		RateLimiter: rateLimiter,
		InFlight:    inFlight,
		Auth:        tokenValidator,
		Development: !cfg.IsProduction(),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// LIFO: drain in-flight requests, then close the listener
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)
	shutdownMgr.Register("http-in-flight", inFlight.Shutdown)

	logger.Info("Payment Integration Service started",
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", cfg.Server.MetricsPort),
	)

	if err := shutdownMgr.WaitForShutdown(ctx); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
	}
}

// storeDeps is the persistence layer selected by STORE_DRIVER
type storeDeps struct {
	txManager ports.TransactionManager
	payments  ports.PaymentRepository
	customers ports.CustomerRepository
	pinger    observability.Pinger
}

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, mgr *shutdown.Manager) (*storeDeps, error) {
	if cfg.Database.Driver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store - data is lost on restart")
		store := memory.NewStore()
		return &storeDeps{txManager: store, payments: store, customers: store, pinger: store}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.QueryTimeout = cfg.Database.QueryTimeout

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, poolCfg, logger)
	if err != nil {
		return nil, err
	}
	// registered first so it closes last
	mgr.RegisterNoErr("database-pool", pool.Close)

	if cfg.Database.MigrateOnStart {
		if err := postgres.MigrateUp(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	monitor := shutdown.NewPeriodicWorker("pool-monitor", poolStatsInterval, logger)
	monitor.Start(func(context.Context) { postgres.LogPoolStats(pool, logger) })
	mgr.Register("pool-monitor", monitor.Shutdown)

	executor := postgres.NewDBExecutor(pool)
	return &storeDeps{
		txManager: executor,
		payments:  postgres.NewPaymentRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		pinger:    executor,
	}, nil
}

// dependencies holds the initialized services
type dependencies struct {
	payments  svcports.PaymentService
	customers svcports.CustomerService
	timeouts  *resilience.TimeoutConfig
}

func initDependencies(ctx context.Context, cfg *config.Config, store *storeDeps, logger *zap.Logger) (*dependencies, error) {
	timeouts := &resilience.TimeoutConfig{
		HTTPHandler: cfg.Server.RequestTimeout,
		Processor:   cfg.Stripe.Timeout,
		Persist:     cfg.Database.PersistTimeout,
		Query:       cfg.Database.QueryTimeout,
	}

	gatewayCfg := stripe.DefaultConfig(cfg.Stripe.APIKey)
	gatewayCfg.BaseURL = cfg.Stripe.BaseURL
	gatewayCfg.MaxConcurrency = cfg.Stripe.MaxConcurrency
	gatewayCfg.Breaker.MaxFailures = cfg.Stripe.BreakerFailures
	gatewayCfg.Breaker.Cooldown = cfg.Stripe.BreakerCooldown

	httpClient := pkghttp.NewHTTPClient(pkghttp.ProcessorClientConfig(), cfg.Stripe.Timeout)
	gateway := stripe.NewGateway(gatewayCfg, httpClient, logger)

	secretManager, err := initSecretManager(ctx, &cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("secret manager: %w", err)
	}
	cipher, err := initTokenCipher(ctx, cfg, secretManager, logger)
	if err != nil {
		return nil, err
	}

	return &dependencies{
		payments: paymentService.NewService(
			store.txManager,
			store.payments,
			gateway,
			timeouts,
			security.NewZapLogger(logger.Named("payments")),
		),
		customers: customerService.NewCustomerService(
			store.txManager,
			store.customers,
			cipher,
			timeouts,
			logger.Named("customers"),
		),
		timeouts: timeouts,
	}, nil
}

// initLogger builds the zap logger from LOG_LEVEL and LOG_DEVELOPMENT
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zap.Must(zapCfg.Build())
}

// startGRPCHealth serves grpc.health.v1 on port and keeps its status in
// sync with the readiness check.
func startGRPCHealth(port int, hc *observability.HealthChecker, logger *zap.Logger, mgr *shutdown.Manager) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			observability.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			recoveryInterceptor(logger),
		),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		logger.Info("gRPC health server listening", zap.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	healthSync := shutdown.NewPeriodicWorker("grpc-health-sync", healthSyncInterval, logger)
	healthSync.Start(func(ctx context.Context) {
		status := healthpb.HealthCheckResponse_SERVING
		if !hc.Check(ctx).Healthy() {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		healthServer.SetServingStatus("", status)
	})

	mgr.Register("grpc-server", func(ctx context.Context) error {
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			grpcServer.Stop()
			return ctx.Err()
		}
	})
	mgr.Register("grpc-health-sync", healthSync.Shutdown)
	return nil
}
