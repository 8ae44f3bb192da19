package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/channel"
	"github.com/fekuna/omnipos-stock-service/internal/notification/composer"
	"github.com/fekuna/omnipos-stock-service/internal/replenishment"
	"github.com/fekuna/omnipos-stock-service/internal/stockstate"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/internal/velocity"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/scheduler"
	"github.com/fekuna/omnipos-stock-service/pkg/tracing"

	catH "github.com/fekuna/omnipos-stock-service/internal/catalog/handler"
	catRepoPkg "github.com/fekuna/omnipos-stock-service/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-stock-service/internal/catalog/usecase"

	invH "github.com/fekuna/omnipos-stock-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/usecase"

	monH "github.com/fekuna/omnipos-stock-service/internal/monitor/handler"

	notifH "github.com/fekuna/omnipos-stock-service/internal/notification/handler"
	notifRepoPkg "github.com/fekuna/omnipos-stock-service/internal/notification/repository"
	notifUCPkg "github.com/fekuna/omnipos-stock-service/internal/notification/usecase"

	thH "github.com/fekuna/omnipos-stock-service/internal/threshold/handler"
	thRepoPkg "github.com/fekuna/omnipos-stock-service/internal/threshold/repository"
	thUCPkg "github.com/fekuna/omnipos-stock-service/internal/threshold/usecase"

	velRepoPkg "github.com/fekuna/omnipos-stock-service/internal/velocity/repository"
	velUCPkg "github.com/fekuna/omnipos-stock-service/internal/velocity/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, &tracing.Config{
		Endpoint:    cfg.Tracing.OTLPEndpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		appLogger.Fatal("Could not initialize tracing", zap.Error(err))
	}

	// 4. Storage and locks
	var redisClient *cache.RedisClient
	if cfg.Storage.Driver == "redis" || cfg.Storage.LockDriver == "redis" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	store, closeStore := openStore(ctx, cfg, redisClient, appLogger)
	defer closeStore()

	var locks keylock.Locker = keylock.NewLocal()
	if cfg.Storage.LockDriver == "redis" {
		locks = keylock.NewRedis(redisClient, cfg.Storage.LockTTL)
	}

	clk := clock.New()

	// 5. Initialize Repositories
	catRepo := catRepoPkg.NewKVRepository(store, locks, appLogger)
	invRepo := invRepoPkg.NewKVRepository(store, locks, appLogger)
	thRepo := thRepoPkg.NewKVRepository(store, appLogger)
	velRepo := velRepoPkg.NewKVRepository(store, locks, appLogger)
	stateRepo := notifRepoPkg.NewStateRepository(store, locks, appLogger)
	inboxRepo := notifRepoPkg.NewInboxRepository(store, locks, appLogger)

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(catRepo, cfg.Monitor.MonitoredCategories, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, locks, clk, appLogger)
	thUC := thUCPkg.NewThresholdUseCase(thRepo, appLogger)
	var velUC velocity.UseCase = velUCPkg.Disabled{}
	if cfg.Monitor.VelocityEnabled {
		velUC = velUCPkg.NewTracker(velRepo, clk, appLogger)
	}

	evaluator := stockstate.NewEvaluator(invUC, thUC, velUC, catUC, clk, cfg.Monitor.AlternativeMinStock, appLogger)

	notifCfg, err := notificationConfig(&cfg.Notify)
	if err != nil {
		appLogger.Fatal("Invalid notification configuration", zap.Error(err))
	}
	stats := notification.NewStats()
	dispatcher := channel.NewDispatcher(
		channel.NewInApp(inboxRepo, notifCfg.InboxLimit),
		externalSenders(&cfg.Notify, appLogger),
		cfg.Notify.Recipients,
		channel.Config{MaxRetries: uint(cfg.Notify.ChannelMaxRetries)},
		stats,
		appLogger,
	)

	var primary composer.Composer
	if cfg.Notify.ComposerURL != "" {
		primary = composer.NewHTTPComposer(cfg.Notify.ComposerURL, &http.Client{}, appLogger)
	}
	orchestrator := notifUCPkg.NewOrchestrator(notifCfg, stateRepo, locks, clk,
		composer.WithFallback(primary, cfg.Notify.ComposerTimeout, appLogger), dispatcher, stats, appLogger)

	monitorSvc := monitor.NewService(monitor.Config{
		DefaultLocationID:  cfg.Monitor.DefaultLocationID,
		SweepInterval:      cfg.Monitor.SweepInterval,
		EscalationInterval: cfg.Notify.EscalationSweepInterval,
		DigestInterval:     cfg.Notify.DigestInterval,
		SweepConcurrency:   cfg.Monitor.SweepConcurrency,
	}, invUC, velUC, evaluator, replenishment.NewCalculator(), orchestrator, catUC, appLogger)

	// 7. Background tasks
	sched := scheduler.New(clk, appLogger)
	sched.Start(ctx, monitorSvc.Tasks()...)

	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, monitorSvc, appLogger)
		go invListener.Start(ctx)
	}

	// 8. Initialize Handlers
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, auth.Middleware)
	router.Route("/api/v1", func(r chi.Router) {
		catH.NewCatalogHandler(catUC, appLogger).Register(r)
		invH.NewInventoryHandler(invUC, appLogger).Register(r)
		thH.NewThresholdHandler(thUC, appLogger).Register(r)
		monH.NewMonitorHandler(monitorSvc, appLogger).Register(r)
		notifH.NewNotificationHandler(orchestrator, inboxRepo, appLogger).Register(r)
	})

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 9. Start gRPC Server (health and reflection)
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	cancel()

	orchestrator.Flush(shutdownCtx)
	dispatcher.Wait()
	grpcServer.GracefulStop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Tracing shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, redisClient *cache.RedisClient, log logger.ZapLogger) (storage.Store, func()) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("Using in-memory storage, state is lost on restart")
		return storage.NewMemoryStore(), func() {}
	case "redis":
		return storage.NewRedisStore(redisClient, cfg.Redis.Prefix), func() {}
	case "postgres":
		db, err := database.NewPostgres(&database.PostgresConfig{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			log.Fatal("Could not connect to database", zap.Error(err))
		}
		log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		return migrated(ctx, storage.NewSQLStore(db), log), func() { db.Close() }
	default:
		db, err := database.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal("Could not open SQLite database", zap.Error(err))
		}
		log.Info("Opened SQLite database", zap.String("path", cfg.Storage.SQLitePath))
		return migrated(ctx, storage.NewSQLStore(db), log), func() { db.Close() }
	}
}

func migrated(ctx context.Context, s *storage.SQLStore, log logger.ZapLogger) *storage.SQLStore {
	if err := s.Migrate(ctx); err != nil {
		log.Fatal("Could not migrate kv_store", zap.Error(err))
	}
	return s
}

func notificationConfig(c *config.NotifyConfig) (notification.Config, error) {
	cfg := notification.DefaultConfig()
	cfg.Enabled = c.Enabled
	cfg.Cooldowns = map[model.Severity]time.Duration{
		model.SeverityInfo:     c.CooldownInfo,
		model.SeverityWarning:  c.CooldownWarning,
		model.SeverityCritical: c.CooldownCritical,
	}
	cfg.IgnoreQuietForCritical = c.IgnoreQuietForCritical
	cfg.AggregationWindow = c.AggregationWindow
	cfg.EscalationAfter = c.EscalationAfter
	cfg.EscalationRole = model.Role(c.EscalationRole)
	cfg.DigestInterval = c.DigestInterval
	cfg.InboxLimit = c.InboxLimit

	start, err := notification.ParseClock(c.QuietHoursStart)
	if err != nil {
		return cfg, err
	}
	end, err := notification.ParseClock(c.QuietHoursEnd)
	if err != nil {
		return cfg, err
	}
	loc, err := time.LoadLocation(c.QuietHoursTZ)
	if err != nil {
		return cfg, err
	}
	cfg.QuietHours = notification.QuietHours{Enabled: c.QuietHoursEnabled, Start: start, End: end, Location: loc}
	return cfg, nil
}

// externalSenders builds one sender per external channel. Push, email and SMS
// have no provider wired and are logged instead.
func externalSenders(c *config.NotifyConfig, log logger.ZapLogger) []channel.Sender {
	senders := []channel.Sender{
		channel.NewLogSender(model.ChannelPush, log),
		channel.NewLogSender(model.ChannelEmail, log),
		channel.NewLogSender(model.ChannelSMS, log),
	}
	if c.WebhookURL != "" {
		senders = append(senders, channel.NewWebhook(c.WebhookURL, &http.Client{Timeout: 10 * time.Second}, c.WebhookRatePerSec))
	}
	return senders
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
