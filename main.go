package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servimatch/config"
	"servimatch/cron"
	"servimatch/database"
	"servimatch/database/repository"
	categoryRepo "servimatch/database/repository/category"
	"servimatch/handlers"
	"servimatch/models"
	"servimatch/routes"
	"servimatch/services/availability"
	"servimatch/services/booking"
	"servimatch/services/locking"
	"servimatch/services/matching"
	"servimatch/services/notification"
	"servimatch/services/tasks"
	"servimatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type seedData struct {
	Providers  []models.ServiceProvider
	Categories []models.Category
}

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.AppConfig.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET must be set")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	stores, mongoClient := openStores(rootCtx, logger)
	cacheClient := utils.GetCacheClient()
	loc := config.AppConfig.Location()

	// Locking.
	var locker locking.ProviderLocker = locking.NewKeyedMutex()
	if config.AppConfig.LockBackend == "redis" {
		if cacheClient == nil {
			logger.Fatal("main: LOCK_BACKEND=redis requires a reachable Redis")
		}
		locker = locking.NewRedisLocker(cacheClient, config.AppConfig.LockTTL())
	}

	// Reminders only run when Redis is reachable.
	var (
		reminders booking.ReminderScheduler
		queue     *asynq.Client
		inspector *asynq.Inspector
		worker    *asynq.Server
	)
	if cacheClient != nil {
		queue = asynq.NewClient(cron.QueueRedisOpt())
		inspector = asynq.NewInspector(cron.QueueRedisOpt())
		reminders = &tasks.ReminderScheduler{
			Client:  queue,
			Deleter: inspector,
			Lead:    config.AppConfig.ReminderLead(),
			Logger:  logger.Named("reminders"),
		}
		notifier := notification.NewLogNotificationService(logger.Named("notification"))
		worker = cron.InitReminderWorker(rootCtx, notifier, stores.Requests, logger.Named("worker"))
	} else {
		logger.Warn("main: reminders disabled, Redis unavailable")
	}

	// Services.
	matcher := &matching.DefaultMatchingService{
		Providers:    stores.Providers,
		Categories:   categoryRepo.NewCachedCategoryDirectory(stores.Categories, cacheClient),
		CacheClient:  cacheClient,
		CacheTTL:     config.AppConfig.MatchCacheTTL(),
		Workers:      config.AppConfig.MatchWorkers,
		VerifiedOnly: config.AppConfig.MatchVerifiedOnly,
		Logger:       logger.Named("matching"),
	}
	slots := availability.NewManager(stores.Slots, locker, loc, logger.Named("availability"))
	checker := booking.NewConflictChecker(stores.Slots, stores.Requests, loc)
	requests := booking.NewRequestService(stores.Requests, stores.Providers, checker, locker, reminders, logger.Named("requests"))

	// Health.
	var redisClients []*redis.Client
	if cacheClient != nil {
		redisClients = append(redisClients, cacheClient)
	}
	utils.StartHealthMonitor(rootCtx, 30*time.Second, redisClients, mongoClient)
	health := &handlers.HealthHandler{
		Degraded: func(s utils.HealthStatus) bool { return s.Mongo != nil && !*s.Mongo },
	}

	handlerBundle := handlers.NewHandlerBundle(matcher, slots, requests, health, config.AppConfig.MatchMaxResults)

	router := gin.New()
	router.Use(utils.ErrorHandler())
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("storage", config.AppConfig.StorageDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queue != nil {
		_ = queue.Close()
	}
	if inspector != nil {
		_ = inspector.Close()
	}
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: failed to close MongoDB", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}

// openStores builds the repositories for the configured storage driver.
func openStores(ctx context.Context, logger *zap.Logger) (*repository.Stores, *mongo.Client) {
	switch config.AppConfig.StorageDriver {
	case "memory":
		var seed seedData
		if path := config.AppConfig.SeedFile; path != "" {
			if err := config.LoadSeed(path, &seed); err != nil {
				logger.Fatal("main: failed to load seed data", zap.Error(err))
			}
		}
		logger.Info("Using in-memory storage",
			zap.Int("providers", len(seed.Providers)),
			zap.Int("categories", len(seed.Categories)))
		return repository.NewMemoryStores(seed.Providers, seed.Categories), nil

	case "mongo", "":
		if err := database.InitDB(); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		stores, err := repository.NewMongoStores(idxCtx, database.DB())
		if err != nil {
			logger.Fatal("main: failed to prepare MongoDB collections", zap.Error(err))
		}
		return stores, database.MongoClient

	default:
		logger.Fatal("main: unknown STORAGE_DRIVER", zap.String("driver", config.AppConfig.StorageDriver))
		return nil, nil
	}
}
