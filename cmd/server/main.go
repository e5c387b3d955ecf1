package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-service/config"
	"pos-service/internal/api"
	"pos-service/internal/broker"
	"pos-service/internal/catalog"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"
	"pos-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting POS service")

	tp, err := util.InitTracer("pos-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer util.ShutdownTracer(tp, 5*time.Second)

	ctx := context.Background()
	var checks []api.ReadinessCheck

	// Archive (optional)
	var db *store.Store
	if cfg.Database.URL != "" {
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: db.Ping})
		logger.Info("Database connected")
	}

	products, err := loadProducts(ctx, db)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	cat := catalog.New(products...)
	logger.Info("Catalog loaded", zap.Int("products", cat.Len()))

	opts := service.Options{
		BillPrefix:        cfg.Business.BillPrefix,
		EnforceStockLimit: cfg.Business.EnforceStockLimit,
		PriceTolerance:    cfg.Business.PriceMismatchTolerance,
		DefaultMinStock:   cfg.Business.DefaultMinStock,
		IdempotencyTTL:    cfg.Redis.IdempotencyTTL,
		Location:          cfg.Business.Location(),
	}

	// Sessions, shelf prices and idempotency keys live in Redis when it is reachable
	var sessions service.SessionStore
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, keeping sessions in memory", zap.Error(err))
		sessions = service.NewMemorySessionStore()
	} else {
		defer redisClient.Close()
		sessions = redisClient
		opts.PriceFeed = redisclient.NewPriceFeed(redisClient, cfg.Redis.PriceKey)
		opts.Idempotency = redisClient
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
		logger.Info("Redis connected")
	}

	// Sale events (optional)
	var publisher broker.Publisher = broker.NopPublisher{}
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var archiveWorker *worker.ArchiveWorker
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		if db != nil {
			consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
			archiveWorker = worker.NewArchiveWorker(consumer, db)
			go func() {
				if err := archiveWorker.Start(workerCtx); err != nil {
					logger.Error("Archive worker error", zap.Error(err))
				}
			}()
		}
	} else if db != nil {
		logger.Warn("Archive configured without Kafka; completed sales will not be archived")
	}

	posService := service.NewPOSService(cat, publisher, opts)
	authService := service.NewAuthService(sessions, cfg.Auth.AdminPIN, cfg.Auth.CashierPIN, cfg.Auth.SessionTTL)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(posService, authService, checks...)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if archiveWorker != nil {
		if err := archiveWorker.Stop(); err != nil {
			logger.Error("Failed to stop archive worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// loadProducts reads the archived catalog, seeding it with the demo products on first start
func loadProducts(ctx context.Context, db *store.Store) ([]models.Product, error) {
	if db == nil {
		return catalog.DefaultProducts(), nil
	}

	products, err := db.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return products, nil
	}

	products = catalog.DefaultProducts()
	if err := db.UpsertProducts(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}
