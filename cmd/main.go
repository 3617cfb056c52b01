package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kityk/wms-order-service/internal/app"
	"github.com/kityk/wms-order-service/internal/config"
	"github.com/kityk/wms-order-service/internal/events"
	"github.com/kityk/wms-order-service/internal/handler"
	"github.com/kityk/wms-order-service/internal/health"
	"github.com/kityk/wms-order-service/internal/inventory"
	"github.com/kityk/wms-order-service/internal/postgres"
	"github.com/kityk/wms-order-service/internal/pricing"
	"github.com/kityk/wms-order-service/internal/repo"
	"github.com/kityk/wms-order-service/internal/service"
	"github.com/kityk/wms-order-service/pkg/cache"
	"github.com/kityk/wms-order-service/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// @title           WMS Order Service API
// @version         1.0
// @description     HTTP API управления заказами
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)

	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	orderCache.StartJanitor(ctx)

	inventoryClient := inventory.NewClient(conf.Inventory.BaseURL, conf.Inventory.Timeout)
	productValidator := service.NewProductValidator(logger, inventoryClient)
	stockLocker := service.NewStockLocker(logger, inventoryClient)

	defaultPrice, err := decimal.NewFromString(conf.Pricing.DefaultUnitPrice)
	panicIfErr("invalid default unit price", err)
	pricer, err := pricing.NewStaticPricer(defaultPrice, nil)
	panicIfErr("invalid pricing config", err)

	var publisher service.EventPublisher = events.NopPublisher{}
	if conf.Kafka.Enabled() {
		kafkaPublisher := events.NewKafkaPublisher(logger, conf.Kafka)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", slog.Any("brokers", conf.Kafka.Brokers))
	}

	orderService := service.NewOrderService(logger, txManager, orderRepo, productValidator, stockLocker, pricer, orderCache, publisher)

	httpHandler := handler.NewHTTPHandler(logger, orderService)
	healthHandler := health.NewHandler(health.NewDBChecker(db))

	application := app.New(logger, conf)
	application.SetHTTPHandlers(httpHandler, healthHandler)

	panicIfErr("application error", application.Run(ctx))
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
