package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logging"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
)

// 終了時に閉じるもの
type publisher interface {
	repo.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", "storefront-api", "env", cfg.GoEnv)
	slog.SetDefault(logger)

	//DB接続
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Connect(connectCtx, cfg.DSN())
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//イベント（ブローカー未設定なら送らない）
	var pub publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		logger.Info("order events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	stockRepo := infraRepo.NewStockGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, stockRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, logger)
	checkoutUC := usecase.NewCheckoutUsecase(stockRepo, orderRepo, orderItemRepo, pub, cfg.Checkout, logger)
	orderUC := usecase.NewOrderUsecase(txm)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, pub, logger)

	//Handler生成
	e := server.New(cfg, logger, server.Handlers{
		Products:      handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(cartUC, checkoutUC),
		Orders:        handler.NewOrderHandler(orderUC),
		AdminOrders:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, e, cfg.Port, logger); err != nil {
		logger.Error("server error", "error", err.Error())
	}

	//送信中のイベントを待ってから閉じる
	checkoutUC.Wait()
	adminOrderUC.Wait()
	if err := pub.Close(); err != nil {
		logger.Warn("event publisher close", "error", err.Error())
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
