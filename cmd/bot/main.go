package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/cloudsupply/storebot/internal/bot"
	"github.com/cloudsupply/storebot/internal/config"
	"github.com/cloudsupply/storebot/internal/handler"
	"github.com/cloudsupply/storebot/internal/middleware"
	"github.com/cloudsupply/storebot/internal/repository"
	"github.com/cloudsupply/storebot/internal/service"
	"github.com/cloudsupply/storebot/internal/session"
	"github.com/cloudsupply/storebot/internal/storage"
	"github.com/cloudsupply/storebot/internal/telegram"
	"github.com/cloudsupply/storebot/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	catalogRepo := repository.NewCatalogRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	settingRepo := repository.NewSettingRepository(dbPool)
	statsRepo := repository.NewStatsRepository(dbPool)
	snapshotRepo := repository.NewSnapshotRepository(dbPool)

	// Telegram, sessions, storage
	tgClient := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token, cfg.Telegram.PollTimeout)
	sessions := session.NewStore(redisClient)
	photos := storage.NewPhotoStore(cfg.Shop.DataDir)

	// Services
	publisher := worker.NewPublisher(amqpCh)
	userSvc := service.NewUserService(userRepo)
	catalogSvc := service.NewCatalogService(catalogRepo)
	cartSvc := service.NewCartService(cartRepo, catalogRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, catalogRepo, publisher, cfg.Shop.DeliveryFee, log)
	settingsSvc := service.NewSettingsService(settingRepo)
	statsSvc := service.NewStatsService(statsRepo, userRepo)
	backupSvc := service.NewBackupService(snapshotRepo, orderRepo, cartRepo, cfg.Shop.DataDir)

	// Bot
	storeBot := bot.New(bot.Deps{
		Telegram: tgClient,
		Users:    userSvc,
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Orders:   orderSvc,
		Settings: settingsSvc,
		Stats:    statsSvc,
		Backup:   backupSvc,
		Sessions: sessions,
		Photos:   photos,
	}, cfg.Admin, cfg.Shop, log)

	// Worker
	notifier := worker.NewNotifier(amqpCh, tgClient, orderRepo, userRepo, redisClient, cfg.Admin.Handles(), log)
	if err := notifier.Start(ctx); err != nil {
		log.Error("start notifier", "error", err)
		os.Exit(1)
	}

	// Handlers
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)
	adminH := handler.NewAdminHandler(orderSvc, statsSvc, backupSvc)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	admin := router.Group("/api/v1/admin", middleware.AuthMiddleware(cfg.Admin.JWTSecret))
	{
		admin.GET("/stats", adminH.GetStats)
		admin.GET("/orders", adminH.ListOrders)
		admin.GET("/orders/:id", adminH.GetOrder)
		admin.POST("/backups", adminH.TriggerBackup)
		admin.POST("/repairs", adminH.TriggerRepair)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		log.Info("starting update poller")
		storeBot.Run(ctx, cfg.Telegram.PollTimeout)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notifier.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("bot stopped")
}
