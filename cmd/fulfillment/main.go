package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/checkout"
	"github.com/chaitanyaponnada/projecthub/internal/config"
	"github.com/chaitanyaponnada/projecthub/internal/fulfillment"
	kafkax "github.com/chaitanyaponnada/projecthub/internal/kafka"
	"github.com/chaitanyaponnada/projecthub/internal/postgres"
	"github.com/chaitanyaponnada/projecthub/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &fulfillment.Service{
		Repo:        &fulfillment.Repo{DB: db},
		Redis:       rdb,
		Log:         log,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	// Consumer
	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicCheckoutCompleted, workers, log)

	go func() {
		log.Info("fulfillment consumer started",
			zap.String("group", group),
			zap.String("topic", checkout.TopicCheckoutCompleted),
			zap.Int("workers", workers),
		)
		if err := cons.Start(ctx, svc.HandleCheckoutCompleted); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
