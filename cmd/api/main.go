package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/cart"
	"github.com/chaitanyaponnada/projecthub/internal/catalog"
	"github.com/chaitanyaponnada/projecthub/internal/checkout"
	"github.com/chaitanyaponnada/projecthub/internal/config"
	"github.com/chaitanyaponnada/projecthub/internal/httpx"
	kafkax "github.com/chaitanyaponnada/projecthub/internal/kafka"
	"github.com/chaitanyaponnada/projecthub/internal/payu"
	"github.com/chaitanyaponnada/projecthub/internal/postgres"
	"github.com/chaitanyaponnada/projecthub/internal/redisx"
	"github.com/chaitanyaponnada/projecthub/internal/users"
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
	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicCheckoutCompleted, 1024, log)
	prod.Start(ctx)

	// Services
	catalogSvc := catalog.NewService(&catalog.Repo{DB: db}, rdb, log)
	userSvc := users.NewService(&users.Repo{DB: db}, rdb)
	carts := cart.NewRedisStore(rdb)
	checkoutSvc := checkout.NewService(
		&checkout.Repo{DB: db}, carts, prod, log,
		payu.Credentials{Key: cfg.PayUKey, Salt: cfg.PayUSalt},
		cfg.BaseURL+"/payment/callback", cfg.ServiceName,
	)

	// Router & handlers
	router := httpx.NewRouter()
	auth := &httpx.Auth{Users: userSvc}

	authH := &httpx.AuthHandler{Users: userSvc, Log: log}
	catalogH := &httpx.CatalogHandler{Catalog: catalogSvc, Log: log}
	cartH := &httpx.CartHandler{Carts: carts, Catalog: catalogSvc, Log: log}
	paymentH := &httpx.PaymentHandler{Checkout: checkoutSvc, Catalog: catalogSvc, Log: log, FrontendURL: cfg.FrontendURL}
	adminH := &httpx.AdminHandler{Catalog: catalogSvc, Checkout: checkoutSvc, Log: log}

	authH.Register(router)
	catalogH.Register(router)
	paymentH.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(auth.Require)
		authH.RegisterProtected(r)
		catalogH.RegisterProtected(r)
		cartH.RegisterProtected(r)
		paymentH.RegisterProtected(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		adminH.RegisterAdmin(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
}
