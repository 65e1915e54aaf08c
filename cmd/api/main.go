package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omarkhaled/stayhub-backend/api/routes"
	"github.com/omarkhaled/stayhub-backend/internal/payments"
	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/internal/wallet"
	"github.com/omarkhaled/stayhub-backend/internal/webhookguard"
	"github.com/omarkhaled/stayhub-backend/pkg/config"
	"github.com/omarkhaled/stayhub-backend/pkg/db"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/metrics"
	"github.com/omarkhaled/stayhub-backend/pkg/migrate"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
	"github.com/omarkhaled/stayhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymobClient, err := paymob.NewClient(context.Background(), cfg.Paymob, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paymob client", err)
		os.Exit(1)
	}

	reconMetrics := metrics.NewReconciliationMetrics(prometheus.DefaultRegisterer)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Payments: payments.NewPaymentRepository(dbClient.DB()),
		Bookings: payments.NewBookingRepository(dbClient.DB()),
		Tx:       dbClient,
		Metrics:  reconMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Payouts:  payouts.NewRepository(dbClient.DB()),
		Wallet:   wallet.NewRepository(dbClient.DB()),
		Provider: paymobClient,
		Tx:       dbClient,
		Config:   cfg.Payouts,
		Metrics:  reconMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	guard := webhookguard.New(redisClient, logg, webhookguard.DefaultTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, paymobClient, paymentService, payoutService, guard),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
