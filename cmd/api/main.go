package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storefronthq/storefront-backend/api/routes"
	"github.com/storefronthq/storefront-backend/internal/activity"
	"github.com/storefronthq/storefront-backend/internal/auth"
	"github.com/storefronthq/storefront-backend/internal/notifications"
	"github.com/storefronthq/storefront-backend/internal/orders"
	"github.com/storefronthq/storefront-backend/internal/products"
	"github.com/storefronthq/storefront-backend/internal/promotions"
	"github.com/storefronthq/storefront-backend/internal/reviews"
	"github.com/storefronthq/storefront-backend/internal/users"
	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/db"
	"github.com/storefronthq/storefront-backend/pkg/logger"
	"github.com/storefronthq/storefront-backend/pkg/metrics"
	"github.com/storefronthq/storefront-backend/pkg/redis"
	"github.com/storefronthq/storefront-backend/pkg/storage/disk"
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
		Console:     cfg.App.IsDev(),
	})

	dbClient, err := db.New(context.Background(), cfg.Mongo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mongo", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()

	if err := db.EnsureIndexes(context.Background(), dbClient); err != nil {
		logg.Error(context.Background(), "failed to ensure indexes", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, auth rate limiting disabled")
	}

	mediaStore, err := disk.New(cfg.Media.Dir, "/uploads")
	if err != nil {
		logg.Error(context.Background(), "failed to prepare media directory", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient)
	adminRepo := users.NewAdminRepository(dbClient)
	productRepo := products.NewRepository(dbClient)
	orderRepo := orders.NewRepository(dbClient)
	promotionRepo := promotions.NewRepository(dbClient)
	reviewRepo := reviews.NewRepository(dbClient)
	activityRepo := activity.NewRepository(dbClient)

	activityService, err := activity.NewService(activity.ServiceParams{
		Store:  activityRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:    userRepo,
		Admins:   adminRepo,
		JWT:      cfg.JWT,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		Store:    userRepo,
		Products: productRepo,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Store: productRepo,
		Media: mediaStore,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	promotionService, err := promotions.NewService(promotions.ServiceParams{
		Store: promotionRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Store:    reviewRepo,
		Catalog:  productRepo,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	mailSender := notifications.NewEmailSender(cfg.SMTP, logg)

	orderParams := orders.ServiceParams{
		Store:      orderRepo,
		Stock:      productRepo,
		Accounts:   userRepo,
		Promotions: promotionService,
		Activity:   activityService,
		Logger:     logg,
	}
	if mailSender != nil {
		orderParams.Mailer = mailSender
	}
	orderService, err := orders.NewService(orderParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		httpMetrics,
		metricsHandler,
		routes.Services{
			Auth:       authService,
			Users:      userService,
			Products:   productService,
			Reviews:    reviewService,
			Orders:     orderService,
			Promotions: promotionService,
			Activity:   activityService,
		},
		mediaStore.Dir(),
	)

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
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
