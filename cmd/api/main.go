package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mfigueroa/shopsync-backend/api/routes"
	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/internal/orders"
	"github.com/mfigueroa/shopsync-backend/internal/products"
	"github.com/mfigueroa/shopsync-backend/internal/ratelimit"
	"github.com/mfigueroa/shopsync-backend/internal/realtime"
	"github.com/mfigueroa/shopsync-backend/internal/sales"
	"github.com/mfigueroa/shopsync-backend/internal/users"
	pkgauth "github.com/mfigueroa/shopsync-backend/pkg/auth"
	"github.com/mfigueroa/shopsync-backend/pkg/config"
	"github.com/mfigueroa/shopsync-backend/pkg/db"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/metrics"
	"github.com/mfigueroa/shopsync-backend/pkg/migrate"
	"github.com/mfigueroa/shopsync-backend/pkg/redis"
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
	}

	limiter, err := buildCartLimiter(cfg.CartRateLimit, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build rate limiter", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	realtimeMetrics := metrics.NewRealtimeMetrics(registry)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	verifier := realtime.VerifierFunc(func(token string) (*pkgauth.AccessTokenClaims, error) {
		return pkgauth.ParseAccessToken(cfg.JWT, token)
	})
	hub, err := realtime.NewHub(verifier, logg, realtimeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime hub", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	salesRepo := sales.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	cartService, err := cart.NewService(cartRepo, dbClient, limiter)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(productRepo, salesRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	salesService, err := sales.NewService(salesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, productRepo, salesRepo, userRepo, dbClient, logg, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, registry, hub,
			cartService, orderService, productService, salesService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildCartLimiter(cfg config.CartRateLimitConfig, redisClient *redis.Client) (ratelimit.Limiter, error) {
	if cfg.Backend == config.RateLimitBackendRedis {
		if redisClient == nil {
			return nil, errors.New("redis rate limit backend requires a redis connection")
		}
		return ratelimit.NewRedisLimiter(redisClient, cfg.Limit, cfg.Window), nil
	}
	return ratelimit.NewMemoryLimiter(cfg.Limit, cfg.Window), nil
}
