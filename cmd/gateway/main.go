package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gw "dealeraccess/internal/gateway"
	"dealeraccess/internal/gateway/adapter/inmem"
	"dealeraccess/internal/gateway/adapter/proxy"
	"dealeraccess/internal/gateway/adapter/redis"
	"dealeraccess/internal/gateway/middleware"
	"dealeraccess/internal/platform/config"
	"dealeraccess/internal/platform/server"
	"dealeraccess/internal/platform/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(context.Background(), "dealeraccess-gateway")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	var srvOpts []server.Option
	var limiter gw.RateLimiter
	switch cfg.RateLimit.Backend {
	case "redis":
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		limit := max(int(cfg.RateLimit.Rate*cfg.RateLimit.Window.Seconds()), 1)
		limiter = redis.NewRateLimiter(client, limit, cfg.RateLimit.Window, time.Now)
	default:
		rl := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)
		srvOpts = append(srvOpts, server.WithBackground(func(ctx context.Context) {
			rl.Run(ctx, 5*time.Minute)
		}))
		limiter = rl
	}

	router, err := proxy.NewRouter(cfg.DealerAPIURL, nil, metrics)
	if err != nil {
		slog.Error("router initialization failed", "error", err)
		os.Exit(1)
	}

	publicPaths := append([]string{"/metrics"}, proxy.PublicPaths...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/", middleware.Chain(
		router,
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.MaxBodySize(cfg.MaxBodyBytes),
		middleware.Tenant(cfg.DefaultTenantID),
		middleware.RateLimit(limiter, metrics),
		middleware.Auth(middleware.AuthConfig{
			Secret:      cfg.JWTSecret,
			PublicPaths: publicPaths,
			DemoMode:    cfg.DemoMode,
		}, metrics),
	))

	srvOpts = append(srvOpts, server.WithLogger(logger))
	srv := server.New("gateway", cfg.GatewayAddr, mux, srvOpts...)

	slog.Info("gateway starting",
		"addr", cfg.GatewayAddr,
		"dealer_api_url", cfg.DealerAPIURL,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"demo_mode", cfg.DemoMode,
	)
	if cfg.DemoMode {
		slog.Warn("demo mode enabled: X-Demo-Auth requests bypass session validation")
	}

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
