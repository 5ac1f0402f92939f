package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"qms/shift-service/internal/auth"
	"qms/shift-service/internal/broadcast"
	"qms/shift-service/internal/cache"
	"qms/shift-service/internal/config"
	"qms/shift-service/internal/httpapi"
	"qms/shift-service/internal/logging"
	"qms/shift-service/internal/store/postgres"
	"qms/shift-service/internal/telemetry"
)

const serviceName = "shift-service"

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("shift-service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(serviceName, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}
	store := postgres.NewStore(pool)

	var listCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		listCache = cache.NewRedis(redisClient, serviceName+":")
	}

	hub := broadcast.NewHub(logger)
	sinks := []broadcast.Sink{hub}
	if cfg.PubNubPublishKey != "" {
		sinks = append(sinks, broadcast.NewPubNub(broadcast.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UserID:       serviceName,
		}))
	}
	if cfg.MQTTBrokerURL != "" {
		mqttSink, err := broadcast.DialMQTT(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			return err
		}
		defer mqttSink.Close()
		sinks = append(sinks, mqttSink)
	}

	relay := broadcast.NewRelay(store, sinks, broadcast.RelayConfig{BatchSize: cfg.RelayBatchSize}, logger)
	go relay.Start(ctx, cfg.RelayPollInterval)

	handler := httpapi.NewHandler(store, httpapi.Options{
		Cache:    listCache,
		CacheTTL: cfg.CacheTTL,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, serviceName),
		TokenTTL: cfg.TokenTTL,
		Logger:   logger,
		Realtime: hub.Handler("/realtime"),
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:     cfg.RateLimitPerMinute,
		IPBurst:         cfg.RateLimitBurst,
		ModulePerMinute: cfg.ModuleRateLimitPerMinute,
		ModuleBurst:     cfg.ModuleRateLimitBurst,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(limiter.Middleware(handler.Routes()), serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shift-service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
