package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safetyline/hsg245-stack/common/config"
	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/common/messaging"
	"github.com/safetyline/hsg245-stack/common/messaging/nats"
	"github.com/safetyline/hsg245-stack/common/middleware"
	"github.com/safetyline/hsg245-stack/proxy/internal/backend"
	"github.com/safetyline/hsg245-stack/proxy/internal/handlers"
	"github.com/safetyline/hsg245-stack/proxy/internal/lifecycle"
	"github.com/safetyline/hsg245-stack/proxy/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("hsg245-proxy"))
	logging.SetDefault(logger)

	var store lifecycle.Store = lifecycle.NewMemoryStore(cfg.Redis.TTL)
	if cfg.Redis.Enabled {
		redisStore, err := lifecycle.NewRedisStore(cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			logger.Warn("redis unavailable, lifecycle tracking is in-memory", logging.Error(err))
		} else {
			logger.Info("connected to redis for lifecycle tracking")
			store = redisStore
		}
	}
	defer store.Close()

	var publisher messaging.Publisher
	if cfg.NATS.Enabled {
		natsCfg := nats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "hsg245-proxy"
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWait
		natsCfg.Logger = logger.Logger

		natsClient, err := nats.NewClient(natsCfg)
		if err != nil {
			logger.Warn("nats unavailable, lifecycle events disabled", logging.Error(err))
		} else {
			logger.Info("connected to nats", "url", cfg.NATS.URL)
			publisher = natsClient
			defer func() {
				if err := natsClient.Drain(); err != nil {
					logger.Error("failed to drain nats connection", logging.Error(err))
				}
			}()
		}
	}

	tracker := lifecycle.NewTracker(store, publisher, logger)
	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	router := server.NewRouter(server.RouterConfig{
		HSG245Handler:    handlers.NewHSG245Handler(backendClient, tracker, logger, cfg.Server.Development()),
		LifecycleHandler: handlers.NewLifecycleHandler(store, logger),
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
		},
		Security:    middleware.SecurityConfig{HSTS: cfg.Server.HSTS},
		Logger:      logger,
		DevMode:     cfg.Server.Development(),
		MetricsPath: metricsPath,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("hsg245 proxy listening",
			"addr", srv.Addr,
			logging.BackendURL(cfg.Backend.URL),
			"environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", logging.Error(err))
	}
	logger.Info("server stopped")
}
