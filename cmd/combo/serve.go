package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/seayoo-io/combo-sdk-go/api"
	"github.com/seayoo-io/combo-sdk-go/idempotency"
	"github.com/seayoo-io/combo-sdk-go/idempotency/pgstore"
	"github.com/seayoo-io/combo-sdk-go/idempotency/redisstore"
	"github.com/seayoo-io/combo-sdk-go/internal/config"
	"github.com/seayoo-io/combo-sdk-go/internal/logger"
	"github.com/seayoo-io/combo-sdk-go/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the demo game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{Env: cfg.Primary.Env, Level: cfg.Logger.Level})
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting combo demo server",
		zap.String("port", cfg.Server.Port),
		zap.String("game", cfg.Combo.Game),
		zap.String("store", cfg.Store.Driver),
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	store, closeStore, err := openStore(ctx, workerCtx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		cancelWorkers()
		closeStore()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	client, err := api.NewClient(cfg.Combo.SDK(),
		api.WithLogger(log.Named("api")),
		api.WithAttemptObserver(m.ObserveAttempt),
	)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	handler, err := newRouter(routerDeps{
		cfg:      cfg,
		logger:   log,
		store:    store,
		game:     newDemoGame(client, cfg.Server.PublicNotifyURL, log.Named("game")),
		metrics:  m,
		gatherer: registry,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}

// openStore builds the configured idempotency store. For postgres it also
// runs the migration and starts the sweeper on workerCtx.
func openStore(ctx, workerCtx context.Context, cfg *config.Config, log *zap.Logger) (idempotency.Store, func(), error) {
	switch cfg.Store.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		opts := []redisstore.Option{redisstore.WithTTL(cfg.Store.TTL)}
		if cfg.Store.Prefix != "" {
			opts = append(opts, redisstore.WithPrefix(cfg.Store.Prefix))
		}
		return redisstore.New(client, opts...), func() { _ = client.Close() }, nil

	case "postgres":
		pgxCfg, err := cfg.Database.PgxConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("build pgx config: %w", err)
		}
		pool, err := pgstore.Connect(ctx, pgxCfg, log)
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		sweeper := pgstore.NewSweeper(pool, cfg.Sweeper.Interval, cfg.Sweeper.BatchSize, log.Named("sweeper"))
		go sweeper.Start(workerCtx)
		return pgstore.New(pool, cfg.Store.TTL), pool.Close, nil

	default:
		log.Warn("using in-memory idempotency store; duplicates are only detected within this process")
		return idempotency.NewMemoryStore(), func() {}, nil
	}
}
