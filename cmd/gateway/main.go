package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clmmGateway/internal/api"
	"clmmGateway/internal/cache"
	"clmmGateway/internal/config"
	"clmmGateway/internal/network"
	"clmmGateway/internal/observability"
	"clmmGateway/internal/registry"
	"clmmGateway/internal/storage"
	"clmmGateway/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "gateway",
		Short:        "Bluefin CLMM gateway for Sui",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("token-dir", "./conf/tokens", "directory holding <network>.yml token lists")
	root.PersistentFlags().String("redis-addr", "", "redis address for coin metadata cache (empty disables)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":15888", "HTTP listen address")
	serveCmd.Flags().String("default-network", "mainnet", "network used when a request names none")
	serveCmd.Flags().StringSlice("preload-networks", nil, "networks to initialize at startup (comma-separated)")
	serveCmd.Flags().String("journal-out", "", "JSONL path for the transaction journal (empty disables)")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for the transaction journal (empty disables)")
	serveCmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().Duration("write-timeout", 120*time.Second, "HTTP write timeout")

	root.AddCommand(serveCmd)
	root.AddCommand(newStatusCmd(), newPollCmd(), newQuoteSwapCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metaCache := openCache(ctx, cfg, logger)
	defer metaCache.Close()

	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	metrics := observability.NewMetrics()
	reg := registry.New[*network.Network](newBuilder(cfg, metaCache, journal, metrics, logger).Build)
	defer reg.Each(func(_ string, n *network.Network) { n.Close() })

	for _, name := range cfg.PreloadNetworks {
		if _, err := reg.Get(ctx, name); err != nil {
			return fmt.Errorf("preload %s: %w", name, err)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      api.NewServer(api.FromRegistry(reg), cfg.DefaultNetwork, metrics, logger).Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway start",
			zap.String("listen", cfg.Listen),
			zap.String("default_network", cfg.DefaultNetwork),
			zap.Strings("networks", cfg.NetworkNames()),
			zap.Bool("journal", journal != nil),
			zap.Bool("cache", cfg.RedisAddr != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) *cache.Cache {
	c := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.RedisTTL,
	})
	if cfg.RedisAddr == "" {
		return c
	}
	if err := c.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, metadata will be fetched from rpc", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return c
}

// openJournal returns nil when no sink is configured.
func openJournal(ctx context.Context, cfg config.Config) (storage.Journal, func(), error) {
	var sinks storage.Multi
	closeFn := func() {}

	if cfg.JournalOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.JournalOut))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, store)
		closeFn = store.Close
	}

	switch len(sinks) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	default:
		return sinks, closeFn, nil
	}
}

func newBuilder(cfg config.Config, c *cache.Cache, journal storage.Journal, metrics *observability.Metrics, logger *zap.Logger) *network.Builder {
	settings := make(map[string]network.Settings, len(cfg.Networks))
	for name, n := range cfg.Networks {
		settings[name] = network.Settings{
			RPCURL:         n.RPC,
			SpotRPCURL:     n.SpotRPC,
			BasePackage:    n.BasePackage,
			NativeCurrency: n.NativeCurrency,
		}
	}
	return &network.Builder{
		Networks: settings,
		TokenDir: cfg.TokenDir,
		Journal:  journal,
		Cache:    c,
		Metrics:  metrics,
		Logger:   logger,
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
