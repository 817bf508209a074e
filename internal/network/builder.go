package network

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"clmmGateway/internal/cache"
	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmm"
	"clmmGateway/internal/observability"
	"clmmGateway/internal/storage"
	"clmmGateway/internal/tokens"
)

// Settings is the static configuration of one network.
type Settings struct {
	RPCURL         string
	SpotRPCURL     string
	BasePackage    string
	NativeCurrency string
}

// Builder constructs networks on first use. Build satisfies
// registry.Factory so a registry can memoize it per network name.
type Builder struct {
	Networks map[string]Settings
	TokenDir string
	Journal  storage.Journal
	Cache    *cache.Cache
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

func (b *Builder) Build(ctx context.Context, name string) (*Network, error) {
	settings, ok := b.Networks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	if settings.RPCURL == "" {
		return nil, fmt.Errorf("network %s: rpc url is required", name)
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	list, err := tokens.Load(filepath.Join(b.TokenDir, name+".yml"))
	if err != nil {
		return nil, fmt.Errorf("network %s: %w", name, err)
	}

	chainOpts := []chain.Option{chain.WithLogger(logger)}
	if b.Cache != nil {
		chainOpts = append(chainOpts, chain.WithMetaStore(b.Cache.ForNetwork(name)))
	}
	if b.Metrics != nil {
		chainOpts = append(chainOpts, chain.WithObserver(b.Metrics.RPCObserver(name)))
	}
	chainClient, err := chain.NewClient(ctx, settings.RPCURL, chainOpts...)
	if err != nil {
		return nil, fmt.Errorf("network %s: connect rpc: %w", name, err)
	}
	closers := []func(){chainClient.Close}

	journal := b.journal()

	var connector *clmm.Connector
	if settings.SpotRPCURL != "" {
		spotClient, err := dialSpot(ctx, settings.SpotRPCURL, name, b.Metrics, logger)
		if err != nil {
			chainClient.Close()
			return nil, fmt.Errorf("network %s: connect spot sidecar: %w", name, err)
		}
		closers = append(closers, spotClient.Close)

		connector, err = clmm.New(clmm.Config{
			Network:   name,
			PackageID: settings.BasePackage,
			Chain:     chainClient,
			Executor:  spotClient,
			Tokens:    list,
			Journal:   journal,
			Logger:    logger,
		})
		if err != nil {
			for _, fn := range closers {
				fn()
			}
			return nil, fmt.Errorf("network %s: %w", name, err)
		}
	}

	n, err := New(Config{
		Name:           name,
		RPCURL:         settings.RPCURL,
		NativeCurrency: settings.NativeCurrency,
		Chain:          chainClient,
		Tokens:         list,
		Journal:        journal,
		Connector:      connector,
		Logger:         logger,
		Closers:        closers,
	})
	if err != nil {
		return nil, err
	}
	if b.Metrics != nil {
		b.Metrics.NetworksLoaded.Inc()
	}
	logger.Info("network initialized",
		zap.String("network", name),
		zap.String("rpc", settings.RPCURL),
		zap.Bool("clmm", connector != nil),
		zap.Int("tokens", len(list.All())),
	)
	return n, nil
}

// journal wraps the configured journal so that every recorded outcome is
// also counted.
func (b *Builder) journal() storage.Journal {
	if b.Journal == nil && b.Metrics == nil {
		return nil
	}
	return &countingJournal{next: b.Journal, metrics: b.Metrics}
}
