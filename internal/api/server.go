// Package api exposes the gateway over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clmmGateway/internal/clmm"
	"clmmGateway/internal/network"
	"clmmGateway/internal/observability"
	"clmmGateway/internal/registry"
)

// ChainService serves the /chains/sui routes of one network.
type ChainService interface {
	Status(ctx context.Context) (network.Status, error)
	Poll(ctx context.Context, signature string) (network.PollResult, error)
	EstimateGas(ctx context.Context) (network.GasEstimate, error)
	Balances(ctx context.Context, address string, tokens []string, fetchAll bool) ([]network.Balance, error)
}

// CLMMService serves the /connectors/bluefin/clmm routes of one network.
type CLMMService interface {
	PoolInfo(ctx context.Context, poolID string) (clmm.PoolInfo, error)
	PositionInfo(ctx context.Context, positionID string) (clmm.PositionView, error)
	PositionsOwned(ctx context.Context, wallet, poolID string) ([]clmm.PositionView, error)
	QuoteSwap(ctx context.Context, req clmm.SwapRequest) (clmm.SwapOutcome, error)
	ExecuteSwap(ctx context.Context, wallet string, req clmm.SwapRequest) (clmm.SwapExecution, error)
	QuotePosition(ctx context.Context, poolID string, lowerPrice, upperPrice decimal.Decimal, base, quote *decimal.Decimal) (clmm.PositionQuote, error)
	OpenPosition(ctx context.Context, wallet string, req clmm.PositionRequest) (clmm.OpenPositionResult, error)
	AddLiquidity(ctx context.Context, wallet, positionID string, base, quote *decimal.Decimal, slippagePct decimal.Decimal) (clmm.LiquidityResult, error)
	RemoveLiquidity(ctx context.Context, wallet, positionID string, pct, slippagePct decimal.Decimal) (clmm.LiquidityResult, error)
	CollectFees(ctx context.Context, wallet, positionID string) (clmm.CollectFeesResult, error)
	ClosePosition(ctx context.Context, wallet, positionID string) (clmm.ClosePositionResult, error)
	AccruedFeesAndRewards(ctx context.Context, positionID string) ([]clmm.TokenAmount, error)
}

// Networks resolves a network name to its services.
type Networks interface {
	Chain(ctx context.Context, name string) (ChainService, error)
	CLMM(ctx context.Context, name string) (CLMMService, error)
	Loaded() []string
}

// errNoConnector is returned for networks without a spot sidecar.
var errNoConnector = errors.New("bluefin clmm is not configured for network")

type registryNetworks struct {
	reg *registry.Registry[*network.Network]
}

// FromRegistry adapts a network registry to Networks.
func FromRegistry(reg *registry.Registry[*network.Network]) Networks {
	return registryNetworks{reg: reg}
}

func (r registryNetworks) Chain(ctx context.Context, name string) (ChainService, error) {
	n, err := r.reg.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r registryNetworks) CLMM(ctx context.Context, name string) (CLMMService, error) {
	n, err := r.reg.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if n.Connector() == nil {
		return nil, errNoConnector
	}
	return n.Connector(), nil
}

func (r registryNetworks) Loaded() []string { return r.reg.Loaded() }

// Server bundles dependencies for the HTTP API.
type Server struct {
	router         *chi.Mux
	networks       Networks
	defaultNetwork string
	metrics        *observability.Metrics
	logger         *zap.Logger
	started        time.Time
}

// NewServer constructs a Server with registered routes. metrics may be nil.
func NewServer(networks Networks, defaultNetwork string, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:         chi.NewRouter(),
		networks:       networks,
		defaultNetwork: defaultNetwork,
		metrics:        metrics,
		logger:         logger,
		started:        time.Now(),
	}

	s.router.Use(middleware.RequestID, middleware.Recoverer, s.observe)

	s.router.Get("/healthz", s.healthzHandler)
	if metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	s.router.Route("/chains/sui", func(r chi.Router) {
		r.Get("/status", s.statusHandler)
		r.Post("/poll", s.pollHandler)
		r.Get("/estimate-gas", s.estimateGasHandler)
		r.Post("/balances", s.balancesHandler)
	})

	s.router.Route("/connectors/bluefin/clmm", func(r chi.Router) {
		r.Get("/pool-info", s.poolInfoHandler)
		r.Get("/position-info", s.positionInfoHandler)
		r.Get("/positions-owned", s.positionsOwnedHandler)
		r.Get("/quote-swap", s.quoteSwapHandler)
		r.Post("/execute-swap", s.executeSwapHandler)
		r.Get("/quote-position", s.quotePositionHandler)
		r.Post("/open-position", s.openPositionHandler)
		r.Post("/add-liquidity", s.addLiquidityHandler)
		r.Post("/remove-liquidity", s.removeLiquidityHandler)
		r.Post("/collect-fees", s.collectFeesHandler)
		r.Post("/close-position", s.closePositionHandler)
		r.Get("/accrued-fees", s.accruedFeesHandler)
		r.Get("/accrued-fee-and-rewards", s.accruedFeesHandler)
	})

	return s
}

// Handler exposes the underlying router for the HTTP server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// observe records request counts and latency by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTP(route, status, time.Since(start))
	})
}

func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	loaded := s.networks.Loaded()
	sort.Strings(loaded)
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.started).Round(time.Millisecond).String(),
		Networks: loaded,
	})
}

func (s *Server) networkName(name string) string {
	if name == "" {
		return s.defaultNetwork
	}
	return name
}

func (s *Server) chain(r *http.Request, name string) (ChainService, error) {
	return s.networks.Chain(r.Context(), s.networkName(name))
}

func (s *Server) clmm(r *http.Request, name string) (CLMMService, error) {
	return s.networks.CLMM(r.Context(), s.networkName(name))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
