package spot

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmmGateway/internal/clmm"
)

const (
	poolID   = "0xbcc6909d2e85c06cf9cbfe5b292da36f5bfa0f314806474bbf6a0bf9744d37ce"
	position = "0x6c2547cbbc38025cf3adac45f63cb0a8d12ecf777cdc75a4971612bf97fdf6af"
	signer   = "0xaf9306cac62396be300b175046140c392eed876bd8ac0efac6301cea286fa272"
)

const swapTx = `{
  "digest": "Fyy9HfmVfr9HZTWW5M1aW3Q3hsH8EsKmnSFrpuMfxWhv",
  "effects": {
    "status": {"status": "success"},
    "gasUsed": {"computationCost": "750000", "storageCost": "4651600", "storageRebate": "2986220", "nonRefundableStorageFee": "30164"}
  },
  "events": [{
    "type": "0x3492c874c1e3b3e2984e8c41b589e642d4d0a5d6459e5a9cfc2d52fd7c89c267::pool::SwapResult",
    "parsedJson": {"a2b": true, "amount_specified": "20000000000", "amount_calculated": "8442831", "end_sqrt_price": "377000000000000000"}
  }]
}`

type sidecarCall struct {
	method string
	params []json.RawMessage
}

type sidecar struct {
	mu      sync.Mutex
	calls   []sidecarCall
	results map[string]string
}

func newSidecar(t *testing.T, results map[string]string) (*Client, *sidecar) {
	t.Helper()
	s := &sidecar{results: results}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, s
}

func (s *sidecar) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.calls = append(s.calls, sidecarCall{method: req.Method, params: req.Params})
	result, ok := s.results[req.Method]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32000,"message":"insufficient gas balance"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
}

func (s *sidecar) last() sidecarCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func TestComputeSwapResults(t *testing.T) {
	client, sc := newSidecar(t, map[string]string{"spot_computeSwapResults": swapTx})

	resp, err := client.ComputeSwapResults(context.Background(), clmm.SwapParams{
		PoolID:      poolID,
		AmountIn:    big.NewInt(20_000_000_000),
		AToB:        true,
		ByAmountIn:  true,
		SlippagePct: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fyy9HfmVfr9HZTWW5M1aW3Q3hsH8EsKmnSFrpuMfxWhv", resp.Digest)
	require.Len(t, resp.Events, 1)
	assert.NotEmpty(t, resp.Raw)

	call := sc.last()
	require.Len(t, call.params, 1)
	var sent swapRequest
	require.NoError(t, json.Unmarshal(call.params[0], &sent))
	assert.Equal(t, swapRequest{
		Pool:        poolID,
		AmountIn:    "20000000000",
		AmountOut:   "0",
		AToB:        true,
		ByAmountIn:  true,
		SlippagePct: "0.5",
	}, sent)
}

func TestSwapAssetsSendsSigner(t *testing.T) {
	client, sc := newSidecar(t, map[string]string{"spot_swapAssets": swapTx})

	_, err := client.SwapAssets(context.Background(), signer, clmm.SwapParams{
		PoolID:   poolID,
		AmountIn: big.NewInt(4_221_000),
	})
	require.NoError(t, err)

	call := sc.last()
	require.Len(t, call.params, 2)
	assert.JSONEq(t, `"`+signer+`"`, string(call.params[0]))
}

func TestLiquidityRequestsOmitMissingMax(t *testing.T) {
	client, sc := newSidecar(t, map[string]string{"spot_removeLiquidity": swapTx})

	_, err := client.RemoveLiquidity(context.Background(), signer, clmm.LiquidityParams{
		PoolID:     poolID,
		PositionID: position,
		Liquidity:  big.NewInt(125_000_000_000),
		MinAmountA: big.NewInt(10),
	})
	require.NoError(t, err)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(sc.last().params[1], &sent))
	assert.NotContains(t, sent, "maxAmountA")
	assert.Equal(t, "125000000000", sent["liquidity"])
	assert.Equal(t, "0", sent["minAmountB"])
}

func TestOpenPositionAndClose(t *testing.T) {
	client, sc := newSidecar(t, map[string]string{
		"spot_openPosition":          swapTx,
		"spot_closePosition":         swapTx,
		"spot_collectFeesAndRewards": swapTx,
		"spot_provideLiquidity":      swapTx,
	})
	ctx := context.Background()

	_, err := client.OpenPosition(ctx, signer, clmm.OpenPositionParams{
		PoolID:    poolID,
		TickLower: -78240,
		TickUpper: -77040,
		Liquidity: big.NewInt(1),
	})
	require.NoError(t, err)
	var open openPositionRequest
	require.NoError(t, json.Unmarshal(sc.last().params[1], &open))
	assert.Equal(t, int32(-78240), open.LowerTick)
	assert.Equal(t, "0", open.MaxAmountB)

	_, err = client.ProvideLiquidity(ctx, signer, clmm.LiquidityParams{PoolID: poolID, PositionID: position, Liquidity: big.NewInt(5)})
	require.NoError(t, err)
	_, err = client.CollectFeesAndRewards(ctx, signer, poolID, position)
	require.NoError(t, err)
	_, err = client.ClosePosition(ctx, signer, poolID, position)
	require.NoError(t, err)

	var req positionRequest
	require.NoError(t, json.Unmarshal(sc.last().params[1], &req))
	assert.Equal(t, positionRequest{Pool: poolID, Position: position}, req)
}

func TestAccruedFeesAndRewards(t *testing.T) {
	client, _ := newSidecar(t, map[string]string{"spot_getAccruedFeeAndRewards": `{
	  "fee": {"coinA": "1500000000", "coinB": "620000"},
	  "rewards": [{"coinType": "2::sui::SUI", "coinSymbol": "SUI", "coinDecimals": 9, "coinAmount": "250000000"}]
	}`})

	accrued, err := client.AccruedFeesAndRewards(context.Background(), poolID, position)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", accrued.FeeA.String())
	assert.Equal(t, "620000", accrued.FeeB.String())
	require.Len(t, accrued.Rewards, 1)
	assert.Equal(t, "SUI", accrued.Rewards[0].Symbol)
	assert.Equal(t, uint8(9), accrued.Rewards[0].Decimals)
	assert.Equal(t, "250000000", accrued.Rewards[0].Amount.String())
}

func TestAccruedFeesRejectsMalformedAmount(t *testing.T) {
	client, _ := newSidecar(t, map[string]string{"spot_getAccruedFeeAndRewards": `{"fee": {"coinA": "", "coinB": "1"}}`})

	_, err := client.AccruedFeesAndRewards(context.Background(), poolID, position)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fee.coinA")
}

func TestNullResultIsEmptyResponse(t *testing.T) {
	client, _ := newSidecar(t, map[string]string{"spot_swapAssets": "null"})

	_, err := client.SwapAssets(context.Background(), signer, clmm.SwapParams{PoolID: poolID})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSidecarErrorsPassThrough(t *testing.T) {
	var observed []string
	client, _ := newSidecar(t, nil)
	WithObserver(func(method string, _ time.Duration, err error) {
		if err != nil {
			observed = append(observed, method)
		}
	})(client)

	_, err := client.ClosePosition(context.Background(), signer, poolID, position)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spot_closePosition")
	assert.Contains(t, err.Error(), "insufficient gas balance")
	assert.Equal(t, []string{"spot_closePosition"}, observed)
}
