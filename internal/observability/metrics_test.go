package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsAreIsolatedPerInstance(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordTx("mainnet", "execute swap", "confirmed")

	assert.Contains(t, scrape(t, a), `clmm_gateway_tx_outcomes_total{network="mainnet",operation="execute swap",status="confirmed"} 1`)
	assert.NotContains(t, scrape(t, b), `clmm_gateway_tx_outcomes_total{`)
}

func TestRPCObserverCountsErrors(t *testing.T) {
	m := NewMetrics()
	observe := m.RPCObserver("testnet")
	observe("sui_getTransactionBlock", 20*time.Millisecond, nil)
	observe("sui_getTransactionBlock", 30*time.Millisecond, errors.New("timeout"))

	body := scrape(t, m)
	assert.Contains(t, body, `clmm_gateway_rpc_errors_total{method="sui_getTransactionBlock",network="testnet"} 1`)
	assert.Contains(t, body, `clmm_gateway_rpc_call_duration_seconds_count{method="sui_getTransactionBlock",network="testnet"} 2`)
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTP("/chains/sui/status", 200, 5*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `clmm_gateway_http_requests_total{code="200",route="/chains/sui/status"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
