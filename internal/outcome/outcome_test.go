package outcome

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmmGateway/internal/chain"
)

const digest = "Fyy9HfmVfr9HZTWW5M1aW3Q3hsH8EsKmnSFrpuMfxWhv"

func effects(status, errMsg string, gas chain.GasCostSummary) *chain.Effects {
	return &chain.Effects{
		Status:  chain.ExecutionStatus{Status: status, Error: errMsg},
		GasUsed: gas,
	}
}

var swapGas = chain.GasCostSummary{
	ComputationCost: "750000",
	StorageCost:     "4651600",
	StorageRebate:   "2986220",
}

func TestResolvePendingWithoutEffects(t *testing.T) {
	res, err := Resolve(&chain.TransactionBlockResponse{Digest: digest})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Nil(t, res.Fee)
	assert.Empty(t, res.Error)
	assert.NoError(t, res.Err("execute swap"))
}

func TestResolveInconclusiveStatusIsPending(t *testing.T) {
	res, err := Resolve(&chain.TransactionBlockResponse{Digest: digest, Effects: effects("", "", swapGas)})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Nil(t, res.Fee)
}

func TestResolveConfirmedComputesNetFee(t *testing.T) {
	res, err := Resolve(&chain.TransactionBlockResponse{
		Digest:     digest,
		Checkpoint: "42",
		Effects:    effects("success", "", swapGas),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	require.NotNil(t, res.Fee)
	assert.True(t, res.Fee.Equal(decimal.RequireFromString("0.00241538")), "fee %s", res.Fee)
	require.NotNil(t, res.Checkpoint)
	assert.Equal(t, uint64(42), *res.Checkpoint)
}

func TestResolveKeepsNegativeFee(t *testing.T) {
	res, err := Resolve(&chain.TransactionBlockResponse{
		Digest: digest,
		Effects: effects("success", "", chain.GasCostSummary{
			ComputationCost: "1000000",
			StorageCost:     "988000",
			StorageRebate:   "27154116",
		}),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Fee)
	assert.True(t, res.Fee.IsNegative())
	assert.True(t, res.Fee.Equal(decimal.RequireFromString("-0.025166116")), "fee %s", res.Fee)
}

func TestResolveFailedCarriesChainError(t *testing.T) {
	chainErr := "MoveAbort(MoveLocation { module: ModuleId { name: Identifier(\"pool\") } }, 1018) in command 2"
	res, err := Resolve(&chain.TransactionBlockResponse{
		Digest:  digest,
		Effects: effects("failure", chainErr, swapGas),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, chainErr, res.Error)
	require.NotNil(t, res.Fee)

	failure := res.Err("close position")
	var txErr *TransactionFailedError
	require.True(t, errors.As(failure, &txErr))
	assert.Equal(t, chainErr, txErr.Message)
	assert.Contains(t, failure.Error(), chainErr)
}

func TestResolveMalformedGasIsAnError(t *testing.T) {
	res, err := Resolve(&chain.TransactionBlockResponse{
		Digest:  digest,
		Effects: effects("success", "", chain.GasCostSummary{ComputationCost: "1", StorageCost: "2"}),
	})
	require.Error(t, err)
	assert.Equal(t, digest, res.Signature)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Nil(t, res.Fee)
}

func TestStorageRebate(t *testing.T) {
	rebate, err := StorageRebate(chain.GasCostSummary{StorageRebate: "27154116"})
	require.NoError(t, err)
	assert.True(t, rebate.Equal(decimal.RequireFromString("0.027154116")))
}

func TestFindEventBySuffix(t *testing.T) {
	events := []chain.Event{
		{Type: "0x2::coin::CoinMetadata", ParsedJSON: json.RawMessage(`{}`)},
		{Type: "0x3492::events::AssetSwap", ParsedJSON: json.RawMessage(`{"amount_in":"20000000000","amount_out":8442831,"a2b":true}`)},
	}

	ev, err := FindEvent(digest, events, EventAssetSwap)
	require.NoError(t, err)

	in, err := ev.BigInt("amount_in")
	require.NoError(t, err)
	assert.Equal(t, "20000000000", in.String())

	out, err := ev.BigInt("amount_out")
	require.NoError(t, err)
	assert.Equal(t, int64(8442831), out.Int64())

	a2b, err := ev.Bool("a2b")
	require.NoError(t, err)
	assert.True(t, a2b)

	_, err = ev.BigInt("amount_calculated")
	var notFound *EventNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "amount_calculated", notFound.Field)
}

func TestFindEventMissing(t *testing.T) {
	_, err := FindEvent(digest, nil, EventLiquidityProvided)
	var notFound *EventNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, EventLiquidityProvided, notFound.EventType)
	assert.Empty(t, notFound.Field)
}

func TestEventBigIntRejectsNegativeAmounts(t *testing.T) {
	events := []chain.Event{
		{Type: "0x3492::events::AssetSwap", ParsedJSON: json.RawMessage(`{"amount_in":"-5","amount_out":-1,"fee":"0"}`)},
	}
	ev, err := FindEvent(digest, events, EventAssetSwap)
	require.NoError(t, err)

	for _, name := range []string{"amount_in", "amount_out"} {
		_, err := ev.BigInt(name)
		var notFound *EventNotFoundError
		require.ErrorAs(t, err, &notFound, name)
		assert.Equal(t, name, notFound.Field)
	}

	fee, err := ev.BigInt("fee")
	require.NoError(t, err)
	assert.Zero(t, fee.Sign())
}
