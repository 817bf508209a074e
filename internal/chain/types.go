package chain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TransactionBlockResponse is the subset of a Sui transaction block
// response read by the gateway. Raw keeps the full payload.
type TransactionBlockResponse struct {
	Digest         string          `json:"digest"`
	Checkpoint     string          `json:"checkpoint,omitempty"`
	TimestampMs    string          `json:"timestampMs,omitempty"`
	Effects        *Effects        `json:"effects,omitempty"`
	Events         []Event         `json:"events,omitempty"`
	BalanceChanges []BalanceChange `json:"balanceChanges,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Effects holds execution status and gas accounting.
type Effects struct {
	Status  ExecutionStatus  `json:"status"`
	GasUsed GasCostSummary   `json:"gasUsed"`
	Created []OwnedObjectRef `json:"created,omitempty"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GasCostSummary amounts are MIST encoded as decimal strings.
type GasCostSummary struct {
	ComputationCost         string `json:"computationCost"`
	StorageCost             string `json:"storageCost"`
	StorageRebate           string `json:"storageRebate"`
	NonRefundableStorageFee string `json:"nonRefundableStorageFee"`
}

type OwnedObjectRef struct {
	Owner     json.RawMessage `json:"owner"`
	Reference ObjectRef       `json:"reference"`
}

type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Digest   string `json:"digest"`
}

// Event is a Move event with its parsed JSON payload.
type Event struct {
	Type       string          `json:"type"`
	Sender     string          `json:"sender,omitempty"`
	PackageID  string          `json:"packageId,omitempty"`
	ParsedJSON json.RawMessage `json:"parsedJson"`
}

type BalanceChange struct {
	Owner    json.RawMessage `json:"owner"`
	CoinType string          `json:"coinType"`
	Amount   string          `json:"amount"`
}

// Balance is one entry of suix_getAllBalances.
type Balance struct {
	CoinType     string `json:"coinType"`
	TotalBalance string `json:"totalBalance"`
}

// DecodeTransactionBlock decodes a raw transaction block response.
func DecodeTransactionBlock(raw json.RawMessage) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode transaction block: %w", err)
	}
	resp.Raw = append(json.RawMessage(nil), raw...)
	return &resp, nil
}

// CheckpointNumber returns the checkpoint sequence number when known.
func (r *TransactionBlockResponse) CheckpointNumber() *uint64 {
	if r == nil || r.Checkpoint == "" {
		return nil
	}
	n, err := strconv.ParseUint(r.Checkpoint, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
