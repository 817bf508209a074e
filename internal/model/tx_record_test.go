package model

import (
	"encoding/json"
	"testing"
)

func TestTxRecordOmitsEmptyOptionalFields(t *testing.T) {
	record := TxRecord{
		Network:    "mainnet",
		Signature:  "5Hq6UibJgmTyFXXTFtCyeRXmZWcFp6ZWR9wLZnBuWFqk",
		Operation:  "poll",
		Status:     0,
		RecordedAt: "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"fee", "error", "checkpoint", "pool_address", "position_address", "wallet"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("%s should be omitted for a pending record", key)
		}
	}
	if _, ok := decoded["status"]; !ok {
		t.Fatalf("status must always be present")
	}
}

func TestTxRecordKeepsNegativeFeeAsString(t *testing.T) {
	fee := "-0.0019"
	record := TxRecord{Network: "mainnet", Signature: "sig", Operation: "close-position", Status: 1, Fee: &fee}

	b, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got, ok := decoded["fee"].(string); !ok || got != fee {
		t.Fatalf("fee = %v, want %q", decoded["fee"], fee)
	}
}
