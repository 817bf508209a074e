package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"clmmGateway/internal/model"
)

func readRecords(t *testing.T, path string) []model.TxRecord {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var out []model.TxRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.TxRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %q: %v", scanner.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	fee := "0.00241538"
	if err := s.PutTxBatch(ctx, []model.TxRecord{{Network: "mainnet", Signature: "a", Operation: "execute swap", Status: 1, Fee: &fee}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := s.PutTxBatch(ctx, []model.TxRecord{{Network: "mainnet", Signature: "b", Operation: "poll"}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := s.PutTxBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	got := readRecords(t, path)
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	if got[0].Fee == nil || *got[0].Fee != fee {
		t.Fatalf("fee = %v, want %s", got[0].Fee, fee)
	}
	if got[1].Signature != "b" || got[1].Status != 0 {
		t.Fatalf("second record = %+v", got[1])
	}
}

func TestJsonlStorageConcurrentWritesKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	s := NewJsonlStorage(path)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := model.TxRecord{Network: "mainnet", Signature: strings.Repeat("x", 64+i), Operation: "poll"}
			if err := s.PutTxBatch(context.Background(), []model.TxRecord{rec}); err != nil {
				t.Errorf("write %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if got := readRecords(t, path); len(got) != 16 {
		t.Fatalf("records = %d, want 16", len(got))
	}
}

func TestJsonlStorageHonoursCancelledContext(t *testing.T) {
	s := NewJsonlStorage(filepath.Join(t.TempDir(), "journal.jsonl"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.PutTxBatch(ctx, []model.TxRecord{{Signature: "a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

type failingJournal struct{ err error }

func (f failingJournal) PutTxBatch(context.Context, []model.TxRecord) error { return f.err }

func TestMultiWritesEveryJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	boom := errors.New("pg down")
	m := Multi{failingJournal{err: boom}, NewJsonlStorage(path)}

	err := m.PutTxBatch(context.Background(), []model.TxRecord{{Network: "testnet", Signature: "a"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got := readRecords(t, path); len(got) != 1 {
		t.Fatalf("jsonl journal skipped after failure: %d records", len(got))
	}
}
