package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clmmGateway/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS gateway_transactions (
	network          TEXT        NOT NULL,
	signature        TEXT        NOT NULL,
	operation        TEXT        NOT NULL,
	status           SMALLINT    NOT NULL,
	fee              NUMERIC,
	error            TEXT,
	checkpoint       BIGINT,
	pool_address     TEXT,
	position_address TEXT,
	wallet           TEXT,
	recorded_at      TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (network, signature)
)`

const upsertTx = `
	INSERT INTO gateway_transactions (
		network, signature, operation, status, fee, error, checkpoint,
		pool_address, position_address, wallet, recorded_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5::text::numeric, NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, now(), now())
	ON CONFLICT (network, signature)
	DO UPDATE SET
		operation = CASE WHEN EXCLUDED.operation = 'poll' THEN gateway_transactions.operation ELSE EXCLUDED.operation END,
		status = EXCLUDED.status,
		fee = COALESCE(EXCLUDED.fee, gateway_transactions.fee),
		error = COALESCE(EXCLUDED.error, gateway_transactions.error),
		checkpoint = COALESCE(EXCLUDED.checkpoint, gateway_transactions.checkpoint),
		pool_address = COALESCE(EXCLUDED.pool_address, gateway_transactions.pool_address),
		position_address = COALESCE(EXCLUDED.position_address, gateway_transactions.position_address),
		wallet = COALESCE(EXCLUDED.wallet, gateway_transactions.wallet),
		recorded_at = EXCLUDED.recorded_at,
		updated_at = now()
`

// Store journals gateway transactions in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the journal table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutTxBatch upserts records keyed by (network, signature). A poll never
// overwrites the operation recorded when the transaction was submitted.
func (s *Store) PutTxBatch(ctx context.Context, records []model.TxRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := txArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(upsertTx, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert tx %s: %w", rec.Signature, err)
		}
	}
	return nil
}

// LoadTx returns the journaled record for a signature.
func (s *Store) LoadTx(ctx context.Context, network, signature string) (model.TxRecord, bool, error) {
	var (
		rec        model.TxRecord
		fee        *string
		errMsg     *string
		checkpoint *int64
		pool       *string
		position   *string
		wallet     *string
		recordedAt time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT network, signature, operation, status, fee::text, error, checkpoint,
			pool_address, position_address, wallet, recorded_at
		FROM gateway_transactions WHERE network=$1 AND signature=$2
	`, network, signature)
	if err := row.Scan(&rec.Network, &rec.Signature, &rec.Operation, &rec.Status, &fee, &errMsg, &checkpoint, &pool, &position, &wallet, &recordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TxRecord{}, false, nil
		}
		return model.TxRecord{}, false, err
	}
	rec.Fee = fee
	if checkpoint != nil {
		cp := uint64(*checkpoint)
		rec.Checkpoint = &cp
	}
	rec.Error = deref(errMsg)
	rec.PoolAddress = deref(pool)
	rec.PositionAddress = deref(position)
	rec.Wallet = deref(wallet)
	rec.RecordedAt = recordedAt.UTC().Format(time.RFC3339)
	return rec, true, nil
}

func txArgs(rec model.TxRecord) ([]any, error) {
	if rec.Network == "" || rec.Signature == "" {
		return nil, fmt.Errorf("tx record requires network and signature")
	}
	recordedAt := time.Now().UTC()
	if rec.RecordedAt != "" {
		t, err := time.Parse(time.RFC3339, rec.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("tx %s recorded_at %q: %w", rec.Signature, rec.RecordedAt, err)
		}
		recordedAt = t
	}
	var checkpoint *int64
	if rec.Checkpoint != nil {
		cp := int64(*rec.Checkpoint)
		checkpoint = &cp
	}
	return []any{
		rec.Network,
		rec.Signature,
		rec.Operation,
		int16(rec.Status),
		rec.Fee,
		rec.Error,
		checkpoint,
		rec.PoolAddress,
		rec.PositionAddress,
		rec.Wallet,
		recordedAt,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
