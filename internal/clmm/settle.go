package clmm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/model"
	"clmmGateway/internal/outcome"
)

// settler classifies executor responses, re-reads confirmed transactions
// that came back without events, and journals every outcome.
type settler struct {
	network string
	chain   ChainReader
	journal Journal
	logger  *zap.Logger
}

// txContext identifies the operation for errors and the journal.
type txContext struct {
	operation string
	wallet    string
	pool      string
	position  string
}

func (s *settler) settle(ctx context.Context, resp *chain.TransactionBlockResponse, tc txContext) (outcome.Outcome, outcome.Result, error) {
	if resp == nil {
		return nil, outcome.Result{}, fmt.Errorf("%s: executor returned no transaction", tc.operation)
	}

	o := outcome.Classify(resp)
	if confirmed, ok := o.(outcome.Confirmed); ok && len(confirmed.Events) == 0 && s.chain != nil {
		fetched, err := s.chain.GetTransactionBlock(ctx, confirmed.Digest)
		switch {
		case err != nil:
			s.logger.Warn("reload of eventless confirmation failed",
				zap.String("operation", tc.operation),
				zap.String("signature", confirmed.Digest),
				zap.Error(err))
		default:
			if reloaded, ok := outcome.Classify(fetched).(outcome.Confirmed); ok {
				o = reloaded
			}
		}
	}

	res, err := outcome.FromOutcome(o)
	s.record(ctx, res, tc)
	s.logSettled(res, tc)
	if err != nil {
		return o, res, &outcome.IncompleteResultError{Signature: res.Signature, Err: fmt.Errorf("%s: %w", tc.operation, err)}
	}
	return o, res, res.Err(tc.operation)
}

func (s *settler) logSettled(res outcome.Result, tc txContext) {
	fields := []zap.Field{
		zap.String("operation", tc.operation),
		zap.String("signature", res.Signature),
		zap.String("status", res.Status.String()),
	}
	if res.Fee != nil {
		fields = append(fields, zap.String("fee", res.Fee.String()))
	}
	if res.Error != "" {
		fields = append(fields, zap.String("error", res.Error))
	}
	s.logger.Info("transaction settled", fields...)
}

// incomplete ties an error raised after settlement to the transaction that
// already landed.
func incomplete(res outcome.Result, err error) error {
	return &outcome.IncompleteResultError{Signature: res.Signature, Err: err}
}

func (s *settler) record(ctx context.Context, res outcome.Result, tc txContext) {
	if s.journal == nil {
		return
	}
	rec := model.TxRecord{
		Network:         s.network,
		Signature:       res.Signature,
		Operation:       tc.operation,
		Status:          int(res.Status),
		Error:           res.Error,
		Checkpoint:      res.Checkpoint,
		PoolAddress:     tc.pool,
		PositionAddress: tc.position,
		Wallet:          tc.wallet,
		RecordedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if res.Fee != nil {
		fee := res.Fee.String()
		rec.Fee = &fee
	}
	if err := s.journal.PutTxBatch(ctx, []model.TxRecord{rec}); err != nil {
		s.logger.Warn("journal write failed", zap.String("signature", res.Signature), zap.Error(err))
	}
}
