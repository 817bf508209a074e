package network

import (
	"context"

	"go.uber.org/zap"

	"clmmGateway/internal/model"
	"clmmGateway/internal/observability"
	"clmmGateway/internal/outcome"
	"clmmGateway/internal/spot"
	"clmmGateway/internal/storage"
)

// countingJournal counts outcomes before forwarding them. next may be nil
// when only metrics are configured.
type countingJournal struct {
	next    storage.Journal
	metrics *observability.Metrics
}

func (j *countingJournal) PutTxBatch(ctx context.Context, records []model.TxRecord) error {
	if j.metrics != nil {
		for _, rec := range records {
			j.metrics.RecordTx(rec.Network, rec.Operation, outcome.Status(rec.Status).String())
		}
	}
	if j.next == nil {
		return nil
	}
	return j.next.PutTxBatch(ctx, records)
}

func dialSpot(ctx context.Context, url, network string, metrics *observability.Metrics, logger *zap.Logger) (*spot.Client, error) {
	opts := []spot.Option{spot.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, spot.WithObserver(metrics.RPCObserver(network)))
	}
	return spot.NewClient(ctx, url, opts...)
}
