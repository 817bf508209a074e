package storage

import (
	"context"
	"errors"

	"clmmGateway/internal/model"
)

// Journal defines a sink for settled transaction records.
type Journal interface {
	PutTxBatch(ctx context.Context, records []model.TxRecord) error
}

// Multi fans records out to every journal and joins their errors.
type Multi []Journal

func (m Multi) PutTxBatch(ctx context.Context, records []model.TxRecord) error {
	var errs []error
	for _, j := range m {
		if err := j.PutTxBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
