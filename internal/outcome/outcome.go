package outcome

import (
	"fmt"

	"github.com/shopspring/decimal"

	"clmmGateway/internal/chain"
)

// Status codes reported to callers.
type Status int

const (
	StatusFailed    Status = -1
	StatusPending   Status = 0
	StatusConfirmed Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

const mistPerSui = 9

// Outcome is a transaction response classified once at the chain boundary.
// It is one of Pending, Confirmed or Failed.
type Outcome interface {
	Signature() string
	Status() Status
}

type Pending struct {
	Digest string
}

type Confirmed struct {
	Digest     string
	Effects    chain.Effects
	Events     []chain.Event
	Checkpoint *uint64
}

type Failed struct {
	Digest     string
	Effects    chain.Effects
	Error      string
	Checkpoint *uint64
}

func (p Pending) Signature() string   { return p.Digest }
func (c Confirmed) Signature() string { return c.Digest }
func (f Failed) Signature() string    { return f.Digest }

func (Pending) Status() Status   { return StatusPending }
func (Confirmed) Status() Status { return StatusConfirmed }
func (Failed) Status() Status    { return StatusFailed }

// Classify maps a response onto the outcome state machine. Missing or
// inconclusive effects are Pending.
func Classify(resp *chain.TransactionBlockResponse) Outcome {
	if resp == nil {
		return Pending{}
	}
	if resp.Effects == nil {
		return Pending{Digest: resp.Digest}
	}
	switch resp.Effects.Status.Status {
	case "success":
		return Confirmed{
			Digest:     resp.Digest,
			Effects:    *resp.Effects,
			Events:     resp.Events,
			Checkpoint: resp.CheckpointNumber(),
		}
	case "failure":
		return Failed{
			Digest:     resp.Digest,
			Effects:    *resp.Effects,
			Error:      resp.Effects.Status.Error,
			Checkpoint: resp.CheckpointNumber(),
		}
	default:
		return Pending{Digest: resp.Digest}
	}
}

// Result is the caller-facing transaction record.
type Result struct {
	Signature  string
	Status     Status
	Fee        *decimal.Decimal
	Error      string
	Checkpoint *uint64
}

// Resolve classifies resp and computes its net fee. Fee is only set when
// effects exist.
func Resolve(resp *chain.TransactionBlockResponse) (Result, error) {
	return FromOutcome(Classify(resp))
}

// FromOutcome builds a Result from an already classified outcome. On error
// the returned Result still carries the signature and status.
func FromOutcome(o Outcome) (Result, error) {
	res := Result{Signature: o.Signature(), Status: o.Status()}

	switch v := o.(type) {
	case Confirmed:
		fee, err := NetFee(v.Effects.GasUsed)
		if err != nil {
			return res, fmt.Errorf("transaction %s: %w", v.Digest, err)
		}
		res.Fee = &fee
		res.Checkpoint = v.Checkpoint
	case Failed:
		fee, err := NetFee(v.Effects.GasUsed)
		if err != nil {
			return res, fmt.Errorf("transaction %s: %w", v.Digest, err)
		}
		res.Fee = &fee
		res.Error = v.Error
		res.Checkpoint = v.Checkpoint
	}
	return res, nil
}

// Err returns a TransactionFailedError for failed results.
func (r Result) Err(operation string) error {
	if r.Status != StatusFailed {
		return nil
	}
	return &TransactionFailedError{Operation: operation, Digest: r.Signature, Message: r.Error}
}

// NetFee returns (computationCost + storageCost - storageRebate) / 1e9.
// Negative values mean the rent refund exceeded the gas cost.
func NetFee(gas chain.GasCostSummary) (decimal.Decimal, error) {
	computation, err := mist("computationCost", gas.ComputationCost)
	if err != nil {
		return decimal.Zero, err
	}
	storage, err := mist("storageCost", gas.StorageCost)
	if err != nil {
		return decimal.Zero, err
	}
	rebate, err := mist("storageRebate", gas.StorageRebate)
	if err != nil {
		return decimal.Zero, err
	}
	return computation.Add(storage).Sub(rebate).Shift(-mistPerSui), nil
}

// StorageRebate returns the rebate of a transaction in SUI.
func StorageRebate(gas chain.GasCostSummary) (decimal.Decimal, error) {
	rebate, err := mist("storageRebate", gas.StorageRebate)
	if err != nil {
		return decimal.Zero, err
	}
	return rebate.Shift(-mistPerSui), nil
}

func mist(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("gas summary missing %s", field)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("gas summary %s %q: %w", field, raw, err)
	}
	return v, nil
}
