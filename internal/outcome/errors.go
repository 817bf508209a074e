package outcome

import "fmt"

// EventNotFoundError reports a confirmed transaction that lacks an expected
// event, or an event that lacks an expected field.
type EventNotFoundError struct {
	Digest    string
	EventType string
	Field     string
}

func (e *EventNotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("event %s in transaction %s has no field %s", e.EventType, e.Digest, e.Field)
	}
	return fmt.Sprintf("event %s not found in successful transaction %s", e.EventType, e.Digest)
}

// TransactionFailedError carries the chain's own failure message.
type TransactionFailedError struct {
	Operation string
	Digest    string
	Message   string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction to %s failed: %s", e.Operation, e.Message)
}

// IncompleteResultError reports a transaction that landed on chain but whose
// result could not be fully read. Signature is always set.
type IncompleteResultError struct {
	Signature string
	Err       error
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("transaction %s landed but its result is incomplete: %v", e.Signature, e.Err)
}

func (e *IncompleteResultError) Unwrap() error { return e.Err }
