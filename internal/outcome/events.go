package outcome

import (
	"math/big"
	"strings"

	"github.com/tidwall/gjson"

	"clmmGateway/internal/chain"
)

// Event type suffixes emitted by the Bluefin spot package.
const (
	EventSwapResult        = "::pool::SwapResult"
	EventAssetSwap         = "::events::AssetSwap"
	EventPositionOpened    = "::events::PositionOpened"
	EventPositionClosed    = "::events::PositionClosed"
	EventLiquidityProvided = "::events::LiquidityProvided"
	EventLiquidityRemoved  = "::events::LiquidityRemoved"
	EventUserFeeCollected  = "::events::UserFeeCollected"
)

// EventPayload reads required fields of one event.
type EventPayload struct {
	digest string
	event  chain.Event
	parsed gjson.Result
}

// FindEvent returns the first event whose type ends with suffix.
func FindEvent(digest string, events []chain.Event, suffix string) (EventPayload, error) {
	for _, ev := range events {
		if strings.HasSuffix(ev.Type, suffix) {
			return EventPayload{digest: digest, event: ev, parsed: gjson.ParseBytes(ev.ParsedJSON)}, nil
		}
	}
	return EventPayload{}, &EventNotFoundError{Digest: digest, EventType: suffix}
}

// Type returns the full event type tag.
func (p EventPayload) Type() string {
	return p.event.Type
}

func (p EventPayload) field(name string) (gjson.Result, error) {
	v := p.parsed.Get(name)
	if !v.Exists() || v.Type == gjson.Null {
		return gjson.Result{}, &EventNotFoundError{Digest: p.digest, EventType: p.event.Type, Field: name}
	}
	return v, nil
}

// BigInt reads an unsigned integer field encoded as a string or number.
// A negative value is treated like a missing field.
func (p EventPayload) BigInt(name string) (*big.Int, error) {
	v, err := p.field(name)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(v.String(), 10)
	if !ok || n.Sign() < 0 {
		return nil, &EventNotFoundError{Digest: p.digest, EventType: p.event.Type, Field: name}
	}
	return n, nil
}

// Bool reads a boolean field.
func (p EventPayload) Bool(name string) (bool, error) {
	v, err := p.field(name)
	if err != nil {
		return false, err
	}
	if v.Type != gjson.True && v.Type != gjson.False {
		return false, &EventNotFoundError{Digest: p.digest, EventType: p.event.Type, Field: name}
	}
	return v.Bool(), nil
}

// Text reads a string field.
func (p EventPayload) Text(name string) (string, error) {
	v, err := p.field(name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
