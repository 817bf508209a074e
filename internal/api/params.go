package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var defaultSlippagePct = decimal.RequireFromString("0.5")

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed request body: %v", err)
	}
	return nil
}

func requireString(q url.Values, name string) (string, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return "", badRequest("%s is required", name)
	}
	return v, nil
}

func requireField(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return badRequest("%s is required", name)
	}
	return nil
}

// queryDecimal parses an optional decimal query parameter.
func queryDecimal(q url.Values, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, badRequest("%s must be a number, got %q", name, raw)
	}
	return &v, nil
}

func requireDecimal(q url.Values, name string) (decimal.Decimal, error) {
	v, err := queryDecimal(q, name)
	if err != nil {
		return decimal.Zero, err
	}
	if v == nil {
		return decimal.Zero, badRequest("%s is required", name)
	}
	return *v, nil
}

func slippageOr(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return defaultSlippagePct
	}
	return *v
}

func float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
