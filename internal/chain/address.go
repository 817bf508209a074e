package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

var (
	ErrInvalidAddress  = errors.New("invalid sui address")
	ErrInvalidCoinType = errors.New("invalid coin type")
	ErrInvalidDigest   = errors.New("invalid transaction digest")
)

// NormalizeAddress returns the 0x-prefixed, 64 hex char lowercase form of
// a Sui address or object id. Short forms such as 0x2 are left padded.
func NormalizeAddress(addr string) (string, error) {
	hexPart := strings.TrimSpace(addr)
	hexPart = strings.TrimPrefix(strings.TrimPrefix(hexPart, "0x"), "0X")
	if hexPart == "" || len(hexPart) > 2*common.HashLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if len(hexPart)%2 == 1 {
		hexPart = "0" + hexPart
	}
	raw, err := hexutil.Decode("0x" + hexPart)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	return common.BytesToHash(raw).Hex(), nil
}

// IsCoinType reports whether s looks like a Move type tag rather than a symbol.
func IsCoinType(s string) bool {
	return strings.Contains(s, "::")
}

// NormalizeCoinType normalizes the address part of a coin type tag.
// Bluefin stores coin types without the 0x prefix; both forms map to the
// same key.
func NormalizeCoinType(coinType string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(coinType), "::", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoinType, coinType)
	}
	addr, err := NormalizeAddress(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoinType, coinType)
	}
	return addr + "::" + parts[1], nil
}

// SameCoinType compares two coin types by normalized address key.
func SameCoinType(a, b string) bool {
	na, errA := NormalizeCoinType(a)
	nb, errB := NormalizeCoinType(b)
	return errA == nil && errB == nil && na == nb
}

// CoinStructName returns the trailing struct name of a coin type, e.g. WAL.
func CoinStructName(coinType string) string {
	idx := strings.LastIndex(coinType, "::")
	if idx < 0 {
		return coinType
	}
	return coinType[idx+2:]
}

// TypeParams splits the top-level generic arguments of a Move type tag.
func TypeParams(typeTag string) []string {
	start := strings.Index(typeTag, "<")
	end := strings.LastIndex(typeTag, ">")
	if start < 0 || end <= start {
		return nil
	}

	var (
		params []string
		depth  int
		last   = start + 1
	)
	for i := start + 1; i < end; i++ {
		switch typeTag[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(typeTag[last:i]))
				last = i + 1
			}
		}
	}
	return append(params, strings.TrimSpace(typeTag[last:end]))
}

// ValidateDigest checks that a transaction digest is base58 over 32 bytes.
func ValidateDigest(digest string) error {
	raw, err := base58.Decode(digest)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidDigest, digest, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidDigest, digest, len(raw))
	}
	return nil
}
