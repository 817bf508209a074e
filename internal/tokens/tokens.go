package tokens

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"clmmGateway/internal/chain"
)

// Token is one entry of a network token list.
type Token struct {
	Symbol   string `yaml:"symbol" json:"symbol"`
	Name     string `yaml:"name" json:"name"`
	Address  string `yaml:"address" json:"address"`
	Decimals uint8  `yaml:"decimals" json:"decimals"`
}

type file struct {
	Tokens []Token `yaml:"tokens"`
}

// List indexes a token list by symbol and by normalized coin type.
type List struct {
	tokens    []Token
	bySymbol  map[string]Token
	byAddress map[string]Token
}

// Load reads a YAML token list. A missing file yields an empty list.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil)
		}
		return nil, fmt.Errorf("read token list: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse token list %s: %w", path, err)
	}
	return New(f.Tokens)
}

// New builds a List, normalizing every address. The first entry wins on
// duplicate symbols.
func New(tokens []Token) (*List, error) {
	l := &List{
		bySymbol:  make(map[string]Token, len(tokens)),
		byAddress: make(map[string]Token, len(tokens)),
	}
	for _, tok := range tokens {
		addr, err := chain.NormalizeCoinType(tok.Address)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", tok.Symbol, err)
		}
		tok.Address = addr
		l.tokens = append(l.tokens, tok)

		symbol := strings.ToUpper(strings.TrimSpace(tok.Symbol))
		if _, ok := l.bySymbol[symbol]; !ok {
			l.bySymbol[symbol] = tok
		}
		l.byAddress[addr] = tok
	}
	return l, nil
}

// Get resolves a symbol (case-insensitive) first, then a coin type.
func (l *List) Get(symbolOrAddress string) (Token, bool) {
	if l == nil {
		return Token{}, false
	}
	if tok, ok := l.bySymbol[strings.ToUpper(strings.TrimSpace(symbolOrAddress))]; ok {
		return tok, true
	}
	return l.ByAddress(symbolOrAddress)
}

// ByAddress resolves a coin type.
func (l *List) ByAddress(coinType string) (Token, bool) {
	if l == nil {
		return Token{}, false
	}
	addr, err := chain.NormalizeCoinType(coinType)
	if err != nil {
		return Token{}, false
	}
	tok, ok := l.byAddress[addr]
	return tok, ok
}

// All returns the tokens in file order.
func (l *List) All() []Token {
	if l == nil {
		return nil
	}
	return append([]Token(nil), l.tokens...)
}
