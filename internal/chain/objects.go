package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/tidwall/gjson"

	"clmmGateway/internal/model"
)

const ownedObjectsPageSize = 50

var objectOptions = map[string]bool{
	"showType":    true,
	"showContent": true,
	"showOwner":   true,
}

// GetObject returns the raw sui_getObject data for an object id.
func (c *Client) GetObject(ctx context.Context, objectID string) (gjson.Result, error) {
	id, err := NormalizeAddress(objectID)
	if err != nil {
		return gjson.Result{}, err
	}
	var raw json.RawMessage
	if err := c.call(ctx, &raw, "sui_getObject", id, objectOptions); err != nil {
		return gjson.Result{}, err
	}
	res := gjson.ParseBytes(raw)
	if res.Get("error").Exists() || !res.Get("data").Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	return res.Get("data"), nil
}

// GetPool loads a pool object and the metadata of both coins.
func (c *Client) GetPool(ctx context.Context, poolID string) (*model.Pool, error) {
	data, err := c.GetObject(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("get pool %s: %w", poolID, err)
	}
	pool, err := ParsePool(data)
	if err != nil {
		return nil, err
	}

	metaA, err := c.GetCoinMetadata(ctx, pool.CoinA.Address)
	if err != nil {
		return nil, fmt.Errorf("pool %s coin a: %w", pool.ID, err)
	}
	metaB, err := c.GetCoinMetadata(ctx, pool.CoinB.Address)
	if err != nil {
		return nil, fmt.Errorf("pool %s coin b: %w", pool.ID, err)
	}
	pool.CoinA.Decimals = metaA.Decimals
	pool.CoinB.Decimals = metaB.Decimals
	return pool, nil
}

// GetPosition loads a position object.
func (c *Client) GetPosition(ctx context.Context, positionID string) (*model.Position, error) {
	data, err := c.GetObject(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("get position %s: %w", positionID, err)
	}
	return ParsePosition(data)
}

// GetUserPositions lists every position object of packageID owned by owner.
func (c *Client) GetUserPositions(ctx context.Context, packageID, owner string) ([]model.Position, error) {
	ownerAddr, err := NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	pkg, err := NormalizeAddress(packageID)
	if err != nil {
		return nil, err
	}

	query := map[string]interface{}{
		"filter":  map[string]string{"StructType": pkg + "::position::Position"},
		"options": objectOptions,
	}

	var (
		positions []model.Position
		cursor    interface{}
	)
	for {
		var raw json.RawMessage
		if err := c.call(ctx, &raw, "suix_getOwnedObjects", ownerAddr, query, cursor, ownedObjectsPageSize); err != nil {
			return nil, fmt.Errorf("owned positions of %s: %w", ownerAddr, err)
		}
		page := gjson.ParseBytes(raw)
		for _, item := range page.Get("data").Array() {
			position, err := ParsePosition(item.Get("data"))
			if err != nil {
				return nil, err
			}
			positions = append(positions, *position)
		}
		if !page.Get("hasNextPage").Bool() || page.Get("nextCursor").Type == gjson.Null {
			break
		}
		cursor = page.Get("nextCursor").String()
	}
	return positions, nil
}

// ParsePool decodes a pool::Pool<A, B> object. Coin decimals are left
// zero; they live in coin metadata, not in the pool.
func ParsePool(data gjson.Result) (*model.Pool, error) {
	id, err := objectID(data)
	if err != nil {
		return nil, err
	}
	typeTag := data.Get("content.type").String()
	if typeTag == "" {
		typeTag = data.Get("type").String()
	}
	if !strings.Contains(typeTag, "::pool::Pool<") {
		return nil, fmt.Errorf("object %s is not a pool: %q", id, typeTag)
	}
	params := TypeParams(typeTag)
	if len(params) != 2 {
		return nil, fmt.Errorf("pool %s: expected 2 coin type params, got %d", id, len(params))
	}
	coinA, err := NormalizeCoinType(params[0])
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", id, err)
	}
	coinB, err := NormalizeCoinType(params[1])
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", id, err)
	}

	fields := data.Get("content.fields")
	p := fieldReader{kind: "pool", id: id, fields: fields}

	pool := &model.Pool{
		ID:                id,
		Name:              fields.Get("name").String(),
		CoinA:             model.Coin{Address: coinA, Balance: p.bigInt("coin_a")},
		CoinB:             model.Coin{Address: coinB, Balance: p.bigInt("coin_b")},
		CurrentSqrtPrice:  p.bigInt("current_sqrt_price"),
		CurrentTick:       p.i32("current_tick_index.fields.bits"),
		FeeRateMillionths: p.u64("fee_rate"),
		TickSpacing:       int32(p.u64("ticks_manager.fields.tick_spacing")),
		Liquidity:         p.bigInt("liquidity"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return pool, nil
}

// ParsePosition decodes a position::Position object.
func ParsePosition(data gjson.Result) (*model.Position, error) {
	id, err := objectID(data)
	if err != nil {
		return nil, err
	}
	fields := data.Get("content.fields")
	if !fields.Exists() {
		return nil, fmt.Errorf("position %s: object has no content", id)
	}
	p := fieldReader{kind: "position", id: id, fields: fields}

	position := &model.Position{
		ID:          id,
		PoolID:      p.address("pool_id"),
		CoinTypeA:   p.coinType("coin_type_a"),
		CoinTypeB:   p.coinType("coin_type_b"),
		TickLower:   p.i32("lower_tick.fields.bits"),
		TickUpper:   p.i32("upper_tick.fields.bits"),
		Liquidity:   p.bigInt("liquidity"),
		AccruedFeeA: p.bigInt("token_a_fee"),
		AccruedFeeB: p.bigInt("token_b_fee"),
	}
	if p.err != nil {
		return nil, p.err
	}
	return position, nil
}

// objectID returns the normalized objectId so ids read from objects compare
// equal to ids read from fields.
func objectID(data gjson.Result) (string, error) {
	raw := data.Get("objectId").String()
	id, err := NormalizeAddress(raw)
	if err != nil {
		return "", fmt.Errorf("object id: %w", err)
	}
	return id, nil
}

// fieldReader reads required Move fields and keeps the first failure.
type fieldReader struct {
	kind   string
	id     string
	fields gjson.Result
	err    error
}

func (r *fieldReader) get(path string) (gjson.Result, bool) {
	if r.err != nil {
		return gjson.Result{}, false
	}
	v := r.fields.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		r.err = fmt.Errorf("%s %s: missing field %s", r.kind, r.id, path)
		return gjson.Result{}, false
	}
	return v, true
}

func (r *fieldReader) bigInt(path string) *big.Int {
	v, ok := r.get(path)
	if !ok {
		return nil
	}
	n, ok := new(big.Int).SetString(v.String(), 10)
	if !ok {
		r.err = fmt.Errorf("%s %s: field %s is not an integer: %q", r.kind, r.id, path, v.String())
		return nil
	}
	return n
}

func (r *fieldReader) u64(path string) uint64 {
	n := r.bigInt(path)
	if n == nil {
		return 0
	}
	if !n.IsUint64() {
		r.err = fmt.Errorf("%s %s: field %s overflows u64", r.kind, r.id, path)
		return 0
	}
	return n.Uint64()
}

// Move i32 values are stored as their u32 bit pattern.
func (r *fieldReader) i32(path string) int32 {
	n := r.bigInt(path)
	if n == nil {
		return 0
	}
	if n.Sign() < 0 || n.BitLen() > 32 {
		r.err = fmt.Errorf("%s %s: field %s is not an i32 bit pattern", r.kind, r.id, path)
		return 0
	}
	return int32(uint32(n.Uint64()))
}

func (r *fieldReader) address(path string) string {
	v, ok := r.get(path)
	if !ok {
		return ""
	}
	addr, err := NormalizeAddress(v.String())
	if err != nil {
		r.err = fmt.Errorf("%s %s: field %s: %w", r.kind, r.id, path, err)
	}
	return addr
}

func (r *fieldReader) coinType(path string) string {
	v, ok := r.get(path)
	if !ok {
		return ""
	}
	coinType, err := NormalizeCoinType(v.String())
	if err != nil {
		r.err = fmt.Errorf("%s %s: field %s: %w", r.kind, r.id, path, err)
	}
	return coinType
}
