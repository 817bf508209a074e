package chain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0x2")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "0x0000000000000000000000000000000000000000000000000000000000000002"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}

	got, err = NormalizeAddress("0xAF9306CAC62396BE300B175046140C392EED876BD8AC0EFAC6301CEA286FA272")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "0xaf9306cac62396be300b175046140c392eed876bd8ac0efac6301cea286fa272" {
		t.Fatalf("expected lowercase, got %s", got)
	}

	for _, bad := range []string{"", "0x", "0xzz", "0x" + string(make([]byte, 65))} {
		if _, err := NormalizeAddress(bad); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", bad, err)
		}
	}
}

func TestNormalizeCoinTypeWithoutPrefix(t *testing.T) {
	short, err := NormalizeCoinType("0x2::sui::SUI")
	if err != nil {
		t.Fatalf("normalize short: %v", err)
	}
	long, err := NormalizeCoinType("0000000000000000000000000000000000000000000000000000000000000002::sui::SUI")
	if err != nil {
		t.Fatalf("normalize long: %v", err)
	}
	if short != long {
		t.Fatalf("%s != %s", short, long)
	}
	if !SameCoinType("0x2::sui::SUI", long) {
		t.Fatalf("expected same coin type")
	}
	if _, err := NormalizeCoinType("SUI"); !errors.Is(err, ErrInvalidCoinType) {
		t.Fatalf("expected ErrInvalidCoinType, got %v", err)
	}
}

func TestTypeParamsNested(t *testing.T) {
	got := TypeParams("0xabc::pool::Pool<0x1::a::A, 0x2::wrap::W<0x3::b::B, 0x4::c::C>>")
	want := []string{"0x1::a::A", "0x2::wrap::W<0x3::b::B, 0x4::c::C>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if TypeParams("0x2::sui::SUI") != nil {
		t.Fatalf("expected no params")
	}
}

func TestCoinStructName(t *testing.T) {
	if got := CoinStructName("0x356a::wal::WAL"); got != "WAL" {
		t.Fatalf("got %s", got)
	}
}

func TestValidateDigest(t *testing.T) {
	if err := ValidateDigest("Fyy9HfmVfr9HZTWW5M1aW3Q3hsH8EsKmnSFrpuMfxWhv"); err != nil {
		t.Fatalf("valid digest rejected: %v", err)
	}
	for _, bad := range []string{"", "0OIl", "abc"} {
		if err := ValidateDigest(bad); !errors.Is(err, ErrInvalidDigest) {
			t.Fatalf("expected ErrInvalidDigest for %q, got %v", bad, err)
		}
	}
}
