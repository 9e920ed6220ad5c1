package bignum

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_zeroFamily(t *testing.T) {
	req := require.New(t)
	inputs := []interface{}{
		nil,
		"",
		"0",
		0,
		int64(0),
		float64(0),
		big.NewInt(0),
		(*big.Int)(nil),
		"not-a-number",
		"0xzz",
		"-42",
		-42,
		json.Number("garbage"),
	}
	for _, in := range inputs {
		got := Normalize(in)
		req.NotNil(got)
		req.Zero(got.Sign(), "input %v should normalize to zero", in)
	}
}

func TestNormalize_roundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"decimal string", "1000000000000000000", "1000000000000000000"},
		{"hex string", "0xde0b6b3a7640000", "1000000000000000000"},
		{"int", 42, "42"},
		{"int64", int64(5566), "5566"},
		{"uint64", uint64(7788), "7788"},
		{"json number", json.Number("123456789"), "123456789"},
		{"float", float64(16), "16"},
		{"big int", big.NewInt(99), "99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got := Normalize(tt.in)
			req.Equal(tt.want, got.String())
		})
	}
}

func TestNormalize_idempotent(t *testing.T) {
	req := require.New(t)
	inputs := []interface{}{"123", big.NewInt(456), nil, "0x10"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		req.Zero(once.Cmp(twice))
	}
}

func TestNormalize_doesNotAliasInput(t *testing.T) {
	req := require.New(t)
	in := big.NewInt(10)
	out := Normalize(in)
	out.SetInt64(20)
	req.Equal("10", in.String())
}

func TestNormalizeUnix(t *testing.T) {
	req := require.New(t)
	req.Equal(int64(1700000000), NormalizeUnix("1700000000"))
	req.Equal(int64(0), NormalizeUnix(nil))
	req.Equal(int64(0), NormalizeUnix("115792089237316195423570985008687907853269984665640564039457584007913129639935"))
}
