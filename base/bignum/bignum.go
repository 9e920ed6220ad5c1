package bignum

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
)

var zero = big.NewInt(0)

// Normalize converts any on-chain numeric representation into a non-negative
// *big.Int. Absent or malformed inputs normalize to zero instead of raising,
// since a missing price or bid means "no value set" rather than a fault.
// Normalize(Normalize(x)) always equals Normalize(x).
func Normalize(raw interface{}) *big.Int {
	switch v := raw.(type) {
	case nil:
		return new(big.Int)
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return new(big.Int)
		}
		return new(big.Int).Set(v)
	case big.Int:
		return Normalize(&v)
	case string:
		return fromString(v)
	case json.Number:
		return fromString(v.String())
	case int:
		return fromInt64(int64(v))
	case int32:
		return fromInt64(int64(v))
	case int64:
		return fromInt64(v)
	case uint32:
		return new(big.Int).SetUint64(uint64(v))
	case uint64:
		return new(big.Int).SetUint64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return new(big.Int)
		}
		bi, _ := big.NewFloat(v).Int(nil)
		return bi
	default:
		return new(big.Int)
	}
}

// NormalizeUnix converts a raw on-chain timestamp to epoch seconds, zero on
// anything unrepresentable in an int64.
func NormalizeUnix(raw interface{}) int64 {
	bi := Normalize(raw)
	if !bi.IsInt64() {
		return 0
	}
	return bi.Int64()
}

// IsZero reports whether a normalized value is zero; nil counts as zero.
func IsZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}

func fromString(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int)
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	bi, ok := new(big.Int).SetString(s, base)
	if !ok || bi.Sign() < 0 {
		return new(big.Int)
	}
	return bi
}

func fromInt64(v int64) *big.Int {
	if v < 0 {
		return new(big.Int)
	}
	return big.NewInt(v)
}
