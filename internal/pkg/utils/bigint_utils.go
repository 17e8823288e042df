package utils

import (
	"math/big"
	"strings"
)

// FormatUnits converts an integer amount of the smallest unit into a decimal
// string with exactly `decimals` fractional digits before trimming.
// No floating point is involved: the fractional part is the remainder padded
// to full width, then trailing zeros are trimmed keeping at least one digit.
// Example: amount=499979000000000000, decimals=18 => "0.499979"
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0.0"
	}
	if decimals <= 0 {
		return amount.String() + ".0"
	}

	abs := new(big.Int).Abs(amount)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	intPart, fracPart := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	frac := fracPart.String()
	if pad := int(decimals) - len(frac); pad > 0 {
		frac = strings.Repeat("0", pad) + frac
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	var sb strings.Builder
	if amount.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(intPart.String())
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}

// FormatSignedUnits is FormatUnits with an explicit "+" for positive amounts.
// Zero is rendered without a sign.
func FormatSignedUnits(amount *big.Int, decimals int32) string {
	s := FormatUnits(amount, decimals)
	if amount != nil && amount.Sign() > 0 {
		return "+" + s
	}
	return s
}

// ParseBigInt parses a base-10 integer string. Returns false for empty,
// malformed or negative input.
func ParseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// ClampZero returns a copy of v, or zero when v is negative.
func ClampZero(v *big.Int) *big.Int {
	if v == nil || v.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
