// Package units converts between raw on-chain token amounts (integers scaled
// by 10^decimals) and human readable decimal strings.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/shopspring/decimal"
)

// maxDisplayLength bounds the textual input. A uint256 has 78 digits and a
// token at most 255 decimals, so anything longer cannot be a valid amount.
const maxDisplayLength = 78 + 1 + 255

var ErrAmountTooLarge = errors.New("amount does not fit in uint256")

// ToDisplay renders a raw amount as a decimal string, formatted the way
// ethers' formatUnits does: trailing zeros are trimmed but at least one
// fractional digit is kept, so 1e18 with 18 decimals renders as "1.0".
func ToDisplay(raw *big.Int, decimals uint8) string {
	if raw == nil {
		raw = big.NewInt(0)
	}
	d := decimal.NewFromBigInt(raw, -int32(decimals))
	s := d.StringFixed(int32(decimals))

	if decimals == 0 {
		return s
	}
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s = s + "0"
	}
	return s
}

func parseDisplay(display string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(display)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	if len(trimmed) > maxDisplayLength {
		return decimal.Zero, fmt.Errorf("invalid amount: longer than %d characters", maxDisplayLength)
	}
	if strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': exponent notation is not accepted", display)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': %w", display, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': must not be negative", display)
	}
	return d, nil
}

// ToRaw scales a display amount by 10^decimals and truncates toward zero.
//
// Fractional digits beyond the token's precision are dropped rather than
// rounded. The scaling itself is done in fixed point, so large amounts and
// 18-decimal tokens are represented exactly.
func ToRaw(display string, decimals uint8) (*big.Int, error) {
	d, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}
	return checkUint256(d.Shift(int32(decimals)).Truncate(0).BigInt())
}

func checkUint256(raw *big.Int) (*big.Int, error) {
	if raw.Cmp(abi.MaxUint256) > 0 {
		return nil, ErrAmountTooLarge
	}
	return raw, nil
}

// ParseUnits is the strict variant of ToRaw: it refuses inputs with more
// fractional digits than the token supports instead of truncating them.
func ParseUnits(display string, decimals uint8) (*big.Int, error) {
	d, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount '%s': too many decimal places for %d decimals", display, decimals)
	}
	return checkUint256(scaled.BigInt())
}

// IsZero reports whether a display amount is absent or numerically zero.
// Unparseable input is not zero; ToRaw reports it.
func IsZero(display string) bool {
	d, err := parseDisplay(display)
	if err != nil {
		return false
	}
	return d.IsZero()
}
