package units

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
)

func mustBig(t *testing.T, s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big int %s", s)
	}
	return v
}

func Test_ToDisplay(t *testing.T) {
	t.Run("One whole token keeps a fractional digit", func(t *testing.T) {
		assert.Equal(t, "1.0", ToDisplay(mustBig(t, "1000000000000000000"), 18))
	})
	t.Run("Zero", func(t *testing.T) {
		assert.Equal(t, "0.0", ToDisplay(big.NewInt(0), 18))
		assert.Equal(t, "0.0", ToDisplay(nil, 18))
	})
	t.Run("Trailing zeros are trimmed", func(t *testing.T) {
		assert.Equal(t, "1.2345", ToDisplay(big.NewInt(1234500), 6))
	})
	t.Run("Smallest unit", func(t *testing.T) {
		assert.Equal(t, "0.000000000000000001", ToDisplay(big.NewInt(1), 18))
	})
	t.Run("Zero decimals", func(t *testing.T) {
		assert.Equal(t, "42", ToDisplay(big.NewInt(42), 0))
	})
}

func Test_ToRaw(t *testing.T) {
	t.Run("Scales by decimals", func(t *testing.T) {
		raw, err := ToRaw("1.5", 18)
		assert.Nil(t, err)
		assert.Equal(t, mustBig(t, "1500000000000000000"), raw)
	})
	t.Run("Truncates excess fractional digits", func(t *testing.T) {
		raw, err := ToRaw("1.9999999", 6)
		assert.Nil(t, err)
		assert.Equal(t, big.NewInt(1999999), raw)

		raw, err = ToRaw("0.0000001", 6)
		assert.Nil(t, err)
		assert.Equal(t, int64(0), raw.Int64())
	})
	t.Run("Large amounts stay exact", func(t *testing.T) {
		raw, err := ToRaw("123456789012.123456789012345678", 18)
		assert.Nil(t, err)
		assert.Equal(t, mustBig(t, "123456789012123456789012345678"), raw)
	})
	t.Run("Empty input is zero", func(t *testing.T) {
		raw, err := ToRaw("", 18)
		assert.Nil(t, err)
		assert.Equal(t, int64(0), raw.Int64())
	})
	t.Run("Rejects garbage and negatives", func(t *testing.T) {
		_, err := ToRaw("abc", 18)
		assert.NotNil(t, err)

		_, err = ToRaw("-1", 18)
		assert.NotNil(t, err)
	})
}

func Test_AmountBounds(t *testing.T) {
	t.Run("Rejects exponent notation", func(t *testing.T) {
		_, err := ToRaw("1e50000000", 18)
		assert.NotNil(t, err)

		_, err = ToRaw("1E2", 0)
		assert.NotNil(t, err)

		_, err = ParseUnits("2e3", 6)
		assert.NotNil(t, err)
	})
	t.Run("Rejects overlong input", func(t *testing.T) {
		_, err := ToRaw(strings.Repeat("1", maxDisplayLength+1), 0)
		assert.NotNil(t, err)
	})
	t.Run("Rejects amounts above uint256", func(t *testing.T) {
		_, err := ToRaw("1"+strings.Repeat("0", 80), 18)
		assert.ErrorIs(t, err, ErrAmountTooLarge)

		_, err = ParseUnits(new(big.Int).Add(abi.MaxUint256, big.NewInt(1)).String(), 0)
		assert.ErrorIs(t, err, ErrAmountTooLarge)
	})
	t.Run("Accepts the largest uint256", func(t *testing.T) {
		raw, err := ToRaw(abi.MaxUint256.String(), 0)
		assert.Nil(t, err)
		assert.Equal(t, 0, abi.MaxUint256.Cmp(raw))
	})
}

func Test_RoundTrip(t *testing.T) {
	values := []string{"0", "1", "999", "1000000000000000000", "123456789012345678901234567890"}
	for _, decimals := range []uint8{0, 6, 8, 18} {
		for _, v := range values {
			raw := mustBig(t, v)
			back, err := ToRaw(ToDisplay(raw, decimals), decimals)
			assert.Nil(t, err)
			assert.Equal(t, 0, raw.Cmp(back), "decimals=%d value=%s", decimals, v)
		}
	}
}

func Test_ParseUnits(t *testing.T) {
	t.Run("Exact conversion", func(t *testing.T) {
		raw, err := ParseUnits("2.25", 6)
		assert.Nil(t, err)
		assert.Equal(t, big.NewInt(2250000), raw)
	})
	t.Run("Rejects too many decimals", func(t *testing.T) {
		_, err := ParseUnits("1.1234567", 6)
		assert.NotNil(t, err)
	})
}

func Test_IsZero(t *testing.T) {
	assert.True(t, IsZero(""))
	assert.True(t, IsZero("0.000"))
	assert.False(t, IsZero("0.1"))
	assert.False(t, IsZero("nope"))
}
