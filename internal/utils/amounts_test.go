package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUSDCAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1.25", 1250000},
		{"1.25 USDC", 1250000},
		{"1.25 usdc", 1250000},
		{"0", 0},
		{"0.000001", 1},
		{".5", 500000},
		{"10", 10000000},
	}
	for _, tt := range tests {
		got, err := ParseUSDCAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.Int64(), tt.in)
	}
}

func TestParseUSDCAmountRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "-1", "1.2345678", "abc", "1.2.3"} {
		_, err := ParseUSDCAmount(in)
		require.ErrorIs(t, err, ErrInvalidAmountFormat, in)
	}
}

func TestParseNativeAmount(t *testing.T) {
	got, err := ParseNativeAmount("0.01 ETH")
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("10000000000000000", 10)
	assert.Zero(t, got.Cmp(want))

	// Excess precision past 18 decimals is rejected, not rounded.
	_, err = ParseNativeAmount("0.0000000000000000001")
	require.ErrorIs(t, err, ErrInvalidAmountFormat)
}

func TestFormatUSDC(t *testing.T) {
	assert.Equal(t, "1.250000", FormatUSDC(big.NewInt(1250000)))
	assert.Equal(t, "0.000001", FormatUSDC(big.NewInt(1)))
	assert.Equal(t, "0.000000", FormatUSDC(big.NewInt(0)))
}

func TestSaltUniqueness(t *testing.T) {
	seen := make(map[[32]byte]bool)
	for i := 0; i < 64; i++ {
		salt, err := NewIntentSalt()
		require.NoError(t, err)
		require.False(t, seen[salt], "salt collision")
		seen[salt] = true
	}
}
