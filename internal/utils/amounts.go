package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// USDCDecimals is the number of decimals of every configured USDC
// deployment. Amounts move through the payment flow in this smallest
// unit only; nothing on the monetary path touches floating point.
const USDCDecimals = 6

// NativeDecimals is the decimals of the native currency (wei).
const NativeDecimals = 18

// ParseUSDCAmount parses a price string like "1.25" or "1.25 USDC" into
// an integer amount in the smallest USDC unit.
func ParseUSDCAmount(value string) (*big.Int, error) {
	return ParseDecimalAmount(stripUnit(value, "usdc"), USDCDecimals)
}

// ParseNativeAmount parses a price string like "0.01" or "0.01 ETH"
// into wei.
func ParseNativeAmount(value string) (*big.Int, error) {
	return ParseDecimalAmount(stripUnit(value, "eth"), NativeDecimals)
}

// ParseDecimalAmount converts a decimal string to an integer amount at
// the given number of decimals using pure integer arithmetic. Excess
// fractional digits are rejected rather than rounded.
func ParseDecimalAmount(value string, decimals int) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidAmountFormat)
	}
	if strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("%w: negative amount %q", ErrInvalidAmountFormat, value)
	}

	whole := value
	frac := ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole = value[:idx]
		frac = value[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmountFormat, value, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	amount, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, value)
	}
	return amount, nil
}

// FormatUSDC renders a smallest-unit amount as a decimal string for
// display and logging.
func FormatUSDC(amount *big.Int) string {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(USDCDecimals), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))
	return fmt.Sprintf("%s.%06d", whole.String(), frac)
}

func stripUnit(value, unit string) string {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if strings.HasSuffix(lower, unit) {
		trimmed = trimmed[:len(trimmed)-len(unit)]
	}
	return strings.TrimSpace(trimmed)
}
