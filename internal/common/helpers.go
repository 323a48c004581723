package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/holiman/uint256"
)

const (
	EVMDecimals = 18 // wei per ether
	SOLDecimals = 9  // lamports per SOL
)

// FormatUnits converts minor units to a decimal string without float precision loss.
// Trailing zeros are trimmed but at least one fractional digit is kept.
// Example: FormatUnits(24981836, 9) = "0.024981836"
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		value = new(big.Int)
	}
	neg := value.Sign() < 0
	s := new(big.Int).Abs(value).String()

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	whole, frac := s[:pos], strings.TrimRight(s[pos:], "0")
	if frac == "" {
		frac = "0"
	}
	if neg {
		whole = "-" + whole
	}
	return whole + "." + frac
}

// ParseUnits converts a decimal string to minor units.
// Unlike a float conversion it never rounds: more fractional digits than
// decimals, signs, exponents or anything beyond 256 bits is rejected with
// model.ErrInvalidAmount.
// Example: ParseUnits("0.024981836", 9) = 24981836
func ParseUnits(s string, decimals int) (*big.Int, error) {
	raw := s
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", model.ErrInvalidAmount)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q is not a decimal number", model.ErrInvalidAmount, raw)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q is not a decimal number", model.ErrInvalidAmount, raw)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", model.ErrInvalidAmount, raw)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has more than %d fractional digits", model.ErrInvalidAmount, raw, decimals)
	}

	// Pad fractional part to exact decimals and combine
	frac += strings.Repeat("0", decimals-len(frac))
	combined := whole + frac
	if combined == "" {
		combined = "0"
	}

	v, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal number", model.ErrInvalidAmount, raw)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, fmt.Errorf("%w: %q is out of range", model.ErrInvalidAmount, raw)
	}
	return v, nil
}

// ParsePositiveUnits is ParseUnits that also rejects zero.
func ParsePositiveUnits(s string, decimals int) (*big.Int, error) {
	v, err := ParseUnits(s, decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", model.ErrInvalidAmount)
	}
	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ShortAddress abbreviates an address for log lines: 0x1234...abcd
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
