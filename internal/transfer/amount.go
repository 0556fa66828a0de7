package transfer

import (
	"strconv"
	"strings"

	"github.com/larkin/bankview-go/internal/domain"
)

// ParseAmount converts a human-entered decimal amount to integer minor
// units (two decimal places). Validation owns the conversion: callers pass
// the raw string and receive minor units, so there is exactly one boundary
// where the x100 happens.
//
// The parse is exact decimal-string arithmetic, never float multiplication:
// float x100 silently misrepresents amounts like 10.55. Invalid inputs:
// not a plain decimal number, zero or negative, or carrying more precision
// than the currency supports.
func ParseAmount(input string) (int64, error) {
	invalid := func(msg string) error {
		return &domain.ErrValidation{Field: "amount", Message: msg}
	}

	s := strings.TrimSpace(input)
	if s == "" {
		return 0, invalid("amount is required")
	}

	negative := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		negative = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, invalid("not a number")
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, invalid("not a number")
	}

	// Digits past the second decimal place are over-precision unless they
	// are zeros: "10.500" is exactly 1050, "10.555" is not representable.
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, invalid("more than two decimal places")
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	if whole == "" {
		whole = "0"
	}
	minor, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, invalid("amount out of range")
	}
	if negative || minor <= 0 {
		return 0, invalid("amount must be positive")
	}
	return minor, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
