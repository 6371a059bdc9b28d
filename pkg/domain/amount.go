package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	dErrors "payflow/pkg/domain-errors"
)

// Amount is a payout amount in minor units (paise), scale 2. Storing minor
// units as an integer keeps arithmetic and equality exact; the decimal form
// exists only at the JSON boundary.
//
// Invariant: a payout amount is strictly positive.
type Amount int64

// ParseAmount constructs an Amount from a decimal string such as "1500" or
// "1500.50". At most two fractional digits are accepted; the amount must be
// strictly positive.
//
// Errors: returns CodeValidation for empty, malformed, non-positive, or
// over-precise input.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "amount cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount supports at most two decimal places")
	}
	// Both parts must be bare digit runs. strconv.ParseInt alone would let a
	// sign slip into the fraction ("1.-5").
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is not a valid number")
	}
	// Right-pad the fraction to scale 2 so "1.5" means 1.50.
	frac += strings.Repeat("0", 2-len(frac))

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is not a valid number")
	}
	// Guard units*100+minor against int64 wraparound before multiplying.
	const maxUnits = (math.MaxInt64 - 99) / 100
	if units > maxUnits {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is too large")
	}
	minor := int64(frac[0]-'0')*10 + int64(frac[1]-'0')

	total := units*100 + minor
	if total <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return Amount(total), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount in decimal form, always with two fractional
// digits.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", int64(a)/100, int64(a)%100)
}

// MarshalJSON emits the decimal form as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
// Validation errors keep their domain error code so handlers can surface
// them unchanged.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return dErrors.New(dErrors.CodeValidation, "amount cannot be empty")
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
