package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Price limits mirror a DECIMAL(7, 2) column.
const (
	PriceMaxDigits     = 7
	PriceDecimalPlaces = 2
)

// Price is a monetary amount stored as an integer number of hundredths so that
// equality and ordering in SQL are exact.
type Price int64

// Rating is an average rate rounded to hundredths.
type Rating int64

// DecimalError describes why a decimal string was rejected.
type DecimalError struct {
	Message string
}

func (e *DecimalError) Error() string {
	return e.Message
}

var (
	errInvalidNumber = &DecimalError{"A valid number is required."}
	errMaxDigits     = &DecimalError{fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits)}
	errMaxDecimals   = &DecimalError{fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces)}
	errMaxWholes     = &DecimalError{fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", PriceMaxDigits-PriceDecimalPlaces)}
)

// ParsePrice parses a decimal string such as "10.99", "-3.5" or "1e2". Digit
// counting follows the usual DECIMAL semantics: leading zeros of the whole part
// don't count, trailing zeros of the fraction do, and an exponent shifts the
// point before counting.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	mantissa, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa = s[:i]
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, errInvalidNumber
		}
		if e > maxExponent || e < -maxExponent {
			return 0, errMaxDigits
		}
		exp = e
	}

	whole, frac, _ := strings.Cut(mantissa, ".")
	if (whole == "" && frac == "") || !isDigits(whole) || !isDigits(frac) {
		return 0, errInvalidNumber
	}

	// The value is coefficient * 10^exponent.
	coefficient := strings.TrimLeft(whole+frac, "0")
	if coefficient == "" {
		coefficient = "0"
	}
	exponent := exp - len(frac)

	digits, decimals := len(coefficient), 0
	switch {
	case exponent >= 0:
		digits += exponent
	case -exponent > digits:
		digits, decimals = -exponent, -exponent
	default:
		decimals = -exponent
	}

	if digits > PriceMaxDigits {
		return 0, errMaxDigits
	}
	if decimals > PriceDecimalPlaces {
		return 0, errMaxDecimals
	}
	if digits-decimals > PriceMaxDigits-PriceDecimalPlaces {
		return 0, errMaxWholes
	}

	v, err := strconv.ParseInt(coefficient, 10, 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	for i := 0; i < exponent+PriceDecimalPlaces; i++ {
		v *= 10
	}
	if negative {
		v = -v
	}
	return Price(v), nil
}

// MustParsePrice is like ParsePrice but panics on invalid input. It's meant for
// literals in seeds and tests.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(fmt.Sprintf("invalid price %q: %v", s, err))
	}
	return p
}

// maxExponent bounds exponents well past anything that fits the column.
const maxExponent = 1000

// maxPriceHundredths is the largest magnitude a DECIMAL(7, 2) column holds.
const maxPriceHundredths = 99999_99

// Validate reports whether the price fits the column's precision.
func (p Price) Validate() error {
	if p > maxPriceHundredths || p < -maxPriceHundredths {
		return errMaxDigits
	}
	return nil
}

func (p Price) String() string {
	return formatHundredths(int64(p))
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

func (r Rating) String() string {
	return formatHundredths(int64(r))
}

func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(r.String())), nil
}

func formatHundredths(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
