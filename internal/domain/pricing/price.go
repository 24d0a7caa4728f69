package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultCurrency is the single currency the pipeline operates in. Drivers
// that omit a currency get this one during normalization.
const DefaultCurrency = "RUB"

var currencyMarkers = []string{
	"₽", "руб.", "руб", "rub", "р.",
	"$", "usd", "€", "eur",
}

var numericPrice = regexp.MustCompile(`^\d+(\.\d+)?$`)

// decimalComma matches prices like "1290,50" where the comma is a decimal
// separator rather than a thousands separator.
var decimalComma = regexp.MustCompile(`^\d+,\d{1,2}$`)

// ParsePrice extracts a numeric price from a vendor price string. It strips
// currency markers and locale separators ("1 290,50 ₽" -> 1290.50). The
// second return is false when no numeric price can be extracted; malformed
// input is never an error.
func ParsePrice(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}

	// Drop regular, no-break and narrow no-break spaces used as thousands
	// separators in Russian price formatting.
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '\t':
			return -1
		}
		return r
	}, s)

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// "1,290.50" — comma is a thousands separator.
		s = strings.ReplaceAll(s, ",", "")
	case decimalComma.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	if !numericPrice.MatchString(s) {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ValidatePrice enforces the persistence invariant: price must be strictly
// positive or the record is rejected before it reaches the store.
func ValidatePrice(price float64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}
