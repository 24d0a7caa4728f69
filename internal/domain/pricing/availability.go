package pricing

import "strings"

// Availability is the three-state stock classification for an observed price.
type Availability string

const (
	InStock Availability = "in_stock"
	OnOrder Availability = "on_order"
	Unknown Availability = "unknown"
)

func (a Availability) Valid() bool {
	switch a {
	case InStock, OnOrder, Unknown:
		return true
	}
	return false
}

var inStockPhrases = []string{
	"в наличии",
	"есть в наличии",
	"in stock",
	"available now",
}

var onOrderPhrases = []string{
	"под заказ",
	"на заказ",
	"on order",
	"backorder",
}

// ClassifyAvailability maps free-text vendor phrases to the three-state enum.
// Anything unrecognized is Unknown; an unknown state must never pass as
// in-stock, so there is deliberately no other fallback.
func ClassifyAvailability(text string) Availability {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Unknown
	}

	for _, phrase := range inStockPhrases {
		if strings.Contains(lower, phrase) {
			return InStock
		}
	}
	for _, phrase := range onOrderPhrases {
		if strings.Contains(lower, phrase) {
			return OnOrder
		}
	}
	return Unknown
}
