package ports

import (
	"context"

	"partspricing/internal/domain/pricing"
)

// ScrapedPart is a transient candidate produced by one driver for one query
// turn. It is consumed by the normalizer and discarded, never persisted
// as-is.
type ScrapedPart struct {
	Name      string
	SKU       string
	Brand     string
	Category  string
	OEMNumber string
	URL       string
	Source    string
}

// ScrapedPrice is one raw price observation attached to a scraped part.
type ScrapedPrice struct {
	Part         ScrapedPart
	Price        float64
	Currency     string
	Availability pricing.Availability
	DeliveryDays *int
	URL          string
	RawPayload   []byte
}

// SourceDriver is the contract every vendor driver satisfies. Each driver is
// an isolated failure domain: Search never fails on a single malformed
// candidate (it logs and skips), and Prices returns an empty list for a part
// without a source URL.
type SourceDriver interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]ScrapedPart, error)
	Prices(ctx context.Context, part ScrapedPart) ([]ScrapedPrice, error)
	SearchByOEM(ctx context.Context, oem string) ([]ScrapedPart, error)
}

// DriverRegistry resolves configured drivers by source name.
type DriverRegistry interface {
	Driver(name string) (SourceDriver, bool)
	Names() []string
}
