package ports

import (
	"context"
	"errors"
	"time"

	"partspricing/internal/domain/pricing"
)

var ErrPartNotFound = errors.New("part not found")

// Part identifies one physical component. Parts are created on first match
// from any source and enriched when richer metadata arrives; they are never
// deleted by normal operation.
type Part struct {
	PartID    uint64
	Name      string
	SKU       string
	Brand     string
	Category  string
	OEMNumber string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PartUpsert carries the fields resolved from a scraped candidate. SKU is
// the identity; the remaining fields only overwrite stored blanks.
type PartUpsert struct {
	Name      string
	SKU       string
	Brand     string
	Category  string
	OEMNumber string
}

// PriceRecord is one observed price at one point in time from one source.
// Records are immutable once written; every refresh appends new ones.
type PriceRecord struct {
	RecordID     uint64
	PartID       uint64
	Source       string
	Price        float64
	Currency     string
	URL          string
	Availability pricing.Availability
	DeliveryDays *int
	RawPayload   []byte
	ObservedAt   time.Time
}

// CatalogRepository is the Record Store collaborator: append-only price
// observations plus upsert-by-SKU part resolution.
type CatalogRepository interface {
	// UpsertPartBySKU resolves a part by unique SKU, creating it when absent
	// and filling blank metadata when present. Idempotent under concurrent
	// identical SKUs.
	UpsertPartBySKU(ctx context.Context, input PartUpsert) (Part, error)

	PartByID(ctx context.Context, partID uint64) (Part, error)
	PartBySKU(ctx context.Context, sku string) (Part, error)

	// SavePriceRecord appends one observation and returns it with its id.
	// It never overwrites.
	SavePriceRecord(ctx context.Context, record PriceRecord) (PriceRecord, error)

	// PriceRecordsSince returns records for the part with observed_at >= since,
	// ordered by ascending price.
	PriceRecordsSince(ctx context.Context, partID uint64, since time.Time) ([]PriceRecord, error)
}
