package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partspricing/internal/domain/pricing"
	"partspricing/internal/errs"
	"partspricing/internal/ports"
)

type PricesInput struct {
	PartID      uint64
	InStockOnly bool

	// ForceRefresh runs a full refresh across every configured source
	// before aggregating.
	ForceRefresh bool

	// MaxAge overrides the freshness window; zero means the service
	// default.
	MaxAge time.Duration
}

type PriceView struct {
	Source       string               `json:"source"`
	Price        float64              `json:"price"`
	Currency     string               `json:"currency"`
	URL          string               `json:"url,omitempty"`
	Availability pricing.Availability `json:"availability"`
	DeliveryDays *int                 `json:"delivery_days,omitempty"`
	ObservedAt   time.Time            `json:"observed_at"`
}

// PriceSummary is the aggregated per-part view. Optional aggregates are
// pointers so an absent value never reads as zero.
type PriceSummary struct {
	PartID         uint64      `json:"part_id"`
	PartName       string      `json:"part_name"`
	HasPrices      bool        `json:"has_prices"`
	Message        string      `json:"message,omitempty"`
	TotalSources   int         `json:"total_sources"`
	InStockSources int         `json:"in_stock_sources"`
	BestPrice      *float64    `json:"best_price,omitempty"`
	AveragePrice   *float64    `json:"average_price,omitempty"`
	LowestInStock  *float64    `json:"lowest_in_stock,omitempty"`
	Sources        []string    `json:"sources"`
	Prices         []PriceView `json:"prices"`
	GeneratedAt    time.Time   `json:"generated_at"`
}

// GetPrices aggregates fresh records for one part. The aggregate fields
// always describe the full fresh set; InStockOnly narrows the listed
// records only.
func (s *Service) GetPrices(ctx context.Context, input PricesInput) (PriceSummary, error) {
	if ctx == nil {
		return PriceSummary{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return PriceSummary{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return PriceSummary{}, errors.New("catalog repository is required")
	}
	if input.PartID == 0 {
		return PriceSummary{}, errors.New("part id is required")
	}

	maxAge := input.MaxAge
	if maxAge <= 0 {
		maxAge = s.freshness
	}

	if input.ForceRefresh {
		if _, err := s.Refresh(ctx, RefreshInput{PartID: input.PartID, Sources: s.allSourceNames()}); err != nil {
			return PriceSummary{}, errs.Wrap(err, "refresh before aggregation")
		}
	}

	// Custom windows bypass the cache; the key space covers the default
	// freshness only. A forced refresh skips the read but still writes
	// through, so the next default read is served warm.
	cacheable := maxAge == s.freshness
	cacheKey := cachePricesKey(input.PartID, input.InStockOnly)
	if cacheable && !input.ForceRefresh {
		var cached PriceSummary
		if s.cacheGetJSON(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	part, err := s.repo.PartByID(ctx, input.PartID)
	if err != nil {
		return PriceSummary{}, err
	}

	records, err := s.repo.PriceRecordsSince(ctx, input.PartID, s.nowUTC().Add(-maxAge))
	if err != nil {
		return PriceSummary{}, errs.Wrap(err, "load fresh price records")
	}

	summary := s.buildSummary(part, records, input.InStockOnly, maxAge)
	if cacheable {
		s.cacheSetJSON(ctx, cacheKey, summary, cacheTTLPrices)
	}
	return summary, nil
}

func (s *Service) buildSummary(part ports.Part, records []ports.PriceRecord, inStockOnly bool, window time.Duration) PriceSummary {
	summary := PriceSummary{
		PartID:      part.PartID,
		PartName:    part.Name,
		Sources:     []string{},
		Prices:      []PriceView{},
		GeneratedAt: s.nowUTC(),
	}

	stats, ok := pricing.Summarize(quotesFromRecords(records))
	if !ok {
		summary.Message = fmt.Sprintf("no prices found in the last %s", window)
		return summary
	}

	summary.HasPrices = true
	summary.TotalSources = stats.TotalSources
	summary.InStockSources = stats.InStockSources
	summary.BestPrice = stats.BestPrice
	summary.AveragePrice = stats.AveragePrice
	summary.LowestInStock = stats.LowestInStock
	summary.Sources = stats.Sources

	for _, record := range records {
		if inStockOnly && record.Availability != pricing.InStock {
			continue
		}
		summary.Prices = append(summary.Prices, PriceView{
			Source:       record.Source,
			Price:        record.Price,
			Currency:     record.Currency,
			URL:          record.URL,
			Availability: record.Availability,
			DeliveryDays: record.DeliveryDays,
			ObservedAt:   record.ObservedAt,
		})
	}
	return summary
}

func quotesFromRecords(records []ports.PriceRecord) []pricing.Quote {
	quotes := make([]pricing.Quote, 0, len(records))
	for _, record := range records {
		quotes = append(quotes, pricing.Quote{
			Source:       record.Source,
			Price:        record.Price,
			Availability: record.Availability,
		})
	}
	return quotes
}

func (s *Service) allSourceNames() []string {
	if s.drivers == nil {
		return nil
	}
	return s.drivers.Names()
}
