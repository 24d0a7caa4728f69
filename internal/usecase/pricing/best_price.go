package pricing

import (
	"context"
	"errors"
	"time"

	"partspricing/internal/domain/pricing"
	"partspricing/internal/errs"
)

type BestPriceView struct {
	PartID       uint64               `json:"part_id"`
	Source       string               `json:"source"`
	Price        float64              `json:"price"`
	Currency     string               `json:"currency"`
	URL          string               `json:"url,omitempty"`
	Availability pricing.Availability `json:"availability"`
	InStockOnly  bool                 `json:"in_stock_only"`
	ObservedAt   time.Time            `json:"observed_at"`
}

// BestPrice returns the cheapest fresh offer for a part. With no fresh
// records in scope it returns pricing.ErrNoPrices, never a zero price.
func (s *Service) BestPrice(ctx context.Context, partID uint64, inStockOnly bool) (BestPriceView, error) {
	if ctx == nil {
		return BestPriceView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return BestPriceView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return BestPriceView{}, errors.New("catalog repository is required")
	}
	if partID == 0 {
		return BestPriceView{}, errors.New("part id is required")
	}

	cacheKey := cacheBestPriceKey(partID, inStockOnly)
	var cached BestPriceView
	if s.cacheGetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	if _, err := s.repo.PartByID(ctx, partID); err != nil {
		return BestPriceView{}, err
	}

	records, err := s.repo.PriceRecordsSince(ctx, partID, s.nowUTC().Add(-s.freshness))
	if err != nil {
		return BestPriceView{}, errs.Wrap(err, "load fresh price records")
	}

	best, ok := pricing.Best(quotesFromRecords(records), inStockOnly)
	if !ok {
		return BestPriceView{}, pricing.ErrNoPrices
	}

	view := BestPriceView{
		PartID:       partID,
		Source:       best.Source,
		Price:        best.Price,
		Availability: best.Availability,
		InStockOnly:  inStockOnly,
	}
	for _, record := range records {
		if record.Source == best.Source && record.Price == best.Price {
			view.Currency = record.Currency
			view.URL = record.URL
			view.ObservedAt = record.ObservedAt
			break
		}
	}

	s.cacheSetJSON(ctx, cacheKey, view, cacheTTLPrices)
	return view, nil
}
