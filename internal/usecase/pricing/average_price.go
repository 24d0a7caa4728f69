package pricing

import (
	"context"
	"errors"

	"partspricing/internal/domain/pricing"
	"partspricing/internal/errs"
)

type AveragePriceView struct {
	PartID      uint64  `json:"part_id"`
	Average     float64 `json:"average"`
	Currency    string  `json:"currency"`
	SampleSize  int     `json:"sample_size"`
	InStockOnly bool    `json:"in_stock_only"`
}

// AveragePrice is the mean over fresh offers, optionally restricted to
// in-stock ones. Empty scope yields pricing.ErrNoPrices.
func (s *Service) AveragePrice(ctx context.Context, partID uint64, inStockOnly bool) (AveragePriceView, error) {
	if ctx == nil {
		return AveragePriceView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return AveragePriceView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return AveragePriceView{}, errors.New("catalog repository is required")
	}
	if partID == 0 {
		return AveragePriceView{}, errors.New("part id is required")
	}

	if _, err := s.repo.PartByID(ctx, partID); err != nil {
		return AveragePriceView{}, err
	}

	records, err := s.repo.PriceRecordsSince(ctx, partID, s.nowUTC().Add(-s.freshness))
	if err != nil {
		return AveragePriceView{}, errs.Wrap(err, "load fresh price records")
	}

	quotes := quotesFromRecords(records)
	average, ok := pricing.Average(quotes, inStockOnly)
	if !ok {
		return AveragePriceView{}, pricing.ErrNoPrices
	}

	sampleSize := 0
	for _, quote := range quotes {
		if inStockOnly && quote.Availability != pricing.InStock {
			continue
		}
		sampleSize++
	}

	currency := pricing.DefaultCurrency
	if len(records) > 0 {
		currency = records[0].Currency
	}

	return AveragePriceView{
		PartID:      partID,
		Average:     average,
		Currency:    currency,
		SampleSize:  sampleSize,
		InStockOnly: inStockOnly,
	}, nil
}
