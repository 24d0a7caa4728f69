package pricing

import (
	"context"
	"log/slog"
	"strings"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
)

// normalizeScraped converts one raw observation into a persistable record.
// Part identity resolves by SKU upsert when the candidate carries one;
// otherwise the record attaches to the part the cycle was started for.
// A rejected observation returns ok=false, never an error.
func (s *Service) normalizeScraped(ctx context.Context, fallbackPartID uint64, scraped ports.ScrapedPrice) (ports.PriceRecord, bool) {
	logCtx := logging.WithAttrs(ctx,
		slog.String("source", scraped.Part.Source),
		slog.String("sku", scraped.Part.SKU),
	)

	if scraped.Price <= 0 {
		logging.Warn(logCtx, "rejecting observation with non-positive price", slog.Float64("price", scraped.Price))
		return ports.PriceRecord{}, false
	}

	availability := scraped.Availability
	if !availability.Valid() {
		availability = pricing.Unknown
	}

	currency := strings.TrimSpace(scraped.Currency)
	if currency == "" {
		currency = pricing.DefaultCurrency
	}

	partID, ok := s.resolvePartID(logCtx, fallbackPartID, scraped.Part)
	if !ok {
		return ports.PriceRecord{}, false
	}

	return ports.PriceRecord{
		PartID:       partID,
		Source:       scraped.Part.Source,
		Price:        scraped.Price,
		Currency:     currency,
		URL:          scraped.URL,
		Availability: availability,
		DeliveryDays: scraped.DeliveryDays,
		RawPayload:   scraped.RawPayload,
		ObservedAt:   s.nowUTC(),
	}, true
}

func (s *Service) resolvePartID(ctx context.Context, fallbackPartID uint64, candidate ports.ScrapedPart) (uint64, bool) {
	sku := strings.TrimSpace(candidate.SKU)
	if sku == "" {
		if fallbackPartID == 0 {
			logging.Warn(ctx, "rejecting observation without sku or target part")
			return 0, false
		}
		return fallbackPartID, true
	}

	var part ports.Part
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		resolved, upsertErr := s.repo.UpsertPartBySKU(txCtx, ports.PartUpsert{
			Name:      candidate.Name,
			SKU:       sku,
			Brand:     candidate.Brand,
			Category:  candidate.Category,
			OEMNumber: candidate.OEMNumber,
		})
		if upsertErr != nil {
			return upsertErr
		}
		part = resolved
		return nil
	})
	if err != nil {
		logging.Warn(ctx, "part resolution failed, rejecting observation", slog.String("error", err.Error()))
		return 0, false
	}
	return part.PartID, true
}
