package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
)

// AutodocDriver talks to the autodoc marketplace search API.
type AutodocDriver struct {
	client
}

var _ ports.SourceDriver = (*AutodocDriver)(nil)

func NewAutodoc(profile DriverProfile) *AutodocDriver {
	return &AutodocDriver{client: newClient("autodoc", profile)}
}

func (d *AutodocDriver) Name() string { return d.name }

type autodocSearchResponse struct {
	Items []autodocItem `json:"items"`
}

type autodocItem struct {
	Name     string `json:"name"`
	Article  string `json:"article"`
	Brand    string `json:"brand"`
	OEM      string `json:"oem"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type autodocOffersResponse struct {
	Offers []autodocOffer `json:"offers"`
}

type autodocOffer struct {
	Price        string `json:"price"`
	Availability string `json:"availability"`
	DeliveryDays *int   `json:"delivery_days"`
	URL          string `json:"url"`
}

func (d *AutodocDriver) Search(ctx context.Context, query string, limit int) ([]ports.ScrapedPart, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name))

	var payload autodocSearchResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		searchURL := fmt.Sprintf("%s/api/search?query=%s&limit=%d", d.baseURL, url.QueryEscape(query), limit)
		return s.getJSON(ctx, searchURL, &payload)
	})
	if err != nil {
		return nil, err
	}

	parts := make([]ports.ScrapedPart, 0, len(payload.Items))
	for _, item := range payload.Items {
		if len(parts) >= limit {
			break
		}
		if strings.TrimSpace(item.Name) == "" {
			// One malformed candidate never fails the whole search.
			logging.Warn(logCtx, "skipping search result without a name", slog.String("article", item.Article))
			continue
		}
		parts = append(parts, ports.ScrapedPart{
			Name:      strings.TrimSpace(item.Name),
			SKU:       strings.TrimSpace(item.Article),
			Brand:     strings.TrimSpace(item.Brand),
			Category:  strings.TrimSpace(item.Category),
			OEMNumber: strings.TrimSpace(item.OEM),
			URL:       d.absoluteURL(item.URL),
			Source:    d.name,
		})
	}
	return parts, nil
}

func (d *AutodocDriver) Prices(ctx context.Context, part ports.ScrapedPart) ([]ports.ScrapedPrice, error) {
	if strings.TrimSpace(part.URL) == "" {
		return nil, nil
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name), slog.String("sku", part.SKU))

	var payload autodocOffersResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		return s.getJSON(ctx, part.URL, &payload)
	})
	if err != nil {
		return nil, err
	}

	prices := make([]ports.ScrapedPrice, 0, len(payload.Offers))
	for _, offer := range payload.Offers {
		value, ok := pricing.ParsePrice(offer.Price)
		if !ok {
			logging.Warn(logCtx, "skipping offer without a parsable price", slog.String("raw_price", offer.Price))
			continue
		}

		raw, _ := json.Marshal(offer)
		prices = append(prices, ports.ScrapedPrice{
			Part:         part,
			Price:        value,
			Currency:     pricing.DefaultCurrency,
			Availability: pricing.ClassifyAvailability(offer.Availability),
			DeliveryDays: offer.DeliveryDays,
			URL:          firstNonEmpty(offer.URL, part.URL),
			RawPayload:   raw,
		})
	}
	return prices, nil
}

func (d *AutodocDriver) SearchByOEM(ctx context.Context, oem string) ([]ports.ScrapedPart, error) {
	return d.Search(ctx, "OEM:"+strings.TrimSpace(oem), DefaultSearchLimit)
}

func (d *AutodocDriver) absoluteURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return d.baseURL + trimmed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
