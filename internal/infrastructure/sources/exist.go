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

// ExistDriver talks to the exist supplier catalog endpoint. The vendor
// wraps results differently from autodoc but the behavioral contract is the
// same.
type ExistDriver struct {
	client
}

var _ ports.SourceDriver = (*ExistDriver)(nil)

func NewExist(profile DriverProfile) *ExistDriver {
	return &ExistDriver{client: newClient("exist", profile)}
}

func (d *ExistDriver) Name() string { return d.name }

type existCatalogResponse struct {
	Goods []existGood `json:"goods"`
}

type existGood struct {
	Title    string `json:"title"`
	Articul  string `json:"articul"`
	Maker    string `json:"maker"`
	OEM      string `json:"oem"`
	Category string `json:"category"`
	Link     string `json:"link"`
}

type existOffersResponse struct {
	Positions []existPosition `json:"positions"`
}

type existPosition struct {
	Cost         string `json:"cost"`
	Stock        string `json:"stock"`
	DeliveryDays *int   `json:"delivery_days"`
}

func (d *ExistDriver) Search(ctx context.Context, query string, limit int) ([]ports.ScrapedPart, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name))

	var payload existCatalogResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		searchURL := fmt.Sprintf("%s/catalog?kw=%s", d.baseURL, url.QueryEscape(query))
		return s.getJSON(ctx, searchURL, &payload)
	})
	if err != nil {
		return nil, err
	}

	parts := make([]ports.ScrapedPart, 0, len(payload.Goods))
	for _, good := range payload.Goods {
		if len(parts) >= limit {
			break
		}
		if strings.TrimSpace(good.Title) == "" {
			logging.Warn(logCtx, "skipping catalog entry without a title", slog.String("articul", good.Articul))
			continue
		}
		parts = append(parts, ports.ScrapedPart{
			Name:      strings.TrimSpace(good.Title),
			SKU:       strings.TrimSpace(good.Articul),
			Brand:     strings.TrimSpace(good.Maker),
			Category:  strings.TrimSpace(good.Category),
			OEMNumber: strings.TrimSpace(good.OEM),
			URL:       d.absoluteURL(good.Link),
			Source:    d.name,
		})
	}
	return parts, nil
}

func (d *ExistDriver) Prices(ctx context.Context, part ports.ScrapedPart) ([]ports.ScrapedPrice, error) {
	if strings.TrimSpace(part.URL) == "" {
		return nil, nil
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name), slog.String("sku", part.SKU))

	var payload existOffersResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		return s.getJSON(ctx, part.URL, &payload)
	})
	if err != nil {
		return nil, err
	}

	prices := make([]ports.ScrapedPrice, 0, len(payload.Positions))
	for _, position := range payload.Positions {
		value, ok := pricing.ParsePrice(position.Cost)
		if !ok {
			logging.Warn(logCtx, "skipping position without a parsable cost", slog.String("raw_cost", position.Cost))
			continue
		}

		raw, _ := json.Marshal(position)
		prices = append(prices, ports.ScrapedPrice{
			Part:         part,
			Price:        value,
			Currency:     pricing.DefaultCurrency,
			Availability: pricing.ClassifyAvailability(position.Stock),
			DeliveryDays: position.DeliveryDays,
			URL:          part.URL,
			RawPayload:   raw,
		})
	}
	return prices, nil
}

func (d *ExistDriver) SearchByOEM(ctx context.Context, oem string) ([]ports.ScrapedPart, error) {
	return d.Search(ctx, "OEM:"+strings.TrimSpace(oem), DefaultSearchLimit)
}

func (d *ExistDriver) absoluteURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return d.baseURL + trimmed
}
