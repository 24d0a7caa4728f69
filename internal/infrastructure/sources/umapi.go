package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
)

// UmapiDriver talks to the umapi pricing API. It is credential-gated: with
// no API key configured it degrades to empty results instead of failing.
type UmapiDriver struct {
	client
	apiKey string
}

var _ ports.SourceDriver = (*UmapiDriver)(nil)

func NewUmapi(profile DriverProfile) *UmapiDriver {
	apiKey := ""
	if env := strings.TrimSpace(profile.CredentialEnv); env != "" {
		apiKey = strings.TrimSpace(os.Getenv(env))
	}

	d := &UmapiDriver{
		client: newClient("umapi", profile),
		apiKey: apiKey,
	}
	if apiKey != "" {
		d.headers["Authorization"] = "Bearer " + apiKey
	}
	return d
}

func (d *UmapiDriver) Name() string { return d.name }

type umapiSearchResponse struct {
	Results []umapiResult `json:"results"`
}

type umapiResult struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Brand     string `json:"brand"`
	OEMNumber string `json:"oem_number"`
	Category  string `json:"category"`
	URL       string `json:"url"`
}

type umapiPricesResponse struct {
	Offers []umapiOffer `json:"offers"`
}

type umapiOffer struct {
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Availability string  `json:"availability"`
	DeliveryDays *int    `json:"delivery_days"`
}

func (d *UmapiDriver) Search(ctx context.Context, query string, limit int) ([]ports.ScrapedPart, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name))

	if d.apiKey == "" {
		logging.Warn(logCtx, "no api key configured, returning no results")
		return nil, nil
	}

	var payload umapiSearchResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		searchURL := fmt.Sprintf("%s/v1/search?query=%s&limit=%d", d.baseURL, url.QueryEscape(query), limit)
		return s.getJSON(ctx, searchURL, &payload)
	})
	if err != nil {
		return nil, err
	}

	parts := make([]ports.ScrapedPart, 0, len(payload.Results))
	for _, result := range payload.Results {
		if len(parts) >= limit {
			break
		}
		if strings.TrimSpace(result.Name) == "" {
			logging.Warn(logCtx, "skipping result without a name", slog.String("sku", result.SKU))
			continue
		}
		parts = append(parts, ports.ScrapedPart{
			Name:      strings.TrimSpace(result.Name),
			SKU:       strings.TrimSpace(result.SKU),
			Brand:     strings.TrimSpace(result.Brand),
			Category:  strings.TrimSpace(result.Category),
			OEMNumber: strings.TrimSpace(result.OEMNumber),
			URL:       strings.TrimSpace(result.URL),
			Source:    d.name,
		})
	}
	return parts, nil
}

func (d *UmapiDriver) Prices(ctx context.Context, part ports.ScrapedPart) ([]ports.ScrapedPrice, error) {
	if d.apiKey == "" || strings.TrimSpace(part.URL) == "" {
		return nil, nil
	}
	logCtx := logging.WithAttrs(ctx, slog.String("source", d.name), slog.String("sku", part.SKU))

	var payload umapiPricesResponse
	err := d.withSession(ctx, func(ctx context.Context, s *session) error {
		return s.getJSON(ctx, part.URL, &payload)
	})
	if err != nil {
		return nil, err
	}

	prices := make([]ports.ScrapedPrice, 0, len(payload.Offers))
	for _, offer := range payload.Offers {
		if offer.Price <= 0 {
			logging.Warn(logCtx, "skipping offer with non-positive price", slog.Float64("price", offer.Price))
			continue
		}

		currency := strings.TrimSpace(offer.Currency)
		if currency == "" {
			currency = pricing.DefaultCurrency
		}

		raw, _ := json.Marshal(offer)
		prices = append(prices, ports.ScrapedPrice{
			Part:         part,
			Price:        offer.Price,
			Currency:     currency,
			Availability: pricing.ClassifyAvailability(offer.Availability),
			DeliveryDays: offer.DeliveryDays,
			URL:          part.URL,
			RawPayload:   raw,
		})
	}
	return prices, nil
}

func (d *UmapiDriver) SearchByOEM(ctx context.Context, oem string) ([]ports.ScrapedPart, error) {
	return d.Search(ctx, "OEM:"+strings.TrimSpace(oem), DefaultSearchLimit)
}
