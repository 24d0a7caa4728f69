package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
)

// ---- in-memory collaborators ----

type fakeRepo struct {
	mu      sync.Mutex
	parts   map[uint64]ports.Part
	bySKU   map[string]uint64
	records []ports.PriceRecord
	nextID  uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		parts:  map[uint64]ports.Part{},
		bySKU:  map[string]uint64{},
		nextID: 1,
	}
}

func (r *fakeRepo) addPart(name, sku string) ports.Part {
	r.mu.Lock()
	defer r.mu.Unlock()

	part := ports.Part{PartID: r.nextID, Name: name, SKU: sku}
	r.parts[part.PartID] = part
	if sku != "" {
		r.bySKU[sku] = part.PartID
	}
	r.nextID++
	return part
}

func (r *fakeRepo) UpsertPartBySKU(_ context.Context, input ports.PartUpsert) (ports.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.bySKU[input.SKU]; ok {
		return r.parts[id], nil
	}
	part := ports.Part{PartID: r.nextID, Name: input.Name, SKU: input.SKU, Brand: input.Brand}
	r.parts[part.PartID] = part
	r.bySKU[input.SKU] = part.PartID
	r.nextID++
	return part, nil
}

func (r *fakeRepo) PartByID(_ context.Context, partID uint64) (ports.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	part, ok := r.parts[partID]
	if !ok {
		return ports.Part{}, ports.ErrPartNotFound
	}
	return part, nil
}

func (r *fakeRepo) PartBySKU(_ context.Context, sku string) (ports.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return ports.Part{}, ports.ErrPartNotFound
	}
	return r.parts[id], nil
}

func (r *fakeRepo) SavePriceRecord(_ context.Context, record ports.PriceRecord) (ports.PriceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.Price <= 0 {
		return ports.PriceRecord{}, domain.ErrInvalidPrice
	}
	record.RecordID = uint64(len(r.records) + 1)
	r.records = append(r.records, record)
	return record, nil
}

func (r *fakeRepo) PriceRecordsSince(_ context.Context, partID uint64, since time.Time) ([]ports.PriceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ports.PriceRecord
	for _, record := range r.records {
		if record.PartID == partID && !record.ObservedAt.Before(since) {
			out = append(out, record)
		}
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].Price < out[i].Price {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type fakeUOW struct{}

func (fakeUOW) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCache struct {
	mu       sync.Mutex
	values   map[string]string
	patterns []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) DeletePattern(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
			removed++
		}
	}
	return removed, nil
}

type fakeDriver struct {
	name      string
	parts     []ports.ScrapedPart
	prices    map[string][]ports.ScrapedPrice
	searchErr error
	pricesErr error
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) Search(_ context.Context, _ string, limit int) ([]ports.ScrapedPart, error) {
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	if limit > 0 && len(d.parts) > limit {
		return d.parts[:limit], nil
	}
	return d.parts, nil
}

func (d *fakeDriver) Prices(_ context.Context, part ports.ScrapedPart) ([]ports.ScrapedPrice, error) {
	if d.pricesErr != nil {
		return nil, d.pricesErr
	}
	return d.prices[part.SKU], nil
}

func (d *fakeDriver) SearchByOEM(ctx context.Context, oem string) ([]ports.ScrapedPart, error) {
	return d.Search(ctx, oem, 0)
}

type fakeRegistry struct {
	drivers map[string]ports.SourceDriver
}

func newFakeRegistry(drivers ...*fakeDriver) *fakeRegistry {
	byName := map[string]ports.SourceDriver{}
	for _, d := range drivers {
		byName[d.name] = d
	}
	return &fakeRegistry{drivers: byName}
}

func (r *fakeRegistry) Driver(name string) (ports.SourceDriver, bool) {
	d, ok := r.drivers[strings.ToLower(name)]
	return d, ok
}

func (r *fakeRegistry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	return names
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ports.RefreshCompleted
	err    error
}

func (p *fakePublisher) PublishRefreshCompleted(_ context.Context, event ports.RefreshCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func scrapedOffer(source, sku string, price float64, availability domain.Availability) ports.ScrapedPrice {
	return ports.ScrapedPrice{
		Part: ports.ScrapedPart{
			Name:   "Part " + sku,
			SKU:    sku,
			Source: source,
			URL:    fmt.Sprintf("https://%s.example/p/%s", source, sku),
		},
		Price:        price,
		Currency:     domain.DefaultCurrency,
		Availability: availability,
	}
}
