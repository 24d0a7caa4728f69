package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
)

func seedRecord(t *testing.T, repo *fakeRepo, partID uint64, source string, price float64, availability domain.Availability, observedAt time.Time) {
	t.Helper()

	_, err := repo.SavePriceRecord(context.Background(), ports.PriceRecord{
		PartID:       partID,
		Source:       source,
		Price:        price,
		Currency:     domain.DefaultCurrency,
		Availability: availability,
		ObservedAt:   observedAt,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestGetPricesAggregates(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	now := time.Now().UTC()

	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, now)
	seedRecord(t, repo, part.PartID, "exist", 900, domain.OnOrder, now)
	seedRecord(t, repo, part.PartID, "umapi", 1100, domain.InStock, now)

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	summary, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}

	if !summary.HasPrices {
		t.Fatal("expected HasPrices")
	}
	if summary.TotalSources != 3 || summary.InStockSources != 2 {
		t.Errorf("sources = %d/%d in stock, want 3/2", summary.TotalSources, summary.InStockSources)
	}
	if summary.BestPrice == nil || *summary.BestPrice != 900 {
		t.Errorf("best price = %v, want 900", summary.BestPrice)
	}
	if summary.AveragePrice == nil || *summary.AveragePrice != 1000 {
		t.Errorf("average price = %v, want 1000", summary.AveragePrice)
	}
	if summary.LowestInStock == nil || *summary.LowestInStock != 1000 {
		t.Errorf("lowest in stock = %v, want 1000", summary.LowestInStock)
	}
	if len(summary.Prices) != 3 {
		t.Errorf("expected 3 listed prices, got %d", len(summary.Prices))
	}
}

func TestGetPricesInStockOnlyNarrowsListNotStats(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	now := time.Now().UTC()

	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, now)
	seedRecord(t, repo, part.PartID, "exist", 900, domain.OnOrder, now)

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	summary, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID, InStockOnly: true})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}

	if len(summary.Prices) != 1 || summary.Prices[0].Source != "autodoc" {
		t.Errorf("listed prices = %+v, want only the in-stock autodoc offer", summary.Prices)
	}
	if summary.BestPrice == nil || *summary.BestPrice != 900 {
		t.Errorf("best price = %v, want overall 900 regardless of the list filter", summary.BestPrice)
	}
	if summary.TotalSources != 2 {
		t.Errorf("total sources = %d, want 2", summary.TotalSources)
	}
}

func TestGetPricesEmptyWindow(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")

	// Only a stale record, outside the default window.
	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, time.Now().UTC().Add(-48*time.Hour))

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	summary, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}

	if summary.HasPrices {
		t.Error("stale-only history must report HasPrices=false")
	}
	if summary.Message == "" {
		t.Error("empty summary must carry an explanatory message")
	}
	if summary.BestPrice != nil || summary.AveragePrice != nil {
		t.Error("empty summary must not fabricate zero aggregates")
	}
}

func TestGetPricesWiderWindowSeesOlderRecords(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, time.Now().UTC().Add(-48*time.Hour))

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	summary, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID, MaxAge: 72 * time.Hour})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if !summary.HasPrices {
		t.Error("a 72h window must include the 48h-old record")
	}
}

func TestGetPricesUsesCache(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, time.Now().UTC())

	cache := newFakeCache()
	svc := newTestService(repo, cache, newFakeRegistry(), &fakePublisher{})

	first, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}

	// New record lands, but the cached view is served until invalidation.
	seedRecord(t, repo, part.PartID, "exist", 500, domain.InStock, time.Now().UTC())

	second, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if second.TotalSources != first.TotalSources {
		t.Errorf("expected cached view, got recomputed one: %d vs %d sources", second.TotalSources, first.TotalSources)
	}

	svc.invalidatePart(context.Background(), part.PartID)

	third, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if third.TotalSources != 2 {
		t.Errorf("after invalidation total sources = %d, want 2", third.TotalSources)
	}
}

func TestGetPricesForceRefreshWritesThroughCache(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	cache := newFakeCache()

	// Stale cached view that a forced refresh must not serve.
	_ = cache.Set(context.Background(), cachePricesKey(part.PartID, false), `{"part_id":1,"has_prices":false}`, time.Hour)

	autodoc := autodocWithOffers("OC90", scrapedOffer("autodoc", "OC90", 990, domain.InStock))
	svc := newTestService(repo, cache, newFakeRegistry(autodoc), &fakePublisher{})

	summary, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID, ForceRefresh: true})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if !summary.HasPrices {
		t.Fatal("forced refresh must aggregate the freshly collected records, not the stale cache entry")
	}

	value, found, _ := cache.Get(context.Background(), cachePricesKey(part.PartID, false))
	if !found {
		t.Fatal("forced refresh must write the recomputed summary through the cache")
	}
	if value == `{"part_id":1,"has_prices":false}` {
		t.Fatal("cache still holds the stale entry")
	}

	// The warm entry now serves the next default read.
	again, err := svc.GetPrices(context.Background(), PricesInput{PartID: part.PartID})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if !again.HasPrices || again.TotalSources != summary.TotalSources {
		t.Errorf("follow-up read = %+v, want the written-through summary", again)
	}
}

func TestGetPricesUnknownPart(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeCache(), newFakeRegistry(), &fakePublisher{})

	_, err := svc.GetPrices(context.Background(), PricesInput{PartID: 42})
	if !errors.Is(err, ports.ErrPartNotFound) {
		t.Fatalf("expected ErrPartNotFound, got %v", err)
	}
}

func TestBestPrice(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	now := time.Now().UTC()

	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, now)
	seedRecord(t, repo, part.PartID, "exist", 900, domain.OnOrder, now)

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	best, err := svc.BestPrice(context.Background(), part.PartID, false)
	if err != nil {
		t.Fatalf("BestPrice: %v", err)
	}
	if best.Price != 900 || best.Source != "exist" {
		t.Errorf("best = %+v, want 900 from exist", best)
	}

	bestStock, err := svc.BestPrice(context.Background(), part.PartID, true)
	if err != nil {
		t.Fatalf("BestPrice in stock: %v", err)
	}
	if bestStock.Price != 1000 || bestStock.Source != "autodoc" {
		t.Errorf("best in stock = %+v, want 1000 from autodoc", bestStock)
	}
}

func TestBestPriceNoFreshRecords(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	_, err := svc.BestPrice(context.Background(), part.PartID, false)
	if !errors.Is(err, domain.ErrNoPrices) {
		t.Fatalf("expected ErrNoPrices, got %v", err)
	}
}

func TestAveragePrice(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	now := time.Now().UTC()

	seedRecord(t, repo, part.PartID, "autodoc", 1000, domain.InStock, now)
	seedRecord(t, repo, part.PartID, "exist", 900, domain.OnOrder, now)
	seedRecord(t, repo, part.PartID, "umapi", 1100, domain.InStock, now)

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	overall, err := svc.AveragePrice(context.Background(), part.PartID, false)
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if overall.Average != 1000 || overall.SampleSize != 3 {
		t.Errorf("overall = %+v, want average 1000 over 3", overall)
	}

	inStock, err := svc.AveragePrice(context.Background(), part.PartID, true)
	if err != nil {
		t.Fatalf("AveragePrice in stock: %v", err)
	}
	if inStock.Average != 1050 || inStock.SampleSize != 2 {
		t.Errorf("in stock = %+v, want average 1050 over 2", inStock)
	}
}

func TestAveragePriceEmptyScope(t *testing.T) {
	repo := newFakeRepo()
	part := repo.addPart("Oil Filter", "OC90")
	seedRecord(t, repo, part.PartID, "exist", 900, domain.OnOrder, time.Now().UTC())

	svc := newTestService(repo, newFakeCache(), newFakeRegistry(), &fakePublisher{})

	_, err := svc.AveragePrice(context.Background(), part.PartID, true)
	if !errors.Is(err, domain.ErrNoPrices) {
		t.Fatalf("expected ErrNoPrices when nothing is in stock, got %v", err)
	}
}
