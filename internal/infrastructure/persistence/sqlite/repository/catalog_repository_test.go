package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"partspricing/internal/domain/pricing"
	"partspricing/internal/infrastructure/persistence/sqlite/model"
	"partspricing/internal/infrastructure/persistence/sqlite/uow"
	"partspricing/internal/ports"
)

func setupCatalogRepository(t *testing.T) (*CatalogRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "catalog.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// One connection serializes sqlite writers; lock contention stays out of
	// the tests.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Part{}, &model.PriceRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	return NewCatalogRepository(db), db
}

func TestUpsertPartBySKUCreatesOnce(t *testing.T) {
	repo, db := setupCatalogRepository(t)
	ctx := context.Background()

	first, err := repo.UpsertPartBySKU(ctx, ports.PartUpsert{Name: "Brake pad set", SKU: "BP-1001"})
	if err != nil {
		t.Fatalf("UpsertPartBySKU() error = %v", err)
	}
	if first.PartID == 0 {
		t.Fatalf("UpsertPartBySKU() part id = 0")
	}

	second, err := repo.UpsertPartBySKU(ctx, ports.PartUpsert{Name: "Brake pad set", SKU: "BP-1001", Brand: "Bosch"})
	if err != nil {
		t.Fatalf("UpsertPartBySKU(again) error = %v", err)
	}
	if second.PartID != first.PartID {
		t.Fatalf("UpsertPartBySKU() second id = %d, want %d", second.PartID, first.PartID)
	}
	if second.Brand != "Bosch" {
		t.Fatalf("UpsertPartBySKU() brand = %q, want enriched Bosch", second.Brand)
	}

	// Richer metadata fills blanks but never overwrites existing values.
	third, err := repo.UpsertPartBySKU(ctx, ports.PartUpsert{Name: "Brake pad set", SKU: "BP-1001", Brand: "NoName", OEMNumber: "OEM-7"})
	if err != nil {
		t.Fatalf("UpsertPartBySKU(third) error = %v", err)
	}
	if third.Brand != "Bosch" {
		t.Fatalf("UpsertPartBySKU() brand overwritten to %q", third.Brand)
	}
	if third.OEMNumber != "OEM-7" {
		t.Fatalf("UpsertPartBySKU() oem = %q, want OEM-7", third.OEMNumber)
	}

	var count int64
	if err := db.Model(&model.Part{}).Count(&count).Error; err != nil {
		t.Fatalf("count parts: %v", err)
	}
	if count != 1 {
		t.Fatalf("parts rows = %d, want 1", count)
	}
}

func TestUpsertPartBySKUConcurrent(t *testing.T) {
	repo, db := setupCatalogRepository(t)
	unit := uow.NewUnitOfWork(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := unit.WithTx(ctx, func(txCtx context.Context) error {
				_, err := repo.UpsertPartBySKU(txCtx, ports.PartUpsert{Name: "Oil filter", SKU: "OF-42"})
				return err
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent upsert error = %v", err)
		}
	}

	var count int64
	if err := db.Model(&model.Part{}).Where("sku = ?", "OF-42").Count(&count).Error; err != nil {
		t.Fatalf("count parts: %v", err)
	}
	if count != 1 {
		t.Fatalf("parts rows for one sku = %d, want 1", count)
	}
}

func TestSavePriceRecordRejectsInvalid(t *testing.T) {
	repo, _ := setupCatalogRepository(t)
	ctx := context.Background()

	part, err := repo.UpsertPartBySKU(ctx, ports.PartUpsert{Name: "Alternator", SKU: "ALT-9"})
	if err != nil {
		t.Fatalf("UpsertPartBySKU() error = %v", err)
	}

	_, err = repo.SavePriceRecord(ctx, ports.PriceRecord{
		PartID: part.PartID, Source: "autodoc", Price: 0, Currency: "RUB", Availability: pricing.InStock,
	})
	if !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Fatalf("SavePriceRecord(price=0) error = %v, want ErrInvalidPrice", err)
	}

	_, err = repo.SavePriceRecord(ctx, ports.PriceRecord{
		PartID: 0, Source: "autodoc", Price: 100, Currency: "RUB", Availability: pricing.InStock,
	})
	if err == nil {
		t.Fatalf("SavePriceRecord(no part) expected error")
	}
}

func TestPriceRecordsSinceWindowAndOrder(t *testing.T) {
	repo, _ := setupCatalogRepository(t)
	ctx := context.Background()

	part, err := repo.UpsertPartBySKU(ctx, ports.PartUpsert{Name: "Shock absorber", SKU: "SA-3"})
	if err != nil {
		t.Fatalf("UpsertPartBySKU() error = %v", err)
	}

	now := time.Now().UTC()
	save := func(source string, price float64, observedAt time.Time) {
		t.Helper()
		_, err := repo.SavePriceRecord(ctx, ports.PriceRecord{
			PartID: part.PartID, Source: source, Price: price,
			Currency: "RUB", Availability: pricing.InStock, ObservedAt: observedAt,
		})
		if err != nil {
			t.Fatalf("SavePriceRecord(%s) error = %v", source, err)
		}
	}

	save("autodoc", 1100, now.Add(-time.Hour))
	save("exist", 900, now.Add(-2*time.Hour))
	save("umapi", 1000, now.Add(-48*time.Hour)) // outside a 24h window

	records, err := repo.PriceRecordsSince(ctx, part.PartID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PriceRecordsSince() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("PriceRecordsSince() len = %d, want 2", len(records))
	}
	if records[0].Price != 900 || records[1].Price != 1100 {
		t.Fatalf("PriceRecordsSince() not ordered by price: %v, %v", records[0].Price, records[1].Price)
	}

	// A second refresh appends; the earlier observation survives.
	save("exist", 950, now)
	records, err = repo.PriceRecordsSince(ctx, part.PartID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PriceRecordsSince() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("append-only violated: len = %d, want 3", len(records))
	}
}
