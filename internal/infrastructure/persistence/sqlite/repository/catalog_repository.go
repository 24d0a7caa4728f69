package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partspricing/internal/domain/pricing"
	"partspricing/internal/errs"
	"partspricing/internal/infrastructure/persistence/sqlite/model"
	"partspricing/internal/ports"
)

type CatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// UpsertPartBySKU creates the part on first sight of its SKU. On conflict it
// fills blank metadata columns from the incoming candidate and leaves
// existing values alone, so concurrent identical SKUs converge on one row.
func (r *CatalogRepository) UpsertPartBySKU(ctx context.Context, input ports.PartUpsert) (ports.Part, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Part{}, err
	}

	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return ports.Part{}, errors.New("sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return ports.Part{}, errors.New("part name is required")
	}

	now := time.Now().UTC()
	row := model.Part{
		Name:      strings.TrimSpace(input.Name),
		SKU:       sku,
		Brand:     strings.TrimSpace(input.Brand),
		Category:  strings.TrimSpace(input.Category),
		OEMNumber: strings.TrimSpace(input.OEMNumber),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.Assignments(map[string]any{
			"brand":      gorm.Expr("CASE WHEN parts.brand = '' THEN excluded.brand ELSE parts.brand END"),
			"category":   gorm.Expr("CASE WHEN parts.category = '' THEN excluded.category ELSE parts.category END"),
			"oem_number": gorm.Expr("CASE WHEN parts.oem_number = '' THEN excluded.oem_number ELSE parts.oem_number END"),
			"updated_at": now,
		}),
	}).Create(&row).Error; err != nil {
		return ports.Part{}, errs.Wrap(err, "upsert part by sku")
	}

	return r.PartBySKU(ctx, sku)
}

func (r *CatalogRepository) PartByID(ctx context.Context, partID uint64) (ports.Part, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Part{}, err
	}

	var row model.Part
	if err := db.Where("part_id = ?", partID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Part{}, ports.ErrPartNotFound
		}
		return ports.Part{}, errs.Wrap(err, "query part by id")
	}
	return mapPart(row), nil
}

func (r *CatalogRepository) PartBySKU(ctx context.Context, sku string) (ports.Part, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Part{}, err
	}

	var row model.Part
	if err := db.Where("sku = ?", strings.TrimSpace(sku)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Part{}, ports.ErrPartNotFound
		}
		return ports.Part{}, errs.Wrap(err, "query part by sku")
	}
	return mapPart(row), nil
}

// SavePriceRecord appends one observation. There is no update path: history
// is preserved by construction.
func (r *CatalogRepository) SavePriceRecord(ctx context.Context, record ports.PriceRecord) (ports.PriceRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.PriceRecord{}, err
	}

	if record.PartID == 0 {
		return ports.PriceRecord{}, errors.New("part id is required")
	}
	if err := pricing.ValidatePrice(record.Price); err != nil {
		return ports.PriceRecord{}, err
	}
	if !record.Availability.Valid() {
		return ports.PriceRecord{}, fmt.Errorf("invalid availability %q", record.Availability)
	}

	row := model.PriceRecord{
		PartID:       record.PartID,
		Source:       record.Source,
		Price:        record.Price,
		Currency:     record.Currency,
		URL:          record.URL,
		Availability: string(record.Availability),
		DeliveryDays: record.DeliveryDays,
		RawPayload:   record.RawPayload,
		ObservedAt:   record.ObservedAt.UTC(),
	}
	if row.ObservedAt.IsZero() {
		row.ObservedAt = time.Now().UTC()
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.PriceRecord{}, errs.Wrap(err, "insert price record")
	}

	return mapPriceRecord(row), nil
}

func (r *CatalogRepository) PriceRecordsSince(ctx context.Context, partID uint64, since time.Time) ([]ports.PriceRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.PriceRecord
	if err := db.
		Where("part_id = ? AND observed_at >= ?", partID, since.UTC()).
		Order("price asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query price records")
	}

	records := make([]ports.PriceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapPriceRecord(row))
	}
	return records, nil
}

func mapPart(row model.Part) ports.Part {
	return ports.Part{
		PartID:    row.PartID,
		Name:      row.Name,
		SKU:       row.SKU,
		Brand:     row.Brand,
		Category:  row.Category,
		OEMNumber: row.OEMNumber,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func mapPriceRecord(row model.PriceRecord) ports.PriceRecord {
	return ports.PriceRecord{
		RecordID:     row.RecordID,
		PartID:       row.PartID,
		Source:       row.Source,
		Price:        row.Price,
		Currency:     row.Currency,
		URL:          row.URL,
		Availability: pricing.Availability(row.Availability),
		DeliveryDays: row.DeliveryDays,
		RawPayload:   row.RawPayload,
		ObservedAt:   row.ObservedAt,
	}
}
