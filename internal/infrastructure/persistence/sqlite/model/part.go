package model

import "time"

type Part struct {
	PartID    uint64    `gorm:"column:part_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null"`
	SKU       string    `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Brand     string    `gorm:"column:brand;type:text;not null;default:''"`
	Category  string    `gorm:"column:category;type:text;not null;default:''"`
	OEMNumber string    `gorm:"column:oem_number;type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Part) TableName() string {
	return "parts"
}
