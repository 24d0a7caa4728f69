package model

import "time"

type PriceRecord struct {
	RecordID     uint64    `gorm:"column:record_id;primaryKey;autoIncrement"`
	PartID       uint64    `gorm:"column:part_id;not null;index"`
	Source       string    `gorm:"column:source;type:text;not null"`
	Price        float64   `gorm:"column:price;not null"`
	Currency     string    `gorm:"column:currency;type:text;not null"`
	URL          string    `gorm:"column:url;type:text;not null;default:''"`
	Availability string    `gorm:"column:availability;type:text;not null"`
	DeliveryDays *int      `gorm:"column:delivery_days"`
	RawPayload   []byte    `gorm:"column:raw_payload;type:blob"`
	ObservedAt   time.Time `gorm:"column:observed_at;not null;index"`
}

func (PriceRecord) TableName() string {
	return "price_records"
}
