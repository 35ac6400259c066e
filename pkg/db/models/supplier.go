package models

import "time"

// Supplier is a coal producer that delivers supply lots.
type Supplier struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	Region    *string   `gorm:"column:region"`
	Contact   *string   `gorm:"column:contact"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
