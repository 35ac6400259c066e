package models

import (
	"time"

	"github.com/coaltrack/coaltrack-backend/pkg/enums"
)

// ExportShipment is an outbound order with a fixed demanded quantity.
// Only status and the investor assignment change after creation.
type ExportShipment struct {
	ID           int64              `gorm:"column:id;primaryKey;autoIncrement"`
	QuantityBags int                `gorm:"column:quantity_bags;not null"`
	Destination  string             `gorm:"column:destination;not null"`
	Status       enums.ExportStatus `gorm:"column:status;not null;default:PENDING"`
	InvestorID   *int64             `gorm:"column:investor_id;index"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Investor *Investor `gorm:"foreignKey:InvestorID"`
}
