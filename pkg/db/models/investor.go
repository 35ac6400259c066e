package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investor funds export shipments for a share of the profit. The share is
// stored as a structured percentage; LegacyShareText keeps the free-text
// value older records were created with ("50/50") for display parity.
type Investor struct {
	ID                  int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name                string          `gorm:"column:name;not null"`
	ProfitSharePercent  decimal.Decimal `gorm:"column:profit_share_percent;type:numeric(5,2);not null"`
	LegacyShareText     *string         `gorm:"column:legacy_share_text"`
	BagsPerContainer    int             `gorm:"column:bags_per_container;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
