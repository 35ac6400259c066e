package models

import "time"

// SupplyLot is a batch of coal received from a supplier. Rows are immutable
// after intake; allocated quantity is always derived from mappings, never
// stored here.
type SupplyLot struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID   int64     `gorm:"column:supplier_id;not null;index"`
	TotalBags    int       `gorm:"column:total_bags;not null"`
	GradeABags   int       `gorm:"column:grade_a_bags;not null;default:0"`
	GradeBBags   int       `gorm:"column:grade_b_bags;not null;default:0"`
	RejectedBags int       `gorm:"column:rejected_bags;not null;default:0"`
	SupplyDate   time.Time `gorm:"column:supply_date;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

// AvailableBags is the sellable capacity of the lot before any allocation.
func (s SupplyLot) AvailableBags() int {
	return s.TotalBags - s.RejectedBags
}
