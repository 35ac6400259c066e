package models

import "time"

// SupplyExportMapping assigns a quantity of one supply lot to one export
// shipment. Rows are created only through the allocation path and removed
// only by unmapping; they are never updated in place.
//
// Priority is stored and returned as an opaque sort key; the allocation
// engine does not consult it when ranking candidates.
type SupplyExportMapping struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SupplyID     int64     `gorm:"column:supply_id;not null;index"`
	ExportID     int64     `gorm:"column:export_id;not null;index"`
	QuantityBags int       `gorm:"column:quantity_bags;not null"`
	Priority     *int      `gorm:"column:priority"`
	Note         *string   `gorm:"column:note"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	Supply *SupplyLot      `gorm:"foreignKey:SupplyID"`
	Export *ExportShipment `gorm:"foreignKey:ExportID"`
}
