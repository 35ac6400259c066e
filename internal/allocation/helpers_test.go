package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/exports"
	"github.com/coaltrack/coaltrack-backend/internal/mappings"
	"github.com/coaltrack/coaltrack-backend/internal/supplies"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
)

var testBaseDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:allocation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Supplier{},
		&models.Investor{},
		&models.SupplyLot{},
		&models.ExportShipment{},
		&models.SupplyExportMapping{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type txDB struct {
	db *gorm.DB
}

func (r txDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestValidator(db *gorm.DB) *Validator {
	return NewValidator(
		supplies.NewRepository(db),
		exports.NewRepository(db),
		mappings.NewRepository(db),
	)
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineParams{
		Tx:       txDB{db: db},
		Supplies: supplies.NewRepository(db),
		Exports:  exports.NewRepository(db),
		Mappings: mappings.NewRepository(db),
		Events:   outbox.NewService(outbox.NewRepository(db), nil),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func seedSupplier(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	supplier := models.Supplier{Name: "PT Bara Jaya"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return supplier.ID
}

// seedLot creates a lot delivered day days after the base date. Total bags
// is the sum of the grade splits.
func seedLot(t *testing.T, db *gorm.DB, supplierID int64, gradeA, gradeB, rejected, day int) *models.SupplyLot {
	t.Helper()
	lot := models.SupplyLot{
		SupplierID:   supplierID,
		TotalBags:    gradeA + gradeB + rejected,
		GradeABags:   gradeA,
		GradeBBags:   gradeB,
		RejectedBags: rejected,
		SupplyDate:   testBaseDate.AddDate(0, 0, day),
	}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return &lot
}

func seedExport(t *testing.T, db *gorm.DB, quantityBags int) *models.ExportShipment {
	t.Helper()
	shipment := models.ExportShipment{
		QuantityBags: quantityBags,
		Destination:  "Chittagong",
	}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("seed export: %v", err)
	}
	return &shipment
}

func seedMapping(t *testing.T, db *gorm.DB, supplyID, exportID int64, quantityBags int) *models.SupplyExportMapping {
	t.Helper()
	mapping := models.SupplyExportMapping{
		SupplyID:     supplyID,
		ExportID:     exportID,
		QuantityBags: quantityBags,
	}
	if err := db.Create(&mapping).Error; err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	return &mapping
}
