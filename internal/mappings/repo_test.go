package mappings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
)

func TestSumAggregates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	lotA, lotB := seedLot(t, db, 100), seedLot(t, db, 100)
	exp := seedExport(t, db, 200)

	rows := []models.SupplyExportMapping{
		{SupplyID: lotA, ExportID: exp, QuantityBags: 30},
		{SupplyID: lotA, ExportID: exp, QuantityBags: 20},
		{SupplyID: lotB, ExportID: exp, QuantityBags: 10},
	}
	if _, err := repo.CreateBatch(ctx, rows); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	total, err := repo.SumBySupply(ctx, lotA)
	if err != nil {
		t.Fatalf("sum by supply: %v", err)
	}
	if total != 50 {
		t.Fatalf("expected 50 bags mapped from lot A, got %d", total)
	}

	total, err = repo.SumByExport(ctx, exp)
	if err != nil {
		t.Fatalf("sum by export: %v", err)
	}
	if total != 60 {
		t.Fatalf("expected 60 bags mapped onto export, got %d", total)
	}

	grouped, err := repo.SumGroupedBySupply(ctx, []int64{lotA, lotB, 9999})
	if err != nil {
		t.Fatalf("grouped sums: %v", err)
	}
	if grouped[lotA] != 50 || grouped[lotB] != 10 {
		t.Fatalf("unexpected grouped sums: %+v", grouped)
	}
	if _, ok := grouped[9999]; ok {
		t.Fatal("unmapped id should be absent from grouped sums")
	}
}

func TestSumOnEmptyTables(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	total, err := repo.SumBySupply(ctx, 1)
	if err != nil {
		t.Fatalf("sum by supply: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected zero, got %d", total)
	}
}

func TestListOrdering(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	lot := seedLot(t, db, 100)
	exp := seedExport(t, db, 100)
	for _, qty := range []int{10, 20, 30} {
		if err := repo.Create(ctx, &models.SupplyExportMapping{SupplyID: lot, ExportID: exp, QuantityBags: qty}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := repo.ListByExport(ctx, exp)
	if err != nil {
		t.Fatalf("list by export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, qty := range []int{10, 20, 30} {
		if rows[i].QuantityBags != qty {
			t.Fatalf("expected insertion order, got %+v", rows)
		}
	}
}

func TestDeleteAndCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	lot := seedLot(t, db, 100)
	exp := seedExport(t, db, 100)
	mapping := models.SupplyExportMapping{SupplyID: lot, ExportID: exp, QuantityBags: 25}
	if err := repo.Create(ctx, &mapping); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := repo.CountBySupply(ctx, lot)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 mapping, got %d", count)
	}

	if err := repo.Delete(ctx, mapping.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, mapping.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:mappings_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Supplier{},
		&models.SupplyLot{},
		&models.ExportShipment{},
		&models.SupplyExportMapping{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedLot(t *testing.T, db *gorm.DB, total int) int64 {
	t.Helper()
	supplier := models.Supplier{Name: "CV Sumber Energi"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	lot := models.SupplyLot{
		SupplierID: supplier.ID,
		TotalBags:  total,
		GradeABags: total,
		SupplyDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot.ID
}

func seedExport(t *testing.T, db *gorm.DB, qty int) int64 {
	t.Helper()
	shipment := models.ExportShipment{QuantityBags: qty, Destination: "Haldia"}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("seed export: %v", err)
	}
	return shipment.ID
}
