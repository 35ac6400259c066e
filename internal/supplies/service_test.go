package supplies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/mappings"
	"github.com/coaltrack/coaltrack-backend/internal/suppliers"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
	"github.com/coaltrack/coaltrack-backend/pkg/pagination"
)

func TestCreateLot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	service := newTestService(t, db)
	supplierID := seedSupplier(t, db)

	lot, err := service.Create(ctx, CreateRequest{
		SupplierID:   supplierID,
		TotalBags:    100,
		GradeABags:   70,
		GradeBBags:   20,
		RejectedBags: 10,
		SupplyDate:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	if lot.ID == 0 {
		t.Fatal("expected persisted lot id")
	}
	if lot.AvailableBags() != 90 {
		t.Fatalf("expected 90 sellable bags, got %d", lot.AvailableBags())
	}

	var event models.OutboxEvent
	if err := db.First(&event, "event_type = ?", enums.EventSupplyLotCreated).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}
	if event.AggregateID != lot.ID {
		t.Fatalf("expected event for lot %d, got %d", lot.ID, event.AggregateID)
	}
}

func TestCreateLotGradeSplitMismatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	service := newTestService(t, db)
	supplierID := seedSupplier(t, db)

	_, err := service.Create(ctx, CreateRequest{
		SupplierID:   supplierID,
		TotalBags:    100,
		GradeABags:   70,
		GradeBBags:   20,
		RejectedBags: 5,
		SupplyDate:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	if err := db.Model(&models.SupplyLot{}).Count(&count).Error; err != nil {
		t.Fatalf("count lots: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected intake must not persist, got %d lots", count)
	}
}

func TestCreateLotUnknownSupplier(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	service := newTestService(t, db)

	_, err := service.Create(context.Background(), CreateRequest{
		SupplierID: 9999,
		TotalBags:  10,
		GradeABags: 10,
		SupplyDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteLotBlockedWhileMapped(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	service := newTestService(t, db)
	supplierID := seedSupplier(t, db)

	lot, err := service.Create(ctx, CreateRequest{
		SupplierID: supplierID,
		TotalBags:  50,
		GradeABags: 50,
		SupplyDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}

	shipment := models.ExportShipment{QuantityBags: 50, Destination: "Cebu"}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("seed export: %v", err)
	}
	mapping := models.SupplyExportMapping{SupplyID: lot.ID, ExportID: shipment.ID, QuantityBags: 20}
	if err := db.Create(&mapping).Error; err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	err = service.Delete(ctx, lot.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := db.Delete(&mapping).Error; err != nil {
		t.Fatalf("remove mapping: %v", err)
	}
	if err := service.Delete(ctx, lot.ID); err != nil {
		t.Fatalf("delete unmapped lot: %v", err)
	}
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	service := newTestService(t, db)
	supplierID := seedSupplier(t, db)

	for day := 0; day < 3; day++ {
		_, err := service.Create(ctx, CreateRequest{
			SupplierID: supplierID,
			TotalBags:  10,
			GradeABags: 10,
			SupplyDate: time.Date(2024, 6, 1+day, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create lot: %v", err)
		}
	}

	page, next, err := service.List(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(page) != 2 || next == "" {
		t.Fatalf("expected full page with cursor, got %d rows, cursor %q", len(page), next)
	}

	rest, last, err := service.List(ctx, pagination.Params{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest) != 1 || last != "" {
		t.Fatalf("expected final page, got %d rows, cursor %q", len(rest), last)
	}
	if rest[0].ID == page[0].ID || rest[0].ID == page[1].ID {
		t.Fatal("pages must not overlap")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:supplies_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Supplier{},
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

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Tx:        txDB{db: db},
		Repo:      NewRepository(db),
		Suppliers: suppliers.NewRepository(db),
		Mappings:  mappings.NewRepository(db),
		Events:    outbox.NewService(outbox.NewRepository(db), nil),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func seedSupplier(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	supplier := models.Supplier{Name: "PT Kalim Coal"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return supplier.ID
}
