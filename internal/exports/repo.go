package exports

import (
	"context"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/repo"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	"github.com/coaltrack/coaltrack-backend/pkg/pagination"
)

// Repository exposes persistence operations for export shipments.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new export shipment.
func (r *Repository) Create(ctx context.Context, shipment *models.ExportShipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// FindByID loads a shipment by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.ExportShipment, error) {
	var shipment models.ExportShipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByIDForUpdate loads a shipment under a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.ExportShipment, error) {
	var shipment models.ExportShipment
	if err := repo.ForUpdate(r.db.WithContext(ctx)).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// List returns every shipment, newest first.
func (r *Repository) List(ctx context.Context) ([]models.ExportShipment, error) {
	var shipments []models.ExportShipment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&shipments).Error
	return shipments, err
}

// ListPage returns a page of shipments using cursor pagination.
func (r *Repository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ExportShipment, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var shipments []models.ExportShipment
	err := query.Find(&shipments).Error
	return shipments, err
}

// ListByStatus returns shipments in the given status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.ExportStatus) ([]models.ExportShipment, error) {
	var shipments []models.ExportShipment
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Order("id ASC").
		Find(&shipments).Error
	return shipments, err
}

// ListByInvestor returns shipments funded by the given investor.
func (r *Repository) ListByInvestor(ctx context.Context, investorID int64) ([]models.ExportShipment, error) {
	var shipments []models.ExportShipment
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&shipments).Error
	return shipments, err
}

// UpdateStatus persists a status change.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.ExportStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ExportShipment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateInvestor assigns or clears the funding investor.
func (r *Repository) UpdateInvestor(ctx context.Context, id int64, investorID *int64) error {
	return r.db.WithContext(ctx).
		Model(&models.ExportShipment{}).
		Where("id = ?", id).
		Update("investor_id", investorID).Error
}

// Count returns the total number of shipments.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExportShipment{}).Count(&count).Error
	return count, err
}

// SumDemand returns the total demanded bags across all shipments.
func (r *Repository) SumDemand(ctx context.Context) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.ExportShipment{}).
		Select("COALESCE(SUM(quantity_bags), 0)").
		Scan(&total).Error
	return total, err
}

// CountByStatus returns shipment counts keyed by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.ExportStatus]int64, error) {
	type row struct {
		Status enums.ExportStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ExportShipment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ExportStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
