package supplies

import (
	"context"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/repo"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/pagination"
)

// Repository exposes persistence operations for supply lots.
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

// Create inserts a new supply lot.
func (r *Repository) Create(ctx context.Context, lot *models.SupplyLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

// FindByID loads a lot by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.SupplyLot, error) {
	var lot models.SupplyLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByIDForUpdate loads a lot under a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.SupplyLot, error) {
	var lot models.SupplyLot
	if err := repo.ForUpdate(r.db.WithContext(ctx)).First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListByIDsForUpdate locks and loads the given lots in ascending id order.
// Locking in a fixed order keeps concurrent allocators from deadlocking.
func (r *Repository) ListByIDsForUpdate(ctx context.Context, ids []int64) ([]models.SupplyLot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var lots []models.SupplyLot
	err := repo.ForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&lots).Error
	return lots, err
}

// List returns every lot ordered oldest first.
func (r *Repository) List(ctx context.Context) ([]models.SupplyLot, error) {
	var lots []models.SupplyLot
	err := r.db.WithContext(ctx).
		Order("supply_date ASC").
		Order("id ASC").
		Find(&lots).Error
	return lots, err
}

// ListBySupplier returns all lots delivered by the given supplier.
func (r *Repository) ListBySupplier(ctx context.Context, supplierID int64) ([]models.SupplyLot, error) {
	var lots []models.SupplyLot
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("supply_date ASC").
		Order("id ASC").
		Find(&lots).Error
	return lots, err
}

// ListPage returns a page of lots in intake order using cursor pagination.
func (r *Repository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.SupplyLot, error) {
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
	var lots []models.SupplyLot
	err := query.Find(&lots).Error
	return lots, err
}

// Delete removes a lot. Callers must first ensure no mappings reference it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.SupplyLot{}, "id = ?", id).Error
}

// CountBySupplier reports how many lots the supplier has delivered.
func (r *Repository) CountBySupplier(ctx context.Context, supplierID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SupplyLot{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

// Count returns the total number of lots.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SupplyLot{}).Count(&count).Error
	return count, err
}

// SumBags returns total and rejected bag counts over all lots.
func (r *Repository) SumBags(ctx context.Context) (total int, rejected int, err error) {
	type sums struct {
		Total    int
		Rejected int
	}
	var out sums
	err = r.db.WithContext(ctx).
		Model(&models.SupplyLot{}).
		Select("COALESCE(SUM(total_bags), 0) AS total, COALESCE(SUM(rejected_bags), 0) AS rejected").
		Scan(&out).Error
	return out.Total, out.Rejected, err
}
