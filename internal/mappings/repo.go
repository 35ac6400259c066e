package mappings

import (
	"context"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
)

// Repository exposes persistence operations for supply-export mappings,
// including the sum aggregates the allocation core is built on.
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

// Create inserts a single mapping row.
func (r *Repository) Create(ctx context.Context, mapping *models.SupplyExportMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

// CreateBatch inserts all rows in one statement so the batch commits or
// fails as a unit inside the caller's transaction.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.SupplyExportMapping) ([]models.SupplyExportMapping, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a mapping row.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.SupplyExportMapping, error) {
	var mapping models.SupplyExportMapping
	if err := r.db.WithContext(ctx).First(&mapping, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Delete removes a mapping row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.SupplyExportMapping{}, "id = ?", id).Error
}

// List returns every mapping row in insertion order.
func (r *Repository) List(ctx context.Context) ([]models.SupplyExportMapping, error) {
	var rows []models.SupplyExportMapping
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListBySupply returns all mappings drawing from the given lot.
func (r *Repository) ListBySupply(ctx context.Context, supplyID int64) ([]models.SupplyExportMapping, error) {
	var rows []models.SupplyExportMapping
	err := r.db.WithContext(ctx).
		Where("supply_id = ?", supplyID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListByExport returns all mappings sourcing the given export.
func (r *Repository) ListByExport(ctx context.Context, exportID int64) ([]models.SupplyExportMapping, error) {
	var rows []models.SupplyExportMapping
	err := r.db.WithContext(ctx).
		Where("export_id = ?", exportID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// SumBySupply returns the total bags already mapped out of the given lot.
func (r *Repository) SumBySupply(ctx context.Context, supplyID int64) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Where("supply_id = ?", supplyID).
		Select("COALESCE(SUM(quantity_bags), 0)").
		Scan(&total).Error
	return total, err
}

// SumByExport returns the total bags already mapped onto the given export.
func (r *Repository) SumByExport(ctx context.Context, exportID int64) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Where("export_id = ?", exportID).
		Select("COALESCE(SUM(quantity_bags), 0)").
		Scan(&total).Error
	return total, err
}

// SumGroupedBySupply returns mapped totals keyed by supply id for the given
// lots. Lots without mappings are absent from the map.
func (r *Repository) SumGroupedBySupply(ctx context.Context, supplyIDs []int64) (map[int64]int, error) {
	totals := make(map[int64]int, len(supplyIDs))
	if len(supplyIDs) == 0 {
		return totals, nil
	}
	type row struct {
		SupplyID int64
		Total    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Where("supply_id IN ?", supplyIDs).
		Select("supply_id, COALESCE(SUM(quantity_bags), 0) AS total").
		Group("supply_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		totals[r.SupplyID] = r.Total
	}
	return totals, nil
}

// SumAll returns the total bags allocated across all mappings.
func (r *Repository) SumAll(ctx context.Context) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Select("COALESCE(SUM(quantity_bags), 0)").
		Scan(&total).Error
	return total, err
}

// SumGroupedByExport returns mapped totals keyed by export id for every
// export that has at least one mapping.
func (r *Repository) SumGroupedByExport(ctx context.Context) (map[int64]int, error) {
	type row struct {
		ExportID int64
		Total    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Select("export_id, COALESCE(SUM(quantity_bags), 0) AS total").
		Group("export_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]int, len(rows))
	for _, r := range rows {
		totals[r.ExportID] = r.Total
	}
	return totals, nil
}

// CountBySupply reports how many mappings reference the given lot.
func (r *Repository) CountBySupply(ctx context.Context, supplyID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Where("supply_id = ?", supplyID).
		Count(&count).Error
	return count, err
}

// CountByExport reports how many mappings reference the given export.
func (r *Repository) CountByExport(ctx context.Context, exportID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SupplyExportMapping{}).
		Where("export_id = ?", exportID).
		Count(&count).Error
	return count, err
}
