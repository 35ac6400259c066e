package investors

import (
	"context"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
)

// Repository exposes persistence operations for investors.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an investor.
func (r *Repository) Create(ctx context.Context, investor *models.Investor) error {
	return r.db.WithContext(ctx).Create(investor).Error
}

// FindByID loads an investor by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Investor, error) {
	var investor models.Investor
	if err := r.db.WithContext(ctx).First(&investor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &investor, nil
}

// List returns all investors ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Investor, error) {
	var investors []models.Investor
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&investors).Error
	return investors, err
}
