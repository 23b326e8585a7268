package repository

import (
	"context"
	"time"

	"github.com/yukikurage/taskboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCategoryRepository is a GORM implementation of CategoryRepository.
// Count changes are single SQL statements so concurrent requests never
// overwrite each other's increments.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Increment inserts the category at count 1 or bumps the existing row.
func (r *GormCategoryRepository) Increment(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("categories.count + 1"),
				"updated_at": time.Now(),
			}),
		}).
		Create(&models.Category{Name: name, Count: 1}).Error
}

// Decrement subtracts one and deletes the row once the count is no longer positive.
// A missing category is left alone.
func (r *GormCategoryRepository) Decrement(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Category{}).
			Where("name = ?", name).
			UpdateColumns(map[string]interface{}{
				"count":      gorm.Expr("count - 1"),
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		return tx.Where("name = ? AND count <= 0", name).Delete(&models.Category{}).Error
	})
}

// ReplaceAll deletes every category and inserts the given counts
func (r *GormCategoryRepository) ReplaceAll(ctx context.Context, counts []CategoryCount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if len(counts) == 0 {
			return nil
		}

		categories := make([]models.Category, 0, len(counts))
		for _, c := range counts {
			categories = append(categories, models.Category{Name: c.Name, Count: c.Count})
		}
		return tx.Create(&categories).Error
	})
}

// List returns categories ordered by count then name
func (r *GormCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("count DESC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByName finds a category by normalized name
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
