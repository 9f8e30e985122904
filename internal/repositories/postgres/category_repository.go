package postgres

import (
	"context"
	"errors"
	"fmt"

	"shoplist-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Find returns the remembered category for a normalized item name, or "".
func (r *CategoryRepository) Find(ctx context.Context, listID uint, itemName string) (string, error) {
	var mapping models.CategoryMapping
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND item_name = ?", listID, models.NormalizeItemName(itemName)).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find category: %w", err)
	}
	return mapping.Category, nil
}

func (r *CategoryRepository) FindByList(ctx context.Context, listID uint) ([]models.CategoryMapping, error) {
	var mappings []models.CategoryMapping
	err := r.db.WithContext(ctx).Where("list_id = ?", listID).Order("item_name ASC").Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return mappings, nil
}

// Upsert remembers category for the item name, replacing any earlier value.
func (r *CategoryRepository) Upsert(ctx context.Context, listID uint, itemName, category string) error {
	mapping := models.CategoryMapping{
		ListID:   listID,
		ItemName: models.NormalizeItemName(itemName),
		Category: category,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "list_id"}, {Name: "item_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"category", "updated_at"}),
	}).Create(&mapping).Error
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}
