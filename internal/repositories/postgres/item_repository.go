package postgres

import (
	"context"
	"fmt"

	"shoplist-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// CreateBatch inserts all items in one transaction.
func (r *ItemRepository) CreateBatch(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create items: %w", err)
		}
		return nil
	})
}

func (r *ItemRepository) FindByID(ctx context.Context, listID, itemID uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("list_id = ?", listID).First(&item, itemID).Error; err != nil {
		return nil, notFound("failed to find item", err)
	}
	return &item, nil
}

// FindByList returns open items first, then completed ones, each oldest first.
func (r *ItemRepository) FindByList(ctx context.Context, listID uint) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("completed ASC, created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	err := r.db.WithContext(ctx).Model(item).Select("name", "quantity", "category", "notes", "completed").Updates(item).Error
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, listID, itemID uint) error {
	result := r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&models.Item{}, itemID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompleted removes every completed item of the list and returns them.
func (r *ItemRepository) DeleteCompleted(ctx context.Context, listID uint) ([]models.Item, error) {
	var removed []models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("list_id = ? AND completed = ?", listID, true).
		Delete(&removed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to clear completed items: %w", err)
	}
	return removed, nil
}
