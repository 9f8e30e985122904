package postgres

import (
	"context"
	"errors"
	"fmt"

	"shoplist-service/internal/models"

	"gorm.io/gorm"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, list *models.List) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

func (r *ListRepository) FindByID(ctx context.Context, id uint) (*models.List, error) {
	var list models.List
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, notFound("failed to find list", err)
	}
	return &list, nil
}

// FindForUser returns every list the user owns or collaborates on, with the
// user's role and the number of items on each.
func (r *ListRepository) FindForUser(ctx context.Context, userID uint) ([]models.ListResponse, error) {
	var lists []models.ListResponse
	err := r.db.WithContext(ctx).Table("lists").
		Select(`lists.id, lists.name, lists.description, lists.owner_id, lists.updated_at,
			CASE WHEN lists.owner_id = ? THEN ? ELSE lc.role END AS role,
			(SELECT COUNT(*) FROM items WHERE items.list_id = lists.id AND items.deleted_at IS NULL) AS item_count`,
			userID, models.RoleOwner).
		Joins("LEFT JOIN list_collaborators lc ON lc.list_id = lists.id AND lc.user_id = ?", userID).
		Where("lists.deleted_at IS NULL AND (lists.owner_id = ? OR lc.user_id IS NOT NULL)", userID).
		Order("lists.updated_at DESC").
		Scan(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lists for user: %w", err)
	}
	return lists, nil
}

func (r *ListRepository) CountItems(ctx context.Context, listID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("list_id = ?", listID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *ListRepository) Update(ctx context.Context, list *models.List) error {
	err := r.db.WithContext(ctx).Model(list).Updates(map[string]interface{}{
		"name":        list.Name,
		"description": list.Description,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return nil
}

// Delete removes the list together with its items, collaborators and
// remembered categories.
func (r *ListRepository) Delete(ctx context.Context, listID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", listID).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		if err := tx.Where("list_id = ?", listID).Delete(&models.ListCollaborator{}).Error; err != nil {
			return fmt.Errorf("failed to delete collaborators: %w", err)
		}
		if err := tx.Where("list_id = ?", listID).Delete(&models.CategoryMapping{}).Error; err != nil {
			return fmt.Errorf("failed to delete categories: %w", err)
		}
		result := tx.Delete(&models.List{}, listID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete list: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RoleFor returns the user's role on the list: owner, editor, viewer, or ""
// when the user has no access. A missing list yields ErrNotFound.
func (r *ListRepository) RoleFor(ctx context.Context, listID, userID uint) (string, error) {
	list, err := r.FindByID(ctx, listID)
	if err != nil {
		return "", err
	}
	if list.OwnerID == userID {
		return models.RoleOwner, nil
	}

	var collab models.ListCollaborator
	err = r.db.WithContext(ctx).Where("list_id = ? AND user_id = ?", listID, userID).First(&collab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get collaborator role: %w", err)
	}
	return collab.Role, nil
}
