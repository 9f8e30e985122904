package postgres

import (
	"context"
	"errors"
	"fmt"

	"shoplist-service/internal/models"

	"gorm.io/gorm"
)

type CollaboratorRepository struct {
	db *gorm.DB
}

func NewCollaboratorRepository(db *gorm.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

func (r *CollaboratorRepository) Add(ctx context.Context, collab *models.ListCollaborator) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ListCollaborator
		err := tx.Where("list_id = ? AND user_id = ?", collab.ListID, collab.UserID).First(&existing).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check collaborator: %w", err)
		}
		if err := tx.Create(collab).Error; err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
		return nil
	})
}

func (r *CollaboratorRepository) UpdateRole(ctx context.Context, listID, userID uint, role string) error {
	result := r.db.WithContext(ctx).Model(&models.ListCollaborator{}).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to update collaborator: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CollaboratorRepository) Remove(ctx context.Context, listID, userID uint) error {
	result := r.db.WithContext(ctx).Where("list_id = ? AND user_id = ?", listID, userID).Delete(&models.ListCollaborator{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove collaborator: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CollaboratorRepository) FindByList(ctx context.Context, listID uint) ([]models.CollaboratorResponse, error) {
	var collaborators []models.CollaboratorResponse
	err := r.db.WithContext(ctx).Table("list_collaborators").
		Select("users.id AS user_id, users.username, users.email, list_collaborators.role").
		Joins("JOIN users ON users.id = list_collaborators.user_id").
		Where("list_collaborators.list_id = ? AND users.deleted_at IS NULL", listID).
		Order("users.username ASC").
		Scan(&collaborators).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborators: %w", err)
	}
	return collaborators, nil
}
