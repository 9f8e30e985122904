package services

import (
	"context"
	"strings"
	"time"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
)

type CategoryService struct {
	categories CategoryStore
	access     Authorizer
	publisher  realtime.Publisher
	now        func() time.Time
}

func NewCategoryService(categories CategoryStore, access Authorizer, publisher realtime.Publisher) *CategoryService {
	return &CategoryService{categories: categories, access: access, publisher: publisher, now: time.Now}
}

func (s *CategoryService) GetCategories(ctx context.Context, userID, listID uint) ([]models.CategoryMapping, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermView); err != nil {
		return nil, err
	}
	mappings, err := s.categories.FindByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []models.CategoryMapping{}
	}
	return mappings, nil
}

// SetCategory remembers a category for an item name on the list.
func (s *CategoryService) SetCategory(ctx context.Context, userID, listID uint, req *models.SetCategoryRequest) (*models.CategoryUpdate, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return nil, err
	}

	name := models.NormalizeItemName(req.ItemName)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" {
		return nil, ErrInvalidRequest
	}

	if err := s.categories.Upsert(ctx, listID, name, category); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, listID, realtime.NewCategoryUpdated(name, category, s.now()))
	return &models.CategoryUpdate{ItemName: name, Category: category}, nil
}
