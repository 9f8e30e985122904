package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"

	"github.com/samber/lo"
)

type ItemService struct {
	items      ItemStore
	categories CategoryStore
	access     Authorizer
	publisher  realtime.Publisher
	now        func() time.Time
}

func NewItemService(items ItemStore, categories CategoryStore, access Authorizer, publisher realtime.Publisher) *ItemService {
	return &ItemService{
		items:      items,
		categories: categories,
		access:     access,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *ItemService) GetItems(ctx context.Context, userID, listID uint) ([]models.ItemResponse, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermView); err != nil {
		return nil, err
	}
	items, err := s.items.FindByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return toItemResponses(items), nil
}

// CreateItem adds an item. Without an explicit category the list's remembered
// category for the name is applied; an explicit one is remembered.
func (s *ItemService) CreateItem(ctx context.Context, userID, listID uint, req *models.CreateItemRequest) (*models.ItemResponse, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidRequest
	}
	category := strings.TrimSpace(req.Category)

	if category == "" {
		remembered, err := s.categories.Find(ctx, listID, name)
		if err != nil {
			return nil, err
		}
		category = remembered
	} else if err := s.categories.Upsert(ctx, listID, name, category); err != nil {
		return nil, err
	}

	item := models.Item{
		ListID:   listID,
		Name:     name,
		Quantity: strings.TrimSpace(req.Quantity),
		Category: category,
		Notes:    strings.TrimSpace(req.Notes),
		AddedBy:  userID,
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	publish(ctx, s.publisher, listID, realtime.NewItemCreated(resp))
	slog.Debug("Item created", "listID", listID, "itemID", item.ID, "userID", userID)
	return &resp, nil
}

// UpdateItem applies the non-nil fields. A changed category is remembered for
// the item's name and announced as category_updated.
func (s *ItemService) UpdateItem(ctx context.Context, userID, listID, itemID uint, req *models.UpdateItemRequest) (*models.ItemResponse, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return nil, err
	}
	item, err := s.findItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidRequest
		}
		item.Name = name
	}
	if req.Quantity != nil {
		item.Quantity = strings.TrimSpace(*req.Quantity)
	}
	if req.Notes != nil {
		item.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Completed != nil {
		item.Completed = *req.Completed
	}

	categoryChanged := false
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		categoryChanged = category != item.Category && category != ""
		item.Category = category
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	if categoryChanged {
		if err := s.categories.Upsert(ctx, listID, item.Name, item.Category); err != nil {
			slog.Warn("Failed to remember category", "listID", listID, "item", item.Name, "error", err)
		} else {
			publish(ctx, s.publisher, listID, realtime.NewCategoryUpdated(models.NormalizeItemName(item.Name), item.Category, s.now()))
		}
	}

	resp := item.ToResponse()
	publish(ctx, s.publisher, listID, realtime.NewItemUpdated(resp))
	return &resp, nil
}

func (s *ItemService) ToggleItem(ctx context.Context, userID, listID, itemID uint) (*models.ItemResponse, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return nil, err
	}
	item, err := s.findItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}

	item.Completed = !item.Completed
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	publish(ctx, s.publisher, listID, realtime.NewItemUpdated(resp))
	return &resp, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, userID, listID, itemID uint) error {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return err
	}
	item, err := s.findItem(ctx, listID, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, listID, itemID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	publish(ctx, s.publisher, listID, realtime.NewItemDeleted(item.ID, item.Name))
	return nil
}

// ClearCompleted removes every completed item and announces each removal.
func (s *ItemService) ClearCompleted(ctx context.Context, userID, listID uint) (int, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return 0, err
	}
	removed, err := s.items.DeleteCompleted(ctx, listID)
	if err != nil {
		return 0, err
	}
	for _, item := range removed {
		publish(ctx, s.publisher, listID, realtime.NewItemDeleted(item.ID, item.Name))
	}
	return len(removed), nil
}

func (s *ItemService) findItem(ctx context.Context, listID, itemID uint) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, listID, itemID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func toItemResponses(items []models.Item) []models.ItemResponse {
	if len(items) == 0 {
		return []models.ItemResponse{}
	}
	return lo.Map(items, func(item models.Item, _ int) models.ItemResponse { return item.ToResponse() })
}
