package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"

	"github.com/samber/lo"
)

type RecipeService struct {
	recipes    RecipeStore
	items      ItemStore
	categories CategoryStore
	access     Authorizer
	images     ImageStore
	publisher  realtime.Publisher
}

// NewRecipeService builds the service; images may be nil when no object
// storage is configured.
func NewRecipeService(recipes RecipeStore, items ItemStore, categories CategoryStore, access Authorizer, images ImageStore, publisher realtime.Publisher) *RecipeService {
	return &RecipeService{
		recipes:    recipes,
		items:      items,
		categories: categories,
		access:     access,
		images:     images,
		publisher:  publisher,
	}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, ownerID uint, req *models.RecipeRequest) (*models.RecipeResponse, error) {
	recipe, err := recipeFromRequest(req)
	if err != nil {
		return nil, err
	}
	recipe.OwnerID = ownerID

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	resp := recipe.ToResponse()
	return &resp, nil
}

func (s *RecipeService) GetRecipes(ctx context.Context, ownerID uint) ([]models.RecipeResponse, error) {
	recipes, err := s.recipes.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return lo.Map(recipes, func(r models.Recipe, _ int) models.RecipeResponse { return r.ToResponse() }), nil
}

func (s *RecipeService) GetRecipe(ctx context.Context, ownerID, recipeID uint) (*models.RecipeResponse, error) {
	recipe, err := s.ownedRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}
	resp := recipe.ToResponse()
	return &resp, nil
}

func (s *RecipeService) UpdateRecipe(ctx context.Context, ownerID, recipeID uint, req *models.RecipeRequest) (*models.RecipeResponse, error) {
	existing, err := s.ownedRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}
	updated, err := recipeFromRequest(req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.OwnerID = existing.OwnerID
	updated.ImageURL = existing.ImageURL
	updated.CreatedAt = existing.CreatedAt

	if err := s.recipes.Update(ctx, updated); err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, ownerID, recipeID uint) error {
	if _, err := s.ownedRecipe(ctx, ownerID, recipeID); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	return nil
}

// UploadImage stores the image and records its URL on the recipe.
func (s *RecipeService) UploadImage(ctx context.Context, ownerID, recipeID uint, filename, contentType string, body io.Reader, size int64) (*models.RecipeResponse, error) {
	if s.images == nil {
		return nil, ErrImagesDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidRequest
	}
	recipe, err := s.ownedRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}

	url, err := s.images.UploadImage(ctx, filename, contentType, body, size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload recipe image: %w", err)
	}
	if err := s.recipes.SetImage(ctx, recipeID, url); err != nil {
		return nil, err
	}

	recipe.ImageURL = url
	resp := recipe.ToResponse()
	return &resp, nil
}

// AddToList turns the recipe's ingredients into items on the list. Ingredient
// categories that differ from the list's memory are remembered and reported
// as category updates; ingredients without one pick up the remembered value.
func (s *RecipeService) AddToList(ctx context.Context, userID, listID, recipeID uint) (*models.AddRecipeResponse, error) {
	if _, err := s.access.Authorize(ctx, userID, listID, PermEdit); err != nil {
		return nil, err
	}
	recipe, err := s.ownedRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(recipe.Ingredients))
	updates := []models.CategoryUpdate{}
	for _, ing := range recipe.Ingredients {
		remembered, err := s.categories.Find(ctx, listID, ing.Name)
		if err != nil {
			return nil, err
		}

		category := strings.TrimSpace(ing.Category)
		switch {
		case category == "":
			category = remembered
		case category != remembered:
			if err := s.categories.Upsert(ctx, listID, ing.Name, category); err != nil {
				return nil, err
			}
			updates = append(updates, models.CategoryUpdate{
				ItemName: models.NormalizeItemName(ing.Name),
				Category: category,
			})
		}

		rid := recipe.ID
		items = append(items, models.Item{
			ListID:   listID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Category: category,
			AddedBy:  userID,
			RecipeID: &rid,
		})
	}

	if err := s.items.CreateBatch(ctx, items); err != nil {
		return nil, err
	}

	responses := toItemResponses(items)
	publish(ctx, s.publisher, listID, realtime.NewItemsAdded(responses, updates))
	slog.Info("Recipe added to list", "listID", listID, "recipeID", recipeID, "count", len(items))

	return &models.AddRecipeResponse{
		Count:           len(responses),
		Items:           responses,
		CategoryUpdates: updates,
	}, nil
}

// ownedRecipe hides other users' recipes behind ErrRecipeNotFound.
func (s *RecipeService) ownedRecipe(ctx context.Context, ownerID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if recipe.OwnerID != ownerID {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

func recipeFromRequest(req *models.RecipeRequest) (*models.Recipe, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Servings < 0 {
		return nil, ErrInvalidRequest
	}

	ingredients := make([]models.RecipeIngredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		ingName := strings.TrimSpace(ing.Name)
		if ingName == "" {
			return nil, ErrInvalidRequest
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			Name:     ingName,
			Quantity: strings.TrimSpace(ing.Quantity),
			Category: strings.TrimSpace(ing.Category),
		})
	}

	return &models.Recipe{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Servings:    req.Servings,
		Ingredients: ingredients,
	}, nil
}
