package postgres

import (
	"context"
	"fmt"

	"shoplist-service/internal/models"

	"gorm.io/gorm"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

func (r *RecipeRepository) FindByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&recipe, id).Error
	if err != nil {
		return nil, notFound("failed to find recipe", err)
	}
	return &recipe, nil
}

func (r *RecipeRepository) FindByOwner(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}
	return recipes, nil
}

// Update saves the recipe fields and replaces its ingredient list.
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(recipe).Updates(map[string]interface{}{
			"name":        recipe.Name,
			"description": recipe.Description,
			"servings":    recipe.Servings,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		for i := range recipe.Ingredients {
			recipe.Ingredients[i].ID = 0
			recipe.Ingredients[i].RecipeID = recipe.ID
		}
		if len(recipe.Ingredients) > 0 {
			if err := tx.Create(&recipe.Ingredients).Error; err != nil {
				return fmt.Errorf("failed to save ingredients: %w", err)
			}
		}
		return nil
	})
}

func (r *RecipeRepository) SetImage(ctx context.Context, recipeID uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Update("image_url", url)
	if result.Error != nil {
		return fmt.Errorf("failed to set recipe image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) Delete(ctx context.Context, recipeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete ingredients: %w", err)
		}
		result := tx.Delete(&models.Recipe{}, recipeID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete recipe: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
