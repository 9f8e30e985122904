package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
type Recipe struct {
	gorm.Model
	OwnerID     uint   `gorm:"not null;index" json:"ownerId"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Servings    int    `json:"servings,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`

	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
}

type RecipeIngredient struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RecipeID uint   `gorm:"not null;index" json:"recipeId"`
	Name     string `gorm:"not null" json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

/** -------------------- DTOs -------------------- */
type IngredientRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Quantity string `json:"quantity" binding:"max=50"`
	Category string `json:"category" binding:"max=50"`
}

type RecipeRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Description string              `json:"description" binding:"max=2000"`
	Servings    int                 `json:"servings" binding:"min=0"`
	Ingredients []IngredientRequest `json:"ingredients" binding:"dive"`
}

type RecipeResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Servings    int                `json:"servings,omitempty"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (r *Recipe) ToResponse() RecipeResponse {
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []RecipeIngredient{}
	}
	return RecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Servings:    r.Servings,
		ImageURL:    r.ImageURL,
		Ingredients: ingredients,
		CreatedAt:   r.CreatedAt,
	}
}

// AddRecipeResponse is returned when a recipe's ingredients are added to a list.
type AddRecipeResponse struct {
	Count           int              `json:"count"`
	Items           []ItemResponse   `json:"items"`
	CategoryUpdates []CategoryUpdate `json:"categoryUpdates"`
}
