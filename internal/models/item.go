package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Item is one entry on a shopping list
type Item struct {
	gorm.Model
	ListID    uint   `gorm:"not null;index" json:"listId"`
	Name      string `gorm:"not null" json:"name"`
	Quantity  string `json:"quantity,omitempty"`
	Category  string `gorm:"index" json:"category,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `gorm:"default:false" json:"completed"`
	AddedBy   uint   `json:"addedBy"`
	RecipeID  *uint  `json:"recipeId,omitempty"`
}

/** -------------------- DTOs -------------------- */
type CreateItemRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Quantity string `json:"quantity" binding:"max=50"`
	Category string `json:"category" binding:"max=50"`
	Notes    string `json:"notes" binding:"max=500"`
}

// UpdateItemRequest carries a partial update; nil fields are left untouched.
type UpdateItemRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,max=200"`
	Quantity  *string `json:"quantity,omitempty" binding:"omitempty,max=50"`
	Category  *string `json:"category,omitempty" binding:"omitempty,max=50"`
	Notes     *string `json:"notes,omitempty" binding:"omitempty,max=500"`
	Completed *bool   `json:"completed,omitempty"`
}

type ItemResponse struct {
	ID        uint      `json:"id"`
	ListID    uint      `json:"listId"`
	Name      string    `json:"name"`
	Quantity  string    `json:"quantity,omitempty"`
	Category  string    `json:"category,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
	AddedBy   uint      `json:"addedBy"`
	RecipeID  *uint     `json:"recipeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{
		ID:        i.ID,
		ListID:    i.ListID,
		Name:      i.Name,
		Quantity:  i.Quantity,
		Category:  i.Category,
		Notes:     i.Notes,
		Completed: i.Completed,
		AddedBy:   i.AddedBy,
		RecipeID:  i.RecipeID,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

type ClearCompletedResponse struct {
	Count int `json:"count"`
}
