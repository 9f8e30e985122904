package models

import (
	"strings"
	"time"
)

// CategoryMapping remembers which category an item name belongs to on a list
type CategoryMapping struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListID    uint      `gorm:"not null;uniqueIndex:idx_category_list_item" json:"listId"`
	ItemName  string    `gorm:"not null;uniqueIndex:idx_category_list_item" json:"itemName"`
	Category  string    `gorm:"not null" json:"category"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeItemName is the key used for category lookups.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type SetCategoryRequest struct {
	ItemName string `json:"itemName" binding:"required,max=200"`
	Category string `json:"category" binding:"required,max=50"`
}

type CategoryUpdate struct {
	ItemName string `json:"itemName"`
	Category string `json:"category"`
}
