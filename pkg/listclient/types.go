// Package listclient is a Go client for the shoplist service API and its
// per-list event streams.
package listclient

import (
	"encoding/json"
	"errors"
	"time"
)

// Item mirrors the server's item representation.
type Item struct {
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

	// TempID marks a local placeholder the server has not confirmed yet.
	TempID string `json:"-"`
}

// Pending reports whether the item is an unconfirmed placeholder.
func (i Item) Pending() bool { return i.TempID != "" }

type ItemInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ItemPatch is a partial update; nil fields are left untouched.
type ItemPatch struct {
	Name      *string `json:"name,omitempty"`
	Quantity  *string `json:"quantity,omitempty"`
	Category  *string `json:"category,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type CategoryUpdate struct {
	ItemName string `json:"itemName"`
	Category string `json:"category"`
}

// Event types sent on list streams.
const (
	EventConnected       = "connected"
	EventItemCreated     = "item_created"
	EventItemUpdated     = "item_updated"
	EventItemDeleted     = "item_deleted"
	EventItemsAdded      = "items_added"
	EventCategoryUpdated = "category_updated"
)

// Event is one decoded stream record. Only the fields of its Type are set.
type Event struct {
	Type            string           `json:"type"`
	ListID          uint             `json:"listId,omitempty"`
	Item            *Item            `json:"item,omitempty"`
	ItemID          uint             `json:"itemId,omitempty"`
	ItemName        string           `json:"itemName,omitempty"`
	Count           int              `json:"count,omitempty"`
	Items           []Item           `json:"items,omitempty"`
	CategoryUpdates []CategoryUpdate `json:"categoryUpdates,omitempty"`
	Category        string           `json:"category,omitempty"`
	Timestamp       int64            `json:"timestamp,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ErrItemNotInView is returned when a mutation targets an item the view does not hold.
var ErrItemNotInView = errors.New("item not in view")
