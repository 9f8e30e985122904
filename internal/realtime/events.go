package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"shoplist-service/internal/models"
)

// EventType is the "type" discriminator carried by every event envelope
type EventType string

const (
	EventConnected       EventType = "connected"
	EventItemCreated     EventType = "item_created"
	EventItemUpdated     EventType = "item_updated"
	EventItemDeleted     EventType = "item_deleted"
	EventItemsAdded      EventType = "items_added"
	EventCategoryUpdated EventType = "category_updated"
	EventError           EventType = "error"
)

func (t EventType) String() string {
	return string(t)
}

// Event is an immutable, JSON-serializable notification about a list.
type Event interface {
	EventType() EventType
}

type ListConnectedEvent struct {
	Type   EventType `json:"type"`
	ListID uint      `json:"listId"`
}

func (e ListConnectedEvent) EventType() EventType { return e.Type }

type UserConnectedEvent struct {
	Type   EventType `json:"type"`
	UserID uint      `json:"userId"`
}

func (e UserConnectedEvent) EventType() EventType { return e.Type }

// ItemEvent covers item_created and item_updated.
type ItemEvent struct {
	Type EventType           `json:"type"`
	Item models.ItemResponse `json:"item"`
}

func (e ItemEvent) EventType() EventType { return e.Type }

type ItemDeletedEvent struct {
	Type     EventType `json:"type"`
	ItemID   uint      `json:"itemId"`
	ItemName string    `json:"itemName"`
}

func (e ItemDeletedEvent) EventType() EventType { return e.Type }

type ItemsAddedEvent struct {
	Type            EventType               `json:"type"`
	Count           int                     `json:"count"`
	Items           []models.ItemResponse   `json:"items"`
	CategoryUpdates []models.CategoryUpdate `json:"categoryUpdates"`
}

func (e ItemsAddedEvent) EventType() EventType { return e.Type }

type CategoryUpdatedEvent struct {
	Type      EventType `json:"type"`
	ItemName  string    `json:"itemName"`
	Category  string    `json:"category"`
	Timestamp int64     `json:"timestamp"`
}

func (e CategoryUpdatedEvent) EventType() EventType { return e.Type }

type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

func (e ErrorEvent) EventType() EventType { return e.Type }

func NewListConnected(listID uint) ListConnectedEvent {
	return ListConnectedEvent{Type: EventConnected, ListID: listID}
}

func NewUserConnected(userID uint) UserConnectedEvent {
	return UserConnectedEvent{Type: EventConnected, UserID: userID}
}

func NewItemCreated(item models.ItemResponse) ItemEvent {
	return ItemEvent{Type: EventItemCreated, Item: item}
}

func NewItemUpdated(item models.ItemResponse) ItemEvent {
	return ItemEvent{Type: EventItemUpdated, Item: item}
}

func NewItemDeleted(itemID uint, itemName string) ItemDeletedEvent {
	return ItemDeletedEvent{Type: EventItemDeleted, ItemID: itemID, ItemName: itemName}
}

func NewItemsAdded(items []models.ItemResponse, updates []models.CategoryUpdate) ItemsAddedEvent {
	if items == nil {
		items = []models.ItemResponse{}
	}
	if updates == nil {
		updates = []models.CategoryUpdate{}
	}
	return ItemsAddedEvent{Type: EventItemsAdded, Count: len(items), Items: items, CategoryUpdates: updates}
}

func NewCategoryUpdated(itemName, category string, at time.Time) CategoryUpdatedEvent {
	return CategoryUpdatedEvent{
		Type:      EventCategoryUpdated,
		ItemName:  itemName,
		Category:  category,
		Timestamp: at.UnixMilli(),
	}
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// RawEvent wraps an event that arrived already serialized from another
// process. It marshals back to exactly its payload.
type RawEvent struct {
	Type    EventType
	Payload json.RawMessage
}

func (e RawEvent) EventType() EventType { return e.Type }

func (e RawEvent) MarshalJSON() ([]byte, error) { return e.Payload, nil }

// ParseRawEvent validates payload and wraps it for republishing.
func ParseRawEvent(payload []byte) (RawEvent, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := ValidatePayload(payload); err != nil {
		return RawEvent{}, err
	}
	_ = json.Unmarshal(payload, &envelope)
	return RawEvent{Type: EventType(envelope.Type), Payload: payload}, nil
}

// ValidatePayload checks that a raw event is a JSON object with a non-empty
// string "type" field. Used on payloads that arrive from outside the process.
func ValidatePayload(payload []byte) error {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}
	if envelope.Type == "" {
		return fmt.Errorf("invalid event payload: missing type")
	}
	return nil
}
