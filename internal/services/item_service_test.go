package services

import (
	"context"
	"errors"
	"testing"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func TestCreateItemPublishesAndRemembersCategory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.itemService.CreateItem(ctx, 2, 1, &models.CreateItemRequest{Name: "Milk", Category: "Dairy"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Category != "Dairy" || first.AddedBy != 2 {
		t.Errorf("Unexpected item %+v", first)
	}

	second, err := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "  milk "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Category != "Dairy" {
		t.Errorf("Expected remembered category Dairy, got %q", second.Category)
	}

	want := []realtime.EventType{realtime.EventItemCreated, realtime.EventItemCreated}
	if diff := cmp.Diff(want, f.publisher.types()); diff != "" {
		t.Errorf("Published events mismatch (-want +got):\n%s", diff)
	}
	created := f.publisher.events[0].(realtime.ItemEvent)
	if created.Item.ID != first.ID {
		t.Errorf("Expected event for item %d, got %d", first.ID, created.Item.ID)
	}
}

func TestCreateItemPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.itemService.CreateItem(ctx, 3, 1, &models.CreateItemRequest{Name: "Eggs"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected viewer to be forbidden, got %v", err)
	}
	if _, err := f.itemService.CreateItem(ctx, 4, 1, &models.CreateItemRequest{Name: "Eggs"}); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Expected stranger to get ErrListNotFound, got %v", err)
	}
	if _, err := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "   "}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected blank name to be invalid, got %v", err)
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("Expected no events for rejected mutations, got %d", len(f.publisher.events))
	}
}

func TestUpdateItemCategoryChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item, _ := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "Bread"})
	f.publisher.events = nil

	updated, err := f.itemService.UpdateItem(ctx, 2, 1, item.ID, &models.UpdateItemRequest{Category: strPtr("Bakery"), Quantity: strPtr("2")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.Category != "Bakery" || updated.Quantity != "2" {
		t.Errorf("Unexpected update result %+v", updated)
	}

	want := []realtime.EventType{realtime.EventCategoryUpdated, realtime.EventItemUpdated}
	if diff := cmp.Diff(want, f.publisher.types()); diff != "" {
		t.Errorf("Published events mismatch (-want +got):\n%s", diff)
	}
	catEvent := f.publisher.events[0].(realtime.CategoryUpdatedEvent)
	wantCat := realtime.CategoryUpdatedEvent{
		Type:      realtime.EventCategoryUpdated,
		ItemName:  "bread",
		Category:  "Bakery",
		Timestamp: 1700000000000,
	}
	if diff := cmp.Diff(wantCat, catEvent); diff != "" {
		t.Errorf("Category event mismatch (-want +got):\n%s", diff)
	}

	if remembered, _ := f.categories.Find(ctx, 1, "BREAD"); remembered != "Bakery" {
		t.Errorf("Expected category memory to be updated, got %q", remembered)
	}
}

func TestToggleAndDeleteItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item, _ := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "Apples"})

	toggled, err := f.itemService.ToggleItem(ctx, 2, 1, item.ID)
	if err != nil || !toggled.Completed {
		t.Fatalf("Expected completed item, got %+v (%v)", toggled, err)
	}
	toggled, _ = f.itemService.ToggleItem(ctx, 2, 1, item.ID)
	if toggled.Completed {
		t.Error("Expected second toggle to reopen the item")
	}

	if err := f.itemService.DeleteItem(ctx, 1, 1, item.ID); err != nil {
		t.Fatalf("Unexpected delete error: %v", err)
	}
	if err := f.itemService.DeleteItem(ctx, 1, 1, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound on second delete, got %v", err)
	}

	last := f.publisher.events[len(f.publisher.events)-1]
	deleted, ok := last.(realtime.ItemDeletedEvent)
	if !ok || deleted.ItemID != item.ID || deleted.ItemName != "Apples" {
		t.Errorf("Expected item_deleted for Apples, got %+v", last)
	}
}

func TestClearCompletedPublishesEachRemoval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "A"})
	b, _ := f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "B"})
	_, _ = f.itemService.CreateItem(ctx, 1, 1, &models.CreateItemRequest{Name: "C"})
	_, _ = f.itemService.ToggleItem(ctx, 1, 1, a.ID)
	_, _ = f.itemService.ToggleItem(ctx, 1, 1, b.ID)
	f.publisher.events = nil

	count, err := f.itemService.ClearCompleted(ctx, 2, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 removed, got %d", count)
	}

	want := []realtime.EventType{realtime.EventItemDeleted, realtime.EventItemDeleted}
	if diff := cmp.Diff(want, f.publisher.types()); diff != "" {
		t.Errorf("Published events mismatch (-want +got):\n%s", diff)
	}

	remaining, _ := f.itemService.GetItems(ctx, 3, 1)
	if len(remaining) != 1 || remaining[0].Name != "C" {
		t.Errorf("Expected only C to remain, got %+v", remaining)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("relay down")

	item, err := f.itemService.CreateItem(context.Background(), 1, 1, &models.CreateItemRequest{Name: "Salt"})
	if err != nil {
		t.Fatalf("Expected mutation to succeed, got %v", err)
	}
	if item.ID == 0 {
		t.Error("Expected item to be stored")
	}
}

func TestStoreFailureDoesNotPublish(t *testing.T) {
	f := newFixture()
	f.items.err = errors.New("db down")

	if _, err := f.itemService.CreateItem(context.Background(), 1, 1, &models.CreateItemRequest{Name: "Salt"}); err == nil {
		t.Fatal("Expected store error")
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("Expected nothing published, got %d events", len(f.publisher.events))
	}
}

func TestSetCategory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	update, err := f.categoryService.SetCategory(ctx, 2, 1, &models.SetCategoryRequest{ItemName: " Cheese ", Category: "Dairy"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if update.ItemName != "cheese" {
		t.Errorf("Expected normalized name, got %q", update.ItemName)
	}

	mappings, _ := f.categoryService.GetCategories(ctx, 3, 1)
	if len(mappings) != 1 || mappings[0].Category != "Dairy" {
		t.Errorf("Unexpected mappings %+v", mappings)
	}

	if _, err := f.categoryService.SetCategory(ctx, 3, 1, &models.SetCategoryRequest{ItemName: "x", Category: "y"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected viewer to be forbidden, got %v", err)
	}

	if diff := cmp.Diff([]realtime.EventType{realtime.EventCategoryUpdated}, f.publisher.types()); diff != "" {
		t.Errorf("Published events mismatch (-want +got):\n%s", diff)
	}
}
