package listclient

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ItemAPI is the subset of Client used by ItemView.
type ItemAPI interface {
	ListItems(ctx context.Context, listID uint) ([]Item, error)
	CreateItem(ctx context.Context, listID uint, in ItemInput) (*Item, error)
	UpdateItem(ctx context.Context, listID, itemID uint, patch ItemPatch) (*Item, error)
	ToggleItem(ctx context.Context, listID, itemID uint) (*Item, error)
	DeleteItem(ctx context.Context, listID, itemID uint) error
}

// ItemView is a local copy of one list's items. Mutations apply locally
// first and are reverted if the server rejects them. Stream events trigger a
// full refresh from the server.
type ItemView struct {
	api    ItemAPI
	listID uint
	logger *slog.Logger

	mu        sync.Mutex
	items     []Item
	listeners map[int]func([]Item)
	nextID    int

	// refreshSeq numbers Refresh calls as they start; appliedSeq is the
	// newest one whose result is in items.
	refreshSeq uint64
	appliedSeq uint64
}

func NewItemView(api ItemAPI, listID uint, logger *slog.Logger) *ItemView {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemView{
		api:       api,
		listID:    listID,
		logger:    logger,
		listeners: make(map[int]func([]Item)),
	}
}

// Snapshot returns a copy of the current items.
func (v *ItemView) Snapshot() []Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// OnChange registers fn to receive a snapshot after every change.
func (v *ItemView) OnChange(fn func([]Item)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	id := v.nextID
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Refresh replaces the view with the server's items. Placeholders still
// waiting for a create response are kept at the end. When refreshes overlap,
// a response from an older call is discarded once a newer one has landed.
func (v *ItemView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.refreshSeq++
	seq := v.refreshSeq
	v.mu.Unlock()

	items, err := v.api.ListItems(ctx, v.listID)
	if err != nil {
		return err
	}
	fresh := func() bool {
		if seq < v.appliedSeq {
			return false
		}
		v.appliedSeq = seq
		return true
	}
	applied := v.commit(fresh, func(current []Item) []Item {
		next := slices.Clone(items)
		for _, it := range current {
			if it.Pending() {
				next = append(next, it)
			}
		}
		return next
	})
	if !applied {
		v.logger.Debug("Discarding stale refresh", "list_id", v.listID, "seq", seq)
	}
	return nil
}

// Create appends a placeholder, then swaps it for the server's item.
func (v *ItemView) Create(ctx context.Context, in ItemInput) (*Item, error) {
	placeholder := Item{
		ListID:   v.listID,
		Name:     in.Name,
		Quantity: in.Quantity,
		Category: in.Category,
		Notes:    in.Notes,
		TempID:   "temp-" + uuid.NewString(),
	}
	v.update(func(items []Item) []Item { return append(items, placeholder) })

	created, err := v.api.CreateItem(ctx, v.listID, in)
	if err != nil {
		v.update(func(items []Item) []Item { return removeTemp(items, placeholder.TempID) })
		return nil, err
	}

	v.update(func(items []Item) []Item {
		idx := slices.IndexFunc(items, func(it Item) bool { return it.TempID == placeholder.TempID })
		if existing := indexByID(items, created.ID); existing >= 0 {
			// A refresh already brought in the canonical item.
			items[existing] = *created
			if idx >= 0 {
				items = slices.Delete(items, idx, idx+1)
			}
			return items
		}
		if idx >= 0 {
			items[idx] = *created
			return items
		}
		return append(items, *created)
	})
	return created, nil
}

// Toggle flips the completed flag.
func (v *ItemView) Toggle(ctx context.Context, itemID uint) (*Item, error) {
	return v.mutate(ctx, itemID, func(it *Item) { it.Completed = !it.Completed }, func() (*Item, error) {
		return v.api.ToggleItem(ctx, v.listID, itemID)
	})
}

func (v *ItemView) Update(ctx context.Context, itemID uint, patch ItemPatch) (*Item, error) {
	return v.mutate(ctx, itemID, func(it *Item) { applyPatch(it, patch) }, func() (*Item, error) {
		return v.api.UpdateItem(ctx, v.listID, itemID, patch)
	})
}

// Delete removes the item, re-inserting it at its old position on failure.
func (v *ItemView) Delete(ctx context.Context, itemID uint) error {
	var (
		prev  Item
		index = -1
	)
	v.update(func(items []Item) []Item {
		if index = indexByID(items, itemID); index >= 0 {
			prev = items[index]
			items = slices.Delete(items, index, index+1)
		}
		return items
	})
	if index < 0 {
		return ErrItemNotInView
	}

	if err := v.api.DeleteItem(ctx, v.listID, itemID); err != nil {
		v.update(func(items []Item) []Item {
			if indexByID(items, itemID) >= 0 {
				return items
			}
			return slices.Insert(items, min(index, len(items)), prev)
		})
		return err
	}
	return nil
}

// HandleEvent reconciles with the server for any change event on the list.
func (v *ItemView) HandleEvent(ctx context.Context, ev Event) {
	if ev.ListID != 0 && ev.ListID != v.listID {
		return
	}
	switch ev.Type {
	case EventConnected, EventItemCreated, EventItemUpdated, EventItemDeleted, EventItemsAdded, EventCategoryUpdated:
		if err := v.Refresh(ctx); err != nil {
			v.logger.Warn("Failed to refresh list items", "list_id", v.listID, "event", ev.Type, "error", err)
		}
	}
}

// Bind subscribes the view to the list's stream.
func (v *ItemView) Bind(stream *StreamClient) func() {
	return stream.Subscribe(v.listID, func(ev Event) {
		v.HandleEvent(context.Background(), ev)
	})
}

func (v *ItemView) mutate(ctx context.Context, itemID uint, apply func(*Item), call func() (*Item, error)) (*Item, error) {
	var (
		prev  Item
		found bool
	)
	v.update(func(items []Item) []Item {
		if i := indexByID(items, itemID); i >= 0 {
			prev, found = items[i], true
			next := items[i]
			apply(&next)
			items[i] = next
		}
		return items
	})
	if !found {
		return nil, ErrItemNotInView
	}

	updated, err := call()
	if err != nil {
		v.update(func(items []Item) []Item {
			if i := indexByID(items, itemID); i >= 0 {
				items[i] = prev
			}
			return items
		})
		return nil, err
	}

	v.update(func(items []Item) []Item {
		if i := indexByID(items, itemID); i >= 0 {
			items[i] = *updated
		}
		return items
	})
	return updated, nil
}

// update applies fn under the lock and notifies listeners with the result.
func (v *ItemView) update(fn func([]Item) []Item) {
	v.commit(nil, fn)
}

// commit applies fn and notifies listeners. accept runs under the lock first;
// when it returns false nothing changes.
func (v *ItemView) commit(accept func() bool, fn func([]Item) []Item) bool {
	v.mu.Lock()
	if accept != nil && !accept() {
		v.mu.Unlock()
		return false
	}
	v.items = fn(slices.Clone(v.items))
	snapshot := slices.Clone(v.items)
	listeners := make([]func([]Item), 0, len(v.listeners))
	for _, l := range v.listeners {
		listeners = append(listeners, l)
	}
	v.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return true
}

func indexByID(items []Item, id uint) int {
	return slices.IndexFunc(items, func(it Item) bool { return !it.Pending() && it.ID == id })
}

func removeTemp(items []Item, tempID string) []Item {
	return slices.DeleteFunc(items, func(it Item) bool { return it.TempID == tempID })
}

func applyPatch(it *Item, p ItemPatch) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
}
