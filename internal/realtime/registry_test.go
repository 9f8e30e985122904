package realtime

import (
	"fmt"
	"sync"
	"testing"
)

// Test that registering the same channel twice keeps a single entry
func TestRegistryRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	ch := newMockChannel("a")

	r.Register(7, ch)
	r.Register(7, ch)

	if got := r.ChannelCount(7); got != 1 {
		t.Errorf("Expected 1 channel, got %d", got)
	}
}

// Test that a list entry disappears once its last channel is removed
func TestRegistryCleanupAfterUnregister(t *testing.T) {
	r := NewRegistry()
	a := newMockChannel("a")
	b := newMockChannel("b")

	r.Register(7, a)
	r.Register(7, b)
	r.Register(8, a)

	r.Unregister(7, a)
	if got := r.ChannelCount(7); got != 1 {
		t.Errorf("Expected 1 channel left on list 7, got %d", got)
	}

	r.Unregister(7, b)
	if chans := r.ChannelsFor(7); len(chans) != 0 {
		t.Errorf("Expected no channels for list 7, got %d", len(chans))
	}
	if _, ok := r.lists[7]; ok {
		t.Error("List 7 entry should be removed")
	}
	if got := r.ListCount(); got != 1 {
		t.Errorf("Expected 1 list left, got %d", got)
	}
}

// Test that unregistering unknown lists and channels is a no-op
func TestRegistryUnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	a := newMockChannel("a")

	r.Unregister(1, a)
	r.Register(1, a)
	r.Unregister(1, newMockChannel("other"))
	r.Unregister(1, a)
	r.Unregister(1, a)

	if got := r.ListCount(); got != 0 {
		t.Errorf("Expected empty registry, got %d lists", got)
	}
}

// Test that a snapshot is unaffected by later mutations
func TestRegistrySnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	a := newMockChannel("a")
	b := newMockChannel("b")
	r.Register(3, a)
	r.Register(3, b)

	snapshot := r.ChannelsFor(3)
	r.Unregister(3, a)
	r.Unregister(3, b)

	if len(snapshot) != 2 {
		t.Errorf("Expected snapshot of 2 channels, got %d", len(snapshot))
	}
}

// Test that any interleaving of register/unregister leaves no residue
func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	const workers = 32
	const lists = 4

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := newMockChannel(fmt.Sprintf("ch-%d", i))
			for n := 0; n < 200; n++ {
				listID := uint(n%lists + 1)
				r.Register(listID, ch)
				_ = r.ChannelsFor(listID)
				r.Unregister(listID, ch)
			}
		}(i)
	}
	wg.Wait()

	if got := r.ListCount(); got != 0 {
		t.Errorf("Expected no residual lists, got %d", got)
	}
	for listID := uint(1); listID <= lists; listID++ {
		if chans := r.ChannelsFor(listID); chans != nil {
			t.Errorf("Expected nil snapshot for list %d, got %d channels", listID, len(chans))
		}
	}
}

// Test that CloseAll closes channels across lists
func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	a := newMockChannel("a")
	b := newMockChannel("b")
	r.Register(7, a)
	r.Register(7, b)
	r.Register(8, a)

	r.CloseAll()

	for _, ch := range []*mockChannel{a, b} {
		if !ch.Closed() {
			t.Errorf("Expected channel %s to be closed", ch.id)
		}
	}
}
