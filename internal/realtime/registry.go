// Package realtime fans list mutation events out to connected clients over
// server-sent events and websockets.
package realtime

import "sync"

// Registry maps a list id to the channels currently interested in it.
// Critical sections are pure map operations; no I/O happens under the lock.
type Registry struct {
	mu    sync.RWMutex
	lists map[uint]map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{
		lists: make(map[uint]map[string]Channel),
	}
}

// Register adds ch to the set for listID. Registering the same channel twice
// is a no-op.
func (r *Registry) Register(listID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.lists[listID]
	if !ok {
		set = make(map[string]Channel)
		r.lists[listID] = set
	}
	set[ch.ID()] = ch
}

// Unregister removes ch from the set for listID and drops the list entry once
// it is empty. Unknown lists or channels are ignored.
func (r *Registry) Unregister(listID uint, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.lists[listID]
	if !ok {
		return
	}
	delete(set, ch.ID())
	if len(set) == 0 {
		delete(r.lists, listID)
	}
}

// ChannelsFor returns a snapshot of the channels registered for listID. The
// slice is owned by the caller and stays valid while the registry changes.
func (r *Registry) ChannelsFor(listID uint) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.lists[listID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Channel, 0, len(set))
	for _, ch := range set {
		out = append(out, ch)
	}
	return out
}

// ListCount returns the number of lists with at least one channel.
func (r *Registry) ListCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lists)
}

// ChannelCount returns the number of channels registered for listID.
func (r *Registry) ChannelCount(listID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lists[listID])
}

// CloseAll closes every registered channel so their transports return. The
// transports unregister the channels themselves.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	var all []Channel
	for _, set := range r.lists {
		for _, ch := range set {
			all = append(all, ch)
		}
	}
	r.mu.RUnlock()

	for _, ch := range all {
		_ = ch.Close()
	}
}
