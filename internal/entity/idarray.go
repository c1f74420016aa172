// Package entity implements the per-entity data model, the IdArray
// container entities live in, and the per-type static stat/animation
// tables described in §3 and §4.3 of the specification.
package entity

import "goldrush/internal/worldmap"

// ID is an alias for the stable entity identifier used across the match,
// input, and replay layers.
type ID = worldmap.EntityID

// IDNull is the sentinel "no entity" id.
const IDNull = worldmap.IDNull

// indexInvalid is returned by IndexOf for an id the array does not hold.
const indexInvalid = ^uint32(0)

// IdArray maps EntityId -> dense index, grounded on
// original_source/gold/src/container/id_array.h, but with one deliberate
// redesign per spec.md §4.4: removal is swap-remove (O(1)), not the
// original's shift-all-following-elements removal (O(n)). The
// determinism contract only requires that iteration order be *stable
// within a run* and a deterministic function of the add/remove sequence —
// swap-remove satisfies that while original_source's shift-remove was
// simply the straightforward but slower choice in C++.
type IdArray[T any] struct {
	data        []T
	ids         []ID
	idToIndex   map[ID]uint32
	availableID []ID
	nextFreeID  ID
}

// NewIdArray constructs an empty container.
func NewIdArray[T any]() *IdArray[T] {
	return &IdArray[T]{
		idToIndex:  make(map[ID]uint32),
		nextFreeID: IDNull + 1,
	}
}

// Len returns the number of live elements.
func (a *IdArray[T]) Len() int {
	return len(a.data)
}

// allocID returns a fresh or recycled id, never IDNull.
func (a *IdArray[T]) allocID() ID {
	if n := len(a.availableID); n > 0 {
		id := a.availableID[n-1]
		a.availableID = a.availableID[:n-1]
		return id
	}
	id := a.nextFreeID
	a.nextFreeID++
	return id
}

// PushBack appends value, allocating it a fresh or recycled id, and
// returns that id.
func (a *IdArray[T]) PushBack(value T) ID {
	id := a.allocID()
	a.idToIndex[id] = uint32(len(a.data))
	a.ids = append(a.ids, id)
	a.data = append(a.data, value)
	return id
}

// IndexOf returns the dense index of id, or indexInvalid if id is not
// present.
func (a *IdArray[T]) IndexOf(id ID) uint32 {
	idx, ok := a.idToIndex[id]
	if !ok {
		return indexInvalid
	}
	return idx
}

// HasIndex reports whether idx denotes a valid dense-array slot.
func HasIndex(idx uint32) bool {
	return idx != indexInvalid
}

// IDOf returns the id stored at a dense index.
func (a *IdArray[T]) IDOf(index uint32) ID {
	return a.ids[index]
}

// Get returns a pointer to the element at a dense index, for in-place
// mutation during match_update's per-entity step.
func (a *IdArray[T]) Get(index uint32) *T {
	return &a.data[index]
}

// GetByID returns a pointer to the element with the given id, or nil if
// not present.
func (a *IdArray[T]) GetByID(id ID) *T {
	idx := a.IndexOf(id)
	if !HasIndex(idx) {
		return nil
	}
	return &a.data[idx]
}

// Has reports whether id currently denotes a live element.
func (a *IdArray[T]) Has(id ID) bool {
	return HasIndex(a.IndexOf(id))
}

// RemoveAt swap-removes the element at a dense index: the last element is
// moved into the vacated slot (unless it was already the last), the
// moved element's id->index mapping is updated, and the removed id is
// returned to the free list.
func (a *IdArray[T]) RemoveAt(index uint32) {
	n := uint32(len(a.data))
	if index >= n {
		return
	}
	removedID := a.ids[index]
	delete(a.idToIndex, removedID)

	last := n - 1
	if index != last {
		a.data[index] = a.data[last]
		a.ids[index] = a.ids[last]
		a.idToIndex[a.ids[index]] = index
	}
	a.data = a.data[:last]
	a.ids = a.ids[:last]
	a.availableID = append(a.availableID, removedID)
}

// RemoveByID is a convenience wrapper around RemoveAt for callers that
// only have an id.
func (a *IdArray[T]) RemoveByID(id ID) bool {
	idx := a.IndexOf(id)
	if !HasIndex(idx) {
		return false
	}
	a.RemoveAt(idx)
	return true
}

// ForEach iterates the dense array in index order — the order
// match_update's tick loop uses; after a swap-remove it is not id order,
// which is why the checksum serializes via IDsAscending instead — calling
// fn(id, index, element) for each.
func (a *IdArray[T]) ForEach(fn func(id ID, index uint32, value *T)) {
	for i := range a.data {
		fn(a.ids[i], uint32(i), &a.data[i])
	}
}

// IDsAscending returns a copy of the ids currently held, sorted ascending,
// which is how internal/match's checksum serialization orders
// entities (§4.9: "entities in id-ascending order").
func (a *IdArray[T]) IDsAscending() []ID {
	ids := make([]ID, len(a.ids))
	copy(ids, a.ids)
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
