package sched

import (
	"errors"
	"sort"
)

// ErrHistoryFull is returned when a new UE needs an entry and every slot is taken.
var ErrHistoryFull = errors.New("ue history store full")

// HistoryStore is a fixed-capacity slot table of UE contexts keyed by RNTI.
// Slot indices stay valid until the entry is removed, so queues hold slot
// indices instead of pointers into the table.
type HistoryStore struct {
	slots []UEContext
	used  []bool
	index map[uint16]int
	free  []int // LIFO of unused slot indices
}

// NewHistoryStore creates a store holding at most capacity UEs.
func NewHistoryStore(capacity int) *HistoryStore {
	h := &HistoryStore{
		slots: make([]UEContext, capacity),
		used:  make([]bool, capacity),
		index: make(map[uint16]int, capacity),
		free:  make([]int, 0, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		h.free = append(h.free, i)
	}
	return h
}

// Len returns the number of stored UEs.
func (h *HistoryStore) Len() int {
	return len(h.index)
}

// Cap returns the fixed capacity.
func (h *HistoryStore) Cap() int {
	return len(h.slots)
}

// FindOrCreate returns the slot of rnti, creating an entry with the given
// slice and fairness coefficient if the UE is new. created reports whether
// a new entry was inserted.
func (h *HistoryStore) FindOrCreate(rnti uint16, slice uint8, fairnessCoeff float64) (slot int, created bool, err error) {
	if slot, ok := h.index[rnti]; ok {
		return slot, false, nil
	}
	if len(h.free) == 0 {
		return -1, false, ErrHistoryFull
	}
	slot = h.free[len(h.free)-1]
	h.free = h.free[:len(h.free)-1]
	h.slots[slot] = NewUEContext(rnti, slice, fairnessCoeff)
	h.used[slot] = true
	h.index[rnti] = slot
	return slot, true, nil
}

// Slot returns the context stored in slot. The pointer is valid until the
// entry is removed.
func (h *HistoryStore) Slot(slot int) *UEContext {
	if slot < 0 || slot >= len(h.slots) || !h.used[slot] {
		return nil
	}
	return &h.slots[slot]
}

// Lookup returns the context of rnti.
func (h *HistoryStore) Lookup(rnti uint16) (*UEContext, bool) {
	slot, ok := h.index[rnti]
	if !ok {
		return nil, false
	}
	return &h.slots[slot], true
}

// Remove drops the entry of rnti and frees its slot.
func (h *HistoryStore) Remove(rnti uint16) bool {
	slot, ok := h.index[rnti]
	if !ok {
		return false
	}
	delete(h.index, rnti)
	h.used[slot] = false
	h.slots[slot] = UEContext{}
	h.free = append(h.free, slot)
	return true
}

// Prune removes every entry for which keep returns false and returns the
// number of entries removed.
func (h *HistoryStore) Prune(keep func(rnti uint16) bool) int {
	var drop []uint16
	for rnti := range h.index {
		if !keep(rnti) {
			drop = append(drop, rnti)
		}
	}
	for _, rnti := range drop {
		h.Remove(rnti)
	}
	return len(drop)
}

// RNTIs returns the stored UE identities in ascending order.
func (h *HistoryStore) RNTIs() []uint16 {
	out := make([]uint16, 0, len(h.index))
	for rnti := range h.index {
		out = append(out, rnti)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
