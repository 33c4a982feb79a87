// Package timeline schedules dungeon world events on a fixed capacity
// arena ordered by a binary heap.
//
// A Scheduler is not safe for concurrent use. Handlers may call Add and
// Cancel while a dispatch loop is draining it because the loop re-checks
// IsExpired after every event.
package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrNotScheduled = errors.New("timeline: slot is not scheduled")
	ErrNoType       = errors.New("timeline: event has no type")
	ErrCorrupt      = errors.New("timeline: corrupt state")
)

// Scheduler owns the event arena and its heap index.
type Scheduler struct {
	arena arena
	heap  heapIndex
}

// New returns an empty scheduler holding at most capacity events.
func New(capacity int) *Scheduler {
	if capacity < 0 {
		capacity = 0
	}
	return &Scheduler{
		arena: newArena(capacity),
		heap:  newHeapIndex(capacity),
	}
}

// Cap returns the arena capacity.
func (s *Scheduler) Cap() int {
	return s.arena.capacity()
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int {
	return s.arena.count
}

// Add schedules ev and returns its slot. Square events that coincide with a
// pending one may be merged into it, in which case the existing slot is
// returned. A full arena is fatal for the caller and leaves state untouched.
func (s *Scheduler) Add(ev Event) (Slot, error) {
	if ev.Type == TypeNone {
		return NoSlot, ErrNoType
	}
	ev, err := normalize(ev)
	if err != nil {
		return NoSlot, fmt.Errorf("timeline: add %s: %w", ev.Type, err)
	}
	if s.arena.full() {
		return NoSlot, fmt.Errorf("%w: %d of %d slots in use", ErrTimelineFull, s.arena.count, s.arena.capacity())
	}
	if slot, merged := s.merge(&ev); merged {
		return slot, nil
	}
	slot := s.arena.add(ev)
	s.heapInsert(slot)
	return slot, nil
}

// Cancel removes a pending event. It reports whether anything was removed;
// cancelling a free slot is a no-op.
func (s *Scheduler) Cancel(slot Slot) bool {
	if !s.arena.active(slot) {
		return false
	}
	s.heapDeleteAt(s.indexOf(slot))
	s.arena.remove(slot)
	return true
}

// IsExpired reports whether the earliest pending event is due at tick.
func (s *Scheduler) IsExpired(tick uint32) bool {
	if s.heap.n == 0 {
		return false
	}
	return s.arena.events[s.heap.order[0]].Time.Tick() <= tick
}

// Peek returns the earliest pending event without removing it.
func (s *Scheduler) Peek() (Event, Slot, bool) {
	if s.heap.n == 0 {
		return Event{}, NoSlot, false
	}
	slot := s.heap.order[0]
	return s.arena.events[slot], slot, true
}

// ExtractFirst removes and returns the earliest pending event. Callers gate
// it with IsExpired; on an empty scheduler it returns ErrEmpty.
func (s *Scheduler) ExtractFirst() (Event, error) {
	if s.heap.n == 0 {
		return Event{}, ErrEmpty
	}
	slot := s.heap.order[0]
	ev := s.arena.events[slot]
	s.heapDeleteAt(0)
	s.arena.remove(slot)
	return ev, nil
}

// Get returns the event stored in slot.
func (s *Scheduler) Get(slot Slot) (Event, bool) {
	if !s.arena.active(slot) {
		return Event{}, false
	}
	return s.arena.events[slot], true
}

// Each calls fn for every pending event in slot order until fn returns
// false. fn may cancel the slot it is given.
func (s *Scheduler) Each(fn func(Slot, Event) bool) {
	for i := range s.arena.events {
		ev := s.arena.events[i]
		if ev.Type == TypeNone {
			continue
		}
		if !fn(Slot(i), ev) {
			return
		}
	}
}

// CancelWhere cancels every pending event matching pred and returns how
// many were removed.
func (s *Scheduler) CancelWhere(pred func(Event) bool) int {
	removed := 0
	for i := range s.arena.events {
		if s.arena.events[i].Type == TypeNone || !pred(s.arena.events[i]) {
			continue
		}
		if s.Cancel(Slot(i)) {
			removed++
		}
	}
	return removed
}

// Update edits a pending event in place and restores chronology. Merging
// is not re-applied. Setting the type to TypeNone cancels the event.
func (s *Scheduler) Update(slot Slot, fn func(*Event)) error {
	if !s.arena.active(slot) {
		return ErrNotScheduled
	}
	ev := s.arena.events[slot]
	fn(&ev)
	if ev.Type == TypeNone {
		s.Cancel(slot)
		return nil
	}
	ev, err := normalize(ev)
	if err != nil {
		return fmt.Errorf("timeline: update slot %d: %w", slot, err)
	}
	s.arena.events[slot] = ev
	s.fixChronology(s.indexOf(slot))
	return nil
}

// Pending returns the pending events in firing order without changing the
// scheduler.
func (s *Scheduler) Pending() []Event {
	c := s.Clone()
	out := make([]Event, 0, c.Len())
	for c.Len() > 0 {
		ev, _ := c.ExtractFirst()
		out = append(out, ev)
	}
	return out
}

// Clone returns an independent copy.
func (s *Scheduler) Clone() *Scheduler {
	c := &Scheduler{
		arena: arena{
			events:    append([]Event(nil), s.arena.events...),
			firstFree: s.arena.firstFree,
			count:     s.arena.count,
		},
		heap: heapIndex{
			order: append([]Slot(nil), s.heap.order...),
			pos:   append([]int(nil), s.heap.pos...),
			n:     s.heap.n,
		},
	}
	return c
}

// Check verifies every structural invariant and returns the first
// violation found.
func (s *Scheduler) Check() error {
	a, h := &s.arena, &s.heap
	active := 0
	for i := range a.events {
		if a.events[i].Type != TypeNone {
			active++
		}
	}
	if active != a.count || active != h.n {
		return fmt.Errorf("%w: %d active slots, count %d, heap length %d", ErrCorrupt, active, a.count, h.n)
	}
	if a.firstFree < len(a.events) && a.events[a.firstFree].Type != TypeNone {
		return fmt.Errorf("%w: first free slot %d is in use", ErrCorrupt, a.firstFree)
	}
	for i := 0; i < a.firstFree && i < len(a.events); i++ {
		if a.events[i].Type == TypeNone {
			return fmt.Errorf("%w: slot %d is free but below the free cursor %d", ErrCorrupt, i, a.firstFree)
		}
	}
	seen := make(map[Slot]bool, h.n)
	for p := 0; p < h.n; p++ {
		slot := h.order[p]
		if !a.active(slot) {
			return fmt.Errorf("%w: heap position %d holds free slot %d", ErrCorrupt, p, slot)
		}
		if seen[slot] {
			return fmt.Errorf("%w: slot %d queued twice", ErrCorrupt, slot)
		}
		seen[slot] = true
		if h.pos[slot] != p {
			return fmt.Errorf("%w: slot %d maps to position %d, found at %d", ErrCorrupt, slot, h.pos[slot], p)
		}
		if p > 0 && s.before(slot, h.order[(p-1)/2]) {
			return fmt.Errorf("%w: heap order broken at position %d", ErrCorrupt, p)
		}
	}
	return nil
}
