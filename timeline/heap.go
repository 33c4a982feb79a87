package timeline

import "fmt"

// heapIndex orders arena slots chronologically. order[:n] is a binary heap
// and pos maps a slot back to its heap position (-1 when not queued).
type heapIndex struct {
	order []Slot
	pos   []int
	n     int
}

func newHeapIndex(capacity int) heapIndex {
	h := heapIndex{
		order: make([]Slot, capacity),
		pos:   make([]int, capacity),
	}
	for i := range h.pos {
		h.pos[i] = -1
	}
	return h
}

// before is the chronology comparator: earlier tick first, then higher
// priority, then lower slot. It is a strict total order over live slots.
func (s *Scheduler) before(a, b Slot) bool {
	ea, eb := &s.arena.events[a], &s.arena.events[b]
	ta, tb := ea.Time.Tick(), eb.Time.Tick()
	if ta != tb {
		return ta < tb
	}
	if ea.Priority != eb.Priority {
		return ea.Priority > eb.Priority
	}
	return a < b
}

func (s *Scheduler) place(p int, slot Slot) {
	s.heap.order[p] = slot
	s.heap.pos[slot] = p
}

// fixChronology restores heap order around position p. The entry first
// moves toward the root while it beats its parent; if it did not move it
// sinks toward the leaves, following the earlier child.
func (s *Scheduler) fixChronology(p int) {
	h := &s.heap
	slot := h.order[p]
	moved := false
	for p > 0 {
		parent := (p - 1) / 2
		if !s.before(slot, h.order[parent]) {
			break
		}
		s.place(p, h.order[parent])
		p = parent
		moved = true
	}
	if !moved {
		for {
			child := 2*p + 1
			if child >= h.n {
				break
			}
			if child+1 < h.n && s.before(h.order[child+1], h.order[child]) {
				child++
			}
			if !s.before(h.order[child], slot) {
				break
			}
			s.place(p, h.order[child])
			p = child
		}
	}
	s.place(p, slot)
}

func (s *Scheduler) heapInsert(slot Slot) {
	p := s.heap.n
	s.heap.n++
	s.place(p, slot)
	s.fixChronology(p)
}

// heapDeleteAt drops the entry at p by moving the last entry into its place.
func (s *Scheduler) heapDeleteAt(p int) {
	h := &s.heap
	h.pos[h.order[p]] = -1
	h.n--
	if p == h.n {
		return
	}
	s.place(p, h.order[h.n])
	s.fixChronology(p)
}

// indexOf returns the heap position of an active slot. Every active slot is
// queued, so a miss means the scheduler state is corrupt.
func (s *Scheduler) indexOf(slot Slot) int {
	p := s.heap.pos[slot]
	if p < 0 || p >= s.heap.n || s.heap.order[p] != slot {
		panic(fmt.Sprintf("timeline: slot %d is active but not in the heap index", slot))
	}
	return p
}
