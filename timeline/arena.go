package timeline

// arena is fixed capacity event storage. Free slots are the ones whose type
// is TypeNone; firstFree always points at the lowest such slot, or at
// len(events) when the arena is full.
type arena struct {
	events    []Event
	firstFree int
	count     int
}

func newArena(capacity int) arena {
	if capacity < 0 {
		capacity = 0
	}
	return arena{events: make([]Event, capacity)}
}

func (a *arena) capacity() int {
	return len(a.events)
}

func (a *arena) full() bool {
	return a.firstFree >= len(a.events)
}

func (a *arena) active(s Slot) bool {
	return s >= 0 && int(s) < len(a.events) && a.events[s].Type != TypeNone
}

// add stores ev in the first free slot and advances the cursor to the next
// free one. The caller checks full() first.
func (a *arena) add(ev Event) Slot {
	s := Slot(a.firstFree)
	a.events[s] = ev
	a.count++
	a.firstFree++
	for a.firstFree < len(a.events) && a.events[a.firstFree].Type != TypeNone {
		a.firstFree++
	}
	return s
}

// remove frees s. The cursor rewinds so the earliest free slot is reused first.
func (a *arena) remove(s Slot) {
	if !a.active(s) {
		return
	}
	a.events[s] = Event{}
	a.count--
	if int(s) < a.firstFree {
		a.firstFree = int(s)
	}
}

// resync recomputes count and firstFree from slot contents.
func (a *arena) resync() {
	a.count = 0
	a.firstFree = len(a.events)
	for i := range a.events {
		if a.events[i].Type == TypeNone {
			if i < a.firstFree {
				a.firstFree = i
			}
			continue
		}
		a.count++
	}
}
