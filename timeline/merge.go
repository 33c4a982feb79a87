package timeline

// merge applies the insertion policy for square events. It either folds ev
// into a pending event and returns that slot, or clears out conflicting
// events and lets the caller insert ev (possibly with an adjusted effect).
func (s *Scheduler) merge(ev *Event) (Slot, bool) {
	switch {
	case ev.Type.IsSpatial():
		return s.mergeSpatial(ev)
	case ev.Type == TypeDoorAnimation:
		return s.mergeDoorAnimation(ev)
	case ev.Type == TypeDoorDestruction:
		s.cancelDoorEvents(ev)
	}
	return NoSlot, false
}

func sameSquare(a, b *Event) bool {
	ax, ay, aok := a.Location()
	bx, by, bok := b.Location()
	return aok && bok && ax == bx && ay == by
}

func (s *Scheduler) mergeSpatial(ev *Event) (Slot, bool) {
	sq, _ := ev.Square()
	for i := range s.arena.events {
		cur := &s.arena.events[i]
		if cur.Time != ev.Time || !sameSquare(cur, ev) {
			continue
		}
		switch {
		case cur.Type.IsSpatial():
			csq, _ := cur.Square()
			if cur.Type == TypeWall && csq.Cell != sq.Cell {
				continue
			}
			csq.Effect = sq.Effect
			cur.Payload = csq
			return Slot(i), true
		case cur.Type == TypeDoorAnimation:
			csq, _ := cur.Square()
			if sq.Effect == EffectToggle {
				sq.Effect = csq.Effect.Invert()
				ev.Payload = sq
			}
			s.Cancel(Slot(i))
			return NoSlot, false
		}
	}
	return NoSlot, false
}

func (s *Scheduler) mergeDoorAnimation(ev *Event) (Slot, bool) {
	sq, _ := ev.Square()
	for i := range s.arena.events {
		cur := &s.arena.events[i]
		if cur.Time != ev.Time || !sameSquare(cur, ev) {
			continue
		}
		csq, _ := cur.Square()
		switch cur.Type {
		case TypeDoor:
			if csq.Effect == EffectToggle {
				csq.Effect = sq.Effect.Invert()
				cur.Payload = csq
			}
			return Slot(i), true
		case TypeDoorAnimation:
			csq.Effect = sq.Effect
			cur.Payload = csq
			return Slot(i), true
		}
	}
	return NoSlot, false
}

// cancelDoorEvents drops every pending door or door animation event on the
// destroyed door's square, whatever its tick.
func (s *Scheduler) cancelDoorEvents(ev *Event) {
	s.CancelWhere(func(cur Event) bool {
		if cur.Type != TypeDoor && cur.Type != TypeDoorAnimation {
			return false
		}
		return cur.Time.Map() == ev.Time.Map() && sameSquare(&cur, ev)
	})
}
