package engine

import (
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// door turns a door event into a door animation unless the door already
// is where the effect wants it. Set closes and Clear opens; Toggle closes
// an open door and opens any other.
func (e *Engine) door(ev timeline.Event) error {
	_, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementDoor || sq.DoorState == dungeon.DoorDestroyed {
		return nil
	}
	p.Effect = resolveToggle(p.Effect, sq.DoorState != dungeon.DoorOpen)
	switch {
	case p.Effect == timeline.EffectSet && sq.DoorState == dungeon.DoorClosed,
		p.Effect == timeline.EffectClear && sq.DoorState == dungeon.DoorOpen,
		p.Effect == timeline.EffectHold:
		return nil
	}
	ev.Type = timeline.TypeDoorAnimation
	ev.Payload = p
	return e.schedule(ev)
}

// doorStep is what a moving door runs into on one animation tick.
type doorStep uint8

const (
	doorFinished doorStep = iota
	doorBlockedByParty
	doorBlockedByGroup
	doorMoves
)

func (e *Engine) observeDoor(l dungeon.Location, sq *dungeon.Square, closing bool) (doorStep, *dungeon.Group) {
	target := dungeon.DoorOpen
	if closing {
		target = dungeon.DoorClosed
	}
	if sq.DoorState == target {
		return doorFinished, nil
	}
	if !closing {
		return doorMoves, nil
	}
	if e.world.PartyAt(l) && sq.DoorState != dungeon.DoorOpen {
		return doorBlockedByParty, nil
	}
	if g := e.world.GroupAt(l); g != nil {
		cr := e.cfg.Creature(g.Kind)
		height := dungeon.DoorState(1)
		if sq.Vertical {
			height = dungeon.DoorState(cr.Height)
		}
		if !cr.Incorporeal && sq.DoorState >= height {
			return doorBlockedByGroup, g
		}
	}
	return doorMoves, nil
}

// doorAnimation moves a door one step per tick toward closed (Set) or
// open (Clear). A door closing on the party springs back open and hurts
// it; one closing on a creature hurts the creatures, alerts them and backs
// off a step. Blocked doors try again two ticks later.
func (e *Engine) doorAnimation(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementDoor || sq.DoorState == dungeon.DoorDestroyed {
		return nil
	}
	ev.Time = ev.Time.Add(1)
	effect := resolveToggle(p.Effect, sq.DoorState != dungeon.DoorOpen)
	if effect == timeline.EffectHold {
		return nil
	}
	closing := effect == timeline.EffectSet

	step, g := e.observeDoor(l, sq, closing)
	switch step {
	case doorFinished:
		return nil
	case doorBlockedByParty:
		sq.DoorState = dungeon.DoorOpen
		if e.world.Party.DamageAll(e.cfg.Doors.PartyDamage) > 0 {
			e.audio.Play(SoundPartyDamaged, l)
			e.status.RefreshParty()
		}
		e.renderer.RefreshSquare(l)
		ev.Time = ev.Time.Add(1)
		return e.schedule(ev)
	case doorBlockedByGroup:
		if err := e.damageGroup(g, e.cfg.Doors.CreatureDamage, timeline.TypeGroupReactionDangerOnSquare); err != nil {
			return err
		}
		if sq.DoorState > dungeon.DoorOpen {
			sq.DoorState--
		}
		e.renderer.RefreshSquare(l)
		ev.Time = ev.Time.Add(1)
		return e.schedule(ev)
	}

	if closing {
		sq.DoorState++
	} else {
		sq.DoorState--
	}
	e.audio.Play(SoundDoorRattle, l)
	e.renderer.RefreshSquare(l)
	if (closing && sq.DoorState == dungeon.DoorClosed) || (!closing && sq.DoorState == dungeon.DoorOpen) {
		return nil
	}
	return e.schedule(ev)
}

func (e *Engine) doorDestruction(ev timeline.Event) {
	l, sq, _ := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementDoor {
		return
	}
	sq.DoorState = dungeon.DoorDestroyed
	e.renderer.RefreshSquare(l)
}
