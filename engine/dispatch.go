package engine

import (
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// ProcessTimeline fires every event due at the current tick. Handlers may
// schedule or cancel events; anything they add that is already due fires
// in the same call. The only error is a full timeline.
func (e *Engine) ProcessTimeline() error {
	for e.timeline.IsExpired(e.tick) {
		ev, err := e.timeline.ExtractFirst()
		if err != nil {
			return err
		}
		e.maps.SetCurrentMap(ev.Time.Map())
		err = e.dispatch(ev)
		e.maps.SetCurrentMap(e.maps.PartyMap())
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) dispatch(ev timeline.Event) error {
	if ev.Type.IsGroup() {
		return e.groupEvent(ev)
	}
	if ev.Type.IsDefense() {
		e.defenseExpired(ev)
		return nil
	}
	switch ev.Type {
	case timeline.TypeDoorAnimation:
		return e.doorAnimation(ev)
	case timeline.TypeDoorDestruction:
		e.doorDestruction(ev)
	case timeline.TypeCorridor:
		return e.corridor(ev)
	case timeline.TypeWall:
		return e.wall(ev)
	case timeline.TypeFakeWall:
		return e.fakeWall(ev)
	case timeline.TypeTeleporter:
		return e.teleporter(ev)
	case timeline.TypePit:
		return e.pit(ev)
	case timeline.TypeDoor:
		return e.door(ev)
	case timeline.TypeEnableChampionAction:
		e.enableChampionAction(ev)
	case timeline.TypeHideDamageReceived:
		e.hideDamageReceived(ev)
	case timeline.TypeViAltarRebirth:
		return e.viAltarRebirth(ev)
	case timeline.TypePlaySound:
		e.playSound(ev)
	case timeline.TypeRemoveFluxcage:
		e.removeFluxcage(ev)
	case timeline.TypeExplosion:
		return e.explosion(ev)
	case timeline.TypeMoveProjectileIgnoreImpacts, timeline.TypeMoveProjectile:
		return e.moveProjectile(ev)
	case timeline.TypeMoveGroupSilent, timeline.TypeMoveGroupAudible:
		return e.moveGroupEvent(ev)
	case timeline.TypeEnableGroupGenerator:
		e.enableGroupGenerator(ev)
	case timeline.TypeLight:
		return e.light(ev)
	case timeline.TypePoisonChampion:
		return e.poisonChampion(ev)
	default:
		e.debugf("engine: ignoring %s", ev)
	}
	return nil
}

// eventLocation returns the square an event targets on its own map.
func eventLocation(ev timeline.Event) (dungeon.Location, bool) {
	x, y, ok := ev.Location()
	return dungeon.Location{Map: ev.Time.Map(), X: x, Y: y}, ok
}

// squareEvent resolves a square event to its location, square and payload.
func (e *Engine) squareEvent(ev timeline.Event) (dungeon.Location, *dungeon.Square, timeline.SquarePayload) {
	p, _ := ev.Square()
	l := dungeon.Location{Map: ev.Time.Map(), X: p.X, Y: p.Y}
	return l, e.world.SquareAt(l), p
}

// resolveToggle turns a Toggle effect into Clear when the square is in the
// set state, Set otherwise.
func resolveToggle(effect timeline.Effect, set bool) timeline.Effect {
	if effect != timeline.EffectToggle {
		return effect
	}
	if set {
		return timeline.EffectClear
	}
	return timeline.EffectSet
}
