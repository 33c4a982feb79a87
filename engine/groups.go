package engine

import (
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// groupPriority ranks group events: faster creatures act first.
func groupPriority(movementTicks uint16) uint8 {
	if movementTicks > 255 {
		return 0
	}
	return uint8(255 - movementTicks)
}

func (e *Engine) groupEventAt(typ timeline.Type, g *dungeon.Group, delay uint32) timeline.Event {
	cr := e.cfg.Creature(g.Kind)
	return timeline.Event{
		Type:     typ,
		Time:     e.at(g.Location.Map, delay),
		Priority: groupPriority(cr.MovementTicks),
		Payload:  timeline.GroupPayload{X: g.Location.X, Y: g.Location.Y, Ticks: uint16(delay)},
	}
}

// startGroup schedules the first behavior and aspect updates of a group.
func (e *Engine) startGroup(g *dungeon.Group) error {
	cr := e.cfg.Creature(g.Kind)
	if err := e.schedule(e.groupEventAt(timeline.TypeUpdateBehaviourGroup, g, uint32(cr.MovementTicks))); err != nil {
		return err
	}
	if cr.AspectTicks == 0 {
		return nil
	}
	return e.schedule(e.groupEventAt(timeline.TypeUpdateAspectGroup, g, uint32(cr.AspectTicks)))
}

// ReactGroup makes a group react to something after the reaction delay.
func (e *Engine) ReactGroup(g *dungeon.Group, typ timeline.Type) error {
	if !typ.IsGroup() {
		return nil
	}
	return e.schedule(e.groupEventAt(typ, g, e.cfg.Groups.ReactionTicks))
}

// deleteGroupEvents cancels the reaction and update events aimed at l.
func (e *Engine) deleteGroupEvents(l dungeon.Location) int {
	return e.timeline.CancelWhere(func(ev timeline.Event) bool {
		el, _ := eventLocation(ev)
		return ev.Type.IsGroup() && el == l
	})
}

// retargetGroupEvents points the pending reaction and update events of a
// group that moved from one square to another at its new square.
func (e *Engine) retargetGroupEvents(from, to dungeon.Location) {
	var slots []timeline.Slot
	e.timeline.Each(func(slot timeline.Slot, ev timeline.Event) bool {
		if l, _ := eventLocation(ev); ev.Type.IsGroup() && l == from {
			slots = append(slots, slot)
		}
		return true
	})
	for _, slot := range slots {
		err := e.timeline.Update(slot, func(ev *timeline.Event) {
			gp, _ := ev.Payload.(timeline.GroupPayload)
			gp.X, gp.Y = to.X, to.Y
			ev.Payload = gp
			ev.Time = timeline.At(to.Map, ev.Time.Tick())
		})
		if err != nil {
			e.logger.Printf("engine: retarget group event: %v", err)
		}
	}
}

func (e *Engine) occupied(l dungeon.Location) bool {
	return e.world.PartyAt(l) || e.world.GroupAt(l) != nil
}

// canEnter reports whether a group may step onto l right now.
func (e *Engine) canEnter(l dungeon.Location) bool {
	sq := e.world.SquareAt(l)
	return sq != nil && sq.Element.Passable() && !sq.Blocked() && !e.occupied(l) &&
		len(e.world.ExplosionsAt(l, dungeon.ExplosionFluxcage)) == 0
}

// moveGroup puts g on to and carries its pending events along.
func (e *Engine) moveGroup(g *dungeon.Group, to dungeon.Location) {
	from := g.Location
	e.retargetGroupEvents(from, to)
	g.Location = to
	g.LastMoveTick = e.tick
	e.renderer.RefreshSquare(from)
	e.renderer.RefreshSquare(to)
}

// relocateGroup moves g to to when it is free, and otherwise leaves a move
// event to try again.
func (e *Engine) relocateGroup(g *dungeon.Group, to dungeon.Location, typ timeline.Type) error {
	if e.canEnter(to) {
		e.moveGroup(g, to)
		return nil
	}
	return e.schedule(timeline.Event{
		Type:    typ,
		Time:    e.at(to.Map, 1),
		Payload: timeline.ThingPayload{X: to.X, Y: to.Y, Thing: uint16(g.ID)},
	})
}

// moveGroupEvent moves a group to the event's square. If the square is
// taken, creatures that retry may take a random neighbor one time in four
// when it is a corridor, teleporter, pit or door they can enter; otherwise
// the move waits and tries again.
func (e *Engine) moveGroupEvent(ev timeline.Event) error {
	tp, _ := ev.Payload.(timeline.ThingPayload)
	g := e.world.Group(dungeon.Thing(tp.Thing))
	if g == nil {
		return nil
	}
	dest, _ := eventLocation(ev)
	sq := e.world.SquareAt(dest)
	if sq == nil || !sq.Element.Passable() || g.Location == dest {
		return nil
	}
	if !e.canEnter(dest) {
		if e.cfg.Creature(g.Kind).RetryMove && e.rng.IntN(4) == 0 {
			alt, ok := e.world.Neighbor(dest, dungeon.Direction(e.rng.IntN(4)))
			if ok && retryElement(e.world.SquareAt(alt).Element) && e.canEnter(alt) {
				e.moveGroup(g, alt)
				e.moveCue(ev.Type, alt)
				return nil
			}
		}
		ev.Time = ev.Time.Add(e.cfg.Groups.MoveRetryTicks)
		return e.schedule(ev)
	}
	e.moveGroup(g, dest)
	e.moveCue(ev.Type, dest)
	return nil
}

func retryElement(el dungeon.Element) bool {
	switch el {
	case dungeon.ElementCorridor, dungeon.ElementTeleporter, dungeon.ElementPit, dungeon.ElementDoor:
		return true
	}
	return false
}

func (e *Engine) moveCue(typ timeline.Type, l dungeon.Location) {
	if typ == timeline.TypeMoveGroupAudible {
		e.audio.Play(SoundGroupMove, l)
	}
}

// damageGroup hurts every creature in g. A wiped out group is removed
// with its events; survivors react with typ.
func (e *Engine) damageGroup(g *dungeon.Group, amount int, typ timeline.Type) error {
	if amount > 0 {
		g.Damage(amount)
		e.audio.Play(SoundCreatureDamaged, g.Location)
	}
	if g.Count() == 0 {
		e.deleteGroupEvents(g.Location)
		e.world.RemoveGroup(g.ID)
		e.renderer.RefreshSquare(g.Location)
		return nil
	}
	e.renderer.RefreshGroup(g)
	return e.ReactGroup(g, typ)
}

func isReaction(t timeline.Type) bool {
	switch t {
	case timeline.TypeGroupReactionDangerOnSquare, timeline.TypeGroupReactionHitByProjectile, timeline.TypeGroupReactionPartyIsAdjacent:
		return true
	}
	return false
}

// groupEvent handles the shared group range: reactions, aspect updates and
// behavior updates.
func (e *Engine) groupEvent(ev timeline.Event) error {
	l, _ := eventLocation(ev)
	g := e.world.GroupAt(l)
	if g == nil {
		return nil
	}
	cr := e.cfg.Creature(g.Kind)

	if partyMap := e.world.PartyMap(); l.Map != partyMap {
		switch ev.Type {
		case timeline.TypeUpdateAspectGroup, timeline.TypeUpdateAspectCreature0,
			timeline.TypeUpdateBehaviourGroup, timeline.TypeUpdateBehaviourCreature0:
		default:
			return nil
		}
		// Away from the party groups only wander, more slowly the further
		// away they are.
		e.wander(g)
		distance := int(l.Map) - int(partyMap)
		if distance < 0 {
			distance = -distance
		}
		delay := uint32(distance) << e.cfg.Groups.OffMapShift
		if slow := uint32(cr.MovementTicks) << 1; slow > delay {
			delay = slow
		}
		return e.schedule(e.groupEventAt(timeline.TypeUpdateBehaviourGroup, g, delay))
	}

	if e.world.Party.FreezeLifeTicks > 0 && !isReaction(ev.Type) {
		ev.Time = ev.Time.Add(e.cfg.Groups.FreezeRetryTicks)
		return e.schedule(ev)
	}

	switch ev.Type {
	case timeline.TypeGroupReactionPartyIsAdjacent:
		g.Behavior = dungeon.BehaviorAttack
		e.deleteGroupEvents(l)
		if err := e.startGroupAspect(g); err != nil {
			return err
		}
		return e.schedule(e.groupEventAt(timeline.TypeUpdateBehaviourGroup, g, 1))
	case timeline.TypeGroupReactionHitByProjectile:
		if e.rng.IntN(4) != 0 {
			return nil
		}
		fallthrough
	case timeline.TypeGroupReactionDangerOnSquare:
		if g.Behavior == dungeon.BehaviorAttack {
			g.Behavior = dungeon.BehaviorApproach
		}
		e.wander(g)
		return nil
	case timeline.TypeUpdateAspectGroup, timeline.TypeUpdateAspectCreature0, timeline.TypeUpdateAspectCreature1,
		timeline.TypeUpdateAspectCreature2, timeline.TypeUpdateAspectCreature3:
		return e.updateAspect(g, ev)
	}
	return e.behave(g, ev)
}

func (e *Engine) startGroupAspect(g *dungeon.Group) error {
	cr := e.cfg.Creature(g.Kind)
	if cr.AspectTicks == 0 {
		return nil
	}
	return e.schedule(e.groupEventAt(timeline.TypeUpdateAspectGroup, g, uint32(cr.AspectTicks)))
}

// updateAspect advances the animation frame of the whole group or of one
// creature and keeps animating.
func (e *Engine) updateAspect(g *dungeon.Group, ev timeline.Event) error {
	if ev.Type == timeline.TypeUpdateAspectGroup {
		for i := 0; i < g.Count(); i++ {
			g.Aspect[i]++
		}
	} else {
		i := int(ev.Type - timeline.TypeUpdateAspectCreature0)
		if i >= g.Count() {
			return nil
		}
		g.Aspect[i]++
	}
	e.renderer.RefreshGroup(g)
	cr := e.cfg.Creature(g.Kind)
	if cr.AspectTicks == 0 {
		return nil
	}
	next := e.groupEventAt(ev.Type, g, uint32(cr.AspectTicks))
	next.Priority = ev.Priority
	return e.schedule(next)
}

func adjacent(a, b dungeon.Location) bool {
	if a.Map != b.Map {
		return false
	}
	dx, dy := int(a.X)-int(b.X), int(a.Y)-int(b.Y)
	return dx*dx+dy*dy == 1
}

// behave runs one behavior step: attack a neighboring party, otherwise
// move by the current behavior, then wait for the next step.
func (e *Engine) behave(g *dungeon.Group, ev timeline.Event) error {
	if ev.Type != timeline.TypeUpdateBehaviourGroup {
		i := int(ev.Type - timeline.TypeUpdateBehaviourCreature0)
		if i >= g.Count() {
			return nil
		}
	}
	cr := e.cfg.Creature(g.Kind)
	party := e.world.Party.Location()
	delay := uint32(cr.MovementTicks)

	if adjacent(g.Location, party) && e.world.Party.Alive() && e.world.Party.Invisibility == 0 {
		g.Behavior = dungeon.BehaviorAttack
		e.attackParty(g, cr.Attack)
		delay = e.cfg.Groups.AttackTicks
	} else {
		switch g.Behavior {
		case dungeon.BehaviorAttack:
			g.Behavior = dungeon.BehaviorApproach
			fallthrough
		case dungeon.BehaviorApproach:
			if err := e.stepToward(g, party, false); err != nil {
				return err
			}
		case dungeon.BehaviorFlee:
			if err := e.stepToward(g, party, true); err != nil {
				return err
			}
		default:
			e.wander(g)
		}
	}
	if e.world.Group(g.ID) == nil {
		return nil
	}
	next := e.groupEventAt(ev.Type, g, delay)
	return e.schedule(next)
}

func (e *Engine) attackParty(g *dungeon.Group, attack int) {
	var alive []int
	for i, c := range e.world.Party.Champions {
		if c.Alive() {
			alive = append(alive, i)
		}
	}
	if len(alive) == 0 {
		return
	}
	i := alive[e.rng.IntN(len(alive))]
	if e.world.Party.Champions[i].Damage(attack * g.Count()) {
		e.audio.Play(SoundPartyDamaged, e.world.Party.Location())
		e.status.RefreshChampion(i)
	}
}

// stepToward moves g one square toward target, or away from it when
// flee is set. A taken square becomes a move event that waits its turn.
func (e *Engine) stepToward(g *dungeon.Group, target dungeon.Location, flee bool) error {
	if target.Map != g.Location.Map {
		e.wander(g)
		return nil
	}
	dx, dy := int(target.X)-int(g.Location.X), int(target.Y)-int(g.Location.Y)
	if flee {
		dx, dy = -dx, -dy
	}
	var dir dungeon.Direction
	switch {
	case abs(dx) >= abs(dy) && dx > 0:
		dir = dungeon.East
	case abs(dx) >= abs(dy) && dx < 0:
		dir = dungeon.West
	case dy > 0:
		dir = dungeon.South
	case dy < 0:
		dir = dungeon.North
	default:
		return nil
	}
	to, ok := e.world.Neighbor(g.Location, dir)
	if !ok {
		return nil
	}
	sq := e.world.SquareAt(to)
	if !sq.Element.Passable() || sq.Blocked() || e.world.PartyAt(to) {
		return nil
	}
	typ := timeline.TypeMoveGroupAudible
	if e.cfg.Creature(g.Kind).Incorporeal {
		typ = timeline.TypeMoveGroupSilent
	}
	if err := e.relocateGroup(g, to, typ); err != nil {
		return err
	}
	if g.Location == to {
		e.moveCue(typ, to)
	}
	return nil
}

// wander moves g to a random enterable neighbor, if the one it picks is.
func (e *Engine) wander(g *dungeon.Group) {
	to, ok := e.world.Neighbor(g.Location, dungeon.Direction(e.rng.IntN(4)))
	if ok && e.canEnter(to) {
		e.moveGroup(g, to)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
