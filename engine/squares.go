package engine

import (
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// setTexts applies a square effect to texts: Toggle flips them, Set
// shows them and Clear hides them.
func setTexts(texts []*dungeon.Text, effect timeline.Effect) {
	for _, t := range texts {
		if effect == timeline.EffectToggle {
			t.Visible = !t.Visible
			continue
		}
		t.Visible = effect == timeline.EffectSet
	}
}

func (e *Engine) corridor(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element == dungeon.ElementWall {
		return nil
	}
	setTexts(sq.Texts, p.Effect)
	for _, s := range sq.Sensors {
		if s.Type != dungeon.SensorGroupGenerator || s.Disabled {
			continue
		}
		if err := e.generateGroup(l, s); err != nil {
			return err
		}
	}
	return nil
}

// rearmDelay expands a generator's rearm setting into ticks. Values above
// 127 count in units of 64 ticks.
func rearmDelay(ticks uint8) uint32 {
	if ticks > 127 {
		return uint32(ticks-126) << 6
	}
	return uint32(ticks)
}

func (e *Engine) generateGroup(l dungeon.Location, s *dungeon.Sensor) error {
	if e.world.GroupAt(l) == nil && !e.world.PartyAt(l) {
		count := int(s.Count)
		if count < 1 {
			count = 1
		}
		if s.RandomCount {
			count = 1 + e.rng.IntN(count)
		}
		if count > dungeon.MaxCreatures {
			count = dungeon.MaxCreatures
		}
		multiplier := int(s.HealthMultiplier)
		if multiplier == 0 {
			multiplier = int(e.world.Map(l.Map).Difficulty)
		}
		if multiplier == 0 {
			multiplier = 1
		}
		cr := e.cfg.Creature(s.Kind)
		g := &dungeon.Group{Kind: s.Kind, Location: l, Health: make([]int, count)}
		for i := range g.Health {
			g.Health[i] = cr.Health * multiplier
		}
		if _, err := e.world.AddGroup(g); err != nil {
			e.logger.Printf("engine: generator at %s: %v", l, err)
		} else {
			if err := e.startGroup(g); err != nil {
				return err
			}
			e.renderer.RefreshSquare(l)
			if s.Audible {
				e.audio.Play(SoundBuzz, l)
			}
		}
	}

	switch {
	case s.OnlyOnce:
		s.Disabled = true
	case s.RearmTicks > 0:
		s.Disabled = true
		return e.schedule(timeline.Event{
			Type:    timeline.TypeEnableGroupGenerator,
			Time:    e.at(l.Map, rearmDelay(s.RearmTicks)),
			Payload: timeline.LocationPayload{X: l.X, Y: l.Y},
		})
	}
	return nil
}

func (e *Engine) enableGroupGenerator(ev timeline.Event) {
	l, ok := eventLocation(ev)
	sq := e.world.SquareAt(l)
	if !ok || sq == nil {
		return
	}
	for _, s := range sq.Sensors {
		if s.Type == dungeon.SensorGroupGenerator && !s.OnlyOnce {
			s.Disabled = false
		}
	}
}

// fakeWall opens (Set) or closes (Clear) a fake wall. It will not close
// on the party or a group and retries a tick later instead.
func (e *Engine) fakeWall(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementFakeWall {
		return nil
	}
	switch resolveToggle(p.Effect, sq.Open) {
	case timeline.EffectSet:
		sq.Open = true
	case timeline.EffectClear:
		if e.world.PartyAt(l) || e.world.GroupAt(l) != nil {
			ev.Time = ev.Time.Add(1)
			return e.schedule(ev)
		}
		sq.Open = false
	default:
		return nil
	}
	e.renderer.RefreshSquare(l)
	return nil
}

func (e *Engine) pit(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementPit {
		return nil
	}
	switch resolveToggle(p.Effect, sq.Open) {
	case timeline.EffectSet:
		sq.Open = true
		e.renderer.RefreshSquare(l)
		return e.dropOccupants(l)
	case timeline.EffectClear:
		sq.Open = false
		e.renderer.RefreshSquare(l)
	}
	return nil
}

func (e *Engine) teleporter(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementTeleporter {
		return nil
	}
	switch resolveToggle(p.Effect, sq.Open) {
	case timeline.EffectSet:
		sq.Open = true
		e.renderer.RefreshSquare(l)
		return e.teleportOccupants(l, sq.Destination)
	case timeline.EffectClear:
		sq.Open = false
		e.renderer.RefreshSquare(l)
	}
	return nil
}

// dropOccupants sends whatever stands on an open pit to the map below.
func (e *Engine) dropOccupants(l dungeon.Location) error {
	below, ok := e.world.Below(l)
	if !ok {
		return nil
	}
	if e.world.PartyAt(l) {
		e.moveParty(below)
		if e.world.Party.DamageAll(e.cfg.Pits.FallDamage) > 0 {
			e.audio.Play(SoundPartyDamaged, below)
		}
	}
	if g := e.world.GroupAt(l); g != nil {
		return e.relocateGroup(g, below, timeline.TypeMoveGroupSilent)
	}
	return nil
}

func (e *Engine) teleportOccupants(l, dest dungeon.Location) error {
	if e.world.SquareAt(dest) == nil || dest == l {
		return nil
	}
	if e.world.PartyAt(l) {
		e.moveParty(dest)
	}
	if g := e.world.GroupAt(l); g != nil {
		return e.relocateGroup(g, dest, timeline.TypeMoveGroupSilent)
	}
	return nil
}

func (e *Engine) moveParty(to dungeon.Location) {
	e.world.Party.MoveTo(to)
	e.status.RefreshParty()
	e.renderer.RefreshPalette(e.world.Party.MagicalLightAmount)
}
