package engine

import (
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

const maxCountdown = 511

// wall applies an event to the texts and sensors of one wall square.
// Texts and launchers react only on the event's cell; counters, gates and
// end-game sensors react on any cell.
func (e *Engine) wall(ev timeline.Event) error {
	l, sq, p := e.squareEvent(ev)
	if sq == nil || sq.Element != dungeon.ElementWall {
		return nil
	}
	setTexts(sq.TextsOn(p.Cell), p.Effect)

	for _, s := range sq.Sensors {
		if s.Disabled {
			continue
		}
		var cond bool
		switch {
		case s.Type == dungeon.SensorCountdown:
			cond = countdown(s, p.Effect)
		case s.Type == dungeon.SensorGate:
			cond = gate(s, p.Cell, p.Effect)
		case s.Type.IsLauncher():
			if s.Cell != p.Cell || p.Effect == timeline.EffectClear {
				continue
			}
			if err := e.launch(l, s); err != nil {
				return err
			}
			if s.OnlyOnce {
				s.Disabled = true
			}
			continue
		case s.Type == dungeon.SensorEndGame:
			e.ended = true
			e.ending.End()
			continue
		default:
			continue
		}
		effect, fire := sensorEffect(s, cond)
		if !fire {
			continue
		}
		if err := e.triggerEffect(l, s, effect); err != nil {
			return err
		}
		if s.OnlyOnce {
			s.Disabled = true
		}
	}
	return nil
}

// sensorEffect decides what a countdown or gate sends. Revert inverts the
// condition. A Hold sensor sends Set or Clear on every event so its target
// follows the condition; other sensors send their effect only when it holds.
func sensorEffect(s *dungeon.Sensor, cond bool) (timeline.Effect, bool) {
	set := cond != s.Revert
	if s.Effect == timeline.EffectHold {
		if set {
			return timeline.EffectSet, true
		}
		return timeline.EffectClear, true
	}
	return s.Effect, set
}

// countdown counts down on Set and Toggle and back up on Clear. It holds
// while the count is zero, so further Sets at zero fire again.
func countdown(s *dungeon.Sensor, effect timeline.Effect) bool {
	if effect == timeline.EffectClear {
		if s.Data < maxCountdown {
			s.Data++
		}
	} else if s.Data > 0 {
		s.Data--
	}
	return s.Data == 0
}

// gate keeps one input bit per wall cell in the low nibble and fires when
// the inputs match the pattern in the high nibble.
func gate(s *dungeon.Sensor, cell uint8, effect timeline.Effect) bool {
	bit := uint16(1) << (cell & 3)
	switch effect {
	case timeline.EffectToggle:
		s.Data ^= bit
	case timeline.EffectClear:
		s.Data &^= bit
	default:
		s.Data |= bit
	}
	return s.Data&0xF == (s.Data>>4)&0xF
}

// triggerEffect sends effect to the sensor's target square, using the
// event type that matches the target's element.
func (e *Engine) triggerEffect(l dungeon.Location, s *dungeon.Sensor, effect timeline.Effect) error {
	target := dungeon.Location{Map: l.Map, X: s.TargetX, Y: s.TargetY}
	tsq := e.world.SquareAt(target)
	if tsq == nil {
		return nil
	}
	if s.Audible {
		e.audio.Play(SoundSwitch, l)
	}
	return e.schedule(timeline.Event{
		Type:    tsq.Element.EventType(),
		Time:    e.at(l.Map, s.Delay),
		Payload: timeline.SquarePayload{X: target.X, Y: target.Y, Cell: s.TargetCell, Effect: effect},
	})
}

// launch fires a launcher out of the wall side it is mounted on.
func (e *Engine) launch(l dungeon.Location, s *dungeon.Sensor) error {
	dir := dungeon.Direction(s.Cell & 3)
	start, ok := e.world.Neighbor(l, dir)
	if !ok {
		return nil
	}
	ssq := e.world.SquareAt(start)
	if ssq.Blocked() {
		return nil
	}
	shots := 1
	if s.Type.IsDouble() {
		shots = 2
	}
	power := s.Power
	if power == 0 {
		power = 1
	}
	for i := 0; i < shots; i++ {
		p := &dungeon.Projectile{Name: s.Kind, Energy: power, Attack: power}
		switch s.Type {
		case dungeon.SensorSingleLauncherExplosion, dungeon.SensorDoubleLauncherExplosion:
			kind, err := dungeon.ParseExplosionKind(s.Kind)
			if err != nil || kind == dungeon.ExplosionNone {
				e.logger.Printf("engine: launcher at %s: bad explosion %q", l, s.Kind)
				return nil
			}
			p.Kind = dungeon.ProjectileSpell
			p.Explosion = kind
		case dungeon.SensorSingleLauncherSquareObject, dungeon.SensorDoubleLauncherSquareObject:
			n := len(ssq.Items)
			if n == 0 {
				return nil
			}
			p.Name = ssq.Items[n-1]
			ssq.Items = ssq.Items[:n-1]
		}
		if err := e.LaunchProjectile(p, start, dir); err != nil {
			return err
		}
	}
	return nil
}
