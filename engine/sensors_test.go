package engine

import (
	"testing"

	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

const sensorLevel = `
maps:
  - rows:
      - "#######"
      - "#..D..#"
      - "#.....#"
      - "#######"
    sensors:
      - {x: 0, y: 1, type: countdown, data: 2, target: {x: 3, y: 1}, effect: toggle, audible: true}
      - {x: 0, y: 2, type: single_launcher_explosion, cell: 1, kind: fireball, power: 40}
      - {x: 6, y: 2, type: gate, data: 48, target: {x: 3, y: 1}, effect: clear, only_once: true}
      - {x: 6, y: 1, type: end_game}
    texts:
      - {x: 6, y: 2, cell: 3, visible: false, message: "the gate remembers"}
party:
  map: 0
  x: 1
  y: 1
  champions:
    - {name: Halk, health: 90}
`

func wallEvent(x, y, cell uint8, tick uint32, effect timeline.Effect) timeline.Event {
	return timeline.Event{Type: timeline.TypeWall, Time: timeline.At(0, tick), Payload: timeline.SquarePayload{X: x, Y: y, Cell: cell, Effect: effect}}
}

func TestCountdown(t *testing.T) {
	cases := []struct {
		name    string
		data    uint16
		effect  timeline.Effect
		want    bool
		wantCnt uint16
	}{
		{"set_reaches_zero", 1, timeline.EffectSet, true, 0},
		{"set_counts_down", 3, timeline.EffectSet, false, 2},
		{"toggle_counts_down", 1, timeline.EffectToggle, true, 0},
		{"set_at_zero_fires_again", 0, timeline.EffectSet, true, 0},
		{"clear_counts_up", 0, timeline.EffectClear, false, 1},
		{"clear_saturates", maxCountdown, timeline.EffectClear, false, maxCountdown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &dungeon.Sensor{Type: dungeon.SensorCountdown, Data: c.data}
			if got := countdown(s, c.effect); got != c.want {
				t.Fatalf("countdown = %v, want %v", got, c.want)
			}
			if s.Data != c.wantCnt {
				t.Fatalf("count = %d, want %d", s.Data, c.wantCnt)
			}
		})
	}
}

func TestSensorEffect(t *testing.T) {
	cases := []struct {
		name   string
		effect timeline.Effect
		revert bool
		cond   bool
		want   timeline.Effect
		fire   bool
	}{
		{"fires_when_met", timeline.EffectToggle, false, true, timeline.EffectToggle, true},
		{"quiet_when_unmet", timeline.EffectToggle, false, false, timeline.EffectToggle, false},
		{"revert_fires_when_unmet", timeline.EffectClear, true, false, timeline.EffectClear, true},
		{"revert_quiet_when_met", timeline.EffectClear, true, true, timeline.EffectClear, false},
		{"hold_sets_when_met", timeline.EffectHold, false, true, timeline.EffectSet, true},
		{"hold_clears_when_unmet", timeline.EffectHold, false, false, timeline.EffectClear, true},
		{"hold_reverted", timeline.EffectHold, true, true, timeline.EffectClear, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &dungeon.Sensor{Effect: c.effect, Revert: c.revert}
			got, fire := sensorEffect(s, c.cond)
			if fire != c.fire || (fire && got != c.want) {
				t.Fatalf("sensorEffect = %s, %v; want %s, %v", got, fire, c.want, c.fire)
			}
		})
	}
}

func TestGate(t *testing.T) {
	cases := []struct {
		name   string
		data   uint16
		cell   uint8
		effect timeline.Effect
		want   bool
		bits   uint16
	}{
		{"first_input", 0x30, 0, timeline.EffectSet, false, 0x31},
		{"pattern_complete", 0x31, 1, timeline.EffectSet, true, 0x33},
		{"clear_breaks_pattern", 0x33, 0, timeline.EffectClear, false, 0x32},
		{"toggle_flips", 0x32, 1, timeline.EffectToggle, false, 0x30},
		{"empty_pattern_on_clear", 0x01, 0, timeline.EffectClear, true, 0x00},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &dungeon.Sensor{Type: dungeon.SensorGate, Data: c.data}
			if got := gate(s, c.cell, c.effect); got != c.want {
				t.Fatalf("gate = %v, want %v", got, c.want)
			}
			if s.Data != c.bits {
				t.Fatalf("bits = %#x, want %#x", s.Data, c.bits)
			}
		})
	}
}

func TestCountdownOpensDoor(t *testing.T) {
	e, rec := newTestEngine(t, sensorLevel)
	mustSchedule(t, e, wallEvent(0, 1, 1, 1, timeline.EffectSet))
	mustSchedule(t, e, wallEvent(0, 1, 2, 2, timeline.EffectSet))

	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	door := e.World().Square(3, 1)
	if door.DoorState != dungeon.DoorClosed || rec.count(SoundSwitch) != 0 {
		t.Fatalf("countdown fired early")
	}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if door.DoorState != dungeon.DoorThreeFourths {
		t.Fatalf("expected the door to start opening, got %s", door.DoorState)
	}
	if rec.count(SoundSwitch) != 1 {
		t.Fatalf("expected a switch cue, got %v", rec.sounds)
	}
}

func TestGateTriggersOnce(t *testing.T) {
	e, _ := newTestEngine(t, sensorLevel)
	mustSchedule(t, e, wallEvent(6, 2, 0, 1, timeline.EffectSet))
	mustSchedule(t, e, wallEvent(6, 2, 1, 2, timeline.EffectSet))
	if err := e.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	s := e.World().Square(6, 2).Sensors[0]
	if !s.Disabled {
		t.Fatalf("only-once gate should disable itself")
	}
	if got := e.World().Square(3, 1).DoorState; got != dungeon.DoorThreeFourths {
		t.Fatalf("expected the door to start opening, got %s", got)
	}
}

func TestWallTexts(t *testing.T) {
	cases := []struct {
		name   string
		cell   uint8
		effect timeline.Effect
		want   bool
	}{
		{"set_shows", 3, timeline.EffectSet, true},
		{"toggle_flips", 3, timeline.EffectToggle, true},
		{"clear_hides", 3, timeline.EffectClear, false},
		{"other_cell", 2, timeline.EffectSet, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, _ := newTestEngine(t, sensorLevel)
			mustSchedule(t, e, wallEvent(6, 2, c.cell, 1, c.effect))
			if err := e.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if got := e.World().Square(6, 2).Texts[0].Visible; got != c.want {
				t.Fatalf("visible = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTriggerEffectUsesTargetElement(t *testing.T) {
	cases := []struct {
		name   string
		x, y   uint8
		effect timeline.Effect
		typ    timeline.Type
	}{
		{"door", 3, 1, timeline.EffectToggle, timeline.TypeDoor},
		{"corridor", 2, 2, timeline.EffectClear, timeline.TypeCorridor},
		{"wall", 0, 0, timeline.EffectSet, timeline.TypeWall},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, _ := newTestEngine(t, sensorLevel)
			s := &dungeon.Sensor{TargetX: c.x, TargetY: c.y, TargetCell: 2, Delay: 5}
			if err := e.triggerEffect(dungeon.Location{X: 0, Y: 1}, s, c.effect); err != nil {
				t.Fatalf("triggerEffect: %v", err)
			}
			ev, _, ok := e.Scheduler().Peek()
			if !ok {
				t.Fatalf("nothing scheduled")
			}
			sq, _ := ev.Square()
			if ev.Type != c.typ || sq.Effect != c.effect || sq.Cell != 2 || ev.Time.Tick() != 5 {
				t.Fatalf("unexpected event %v", ev)
			}
		})
	}
}

func TestLauncherFireballKillsGroup(t *testing.T) {
	e, rec := newTestEngine(t, sensorLevel+`
groups:
  - {kind: rat, map: 0, x: 3, y: 2, health_each: 12}
`)
	mustSchedule(t, e, wallEvent(0, 2, 1, 1, timeline.EffectSet))
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	ps := e.World().Projectiles()
	if len(ps) != 1 || ps[0].Location != (dungeon.Location{X: 1, Y: 2}) || ps[0].Direction != dungeon.East {
		t.Fatalf("expected a fireball heading east from 1,2, got %+v", ps)
	}

	// Tick 2 moves to 2,2; tick 3 meets the rat on 3,2.
	if err := e.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if e.World().GroupAt(dungeon.Location{X: 3, Y: 2}) != nil {
		t.Fatalf("rat should be dead")
	}
	if len(e.World().Projectiles()) != 0 {
		t.Fatalf("projectile should have burst")
	}
	if xs := e.World().ExplosionsAt(dungeon.Location{X: 3, Y: 2}, dungeon.ExplosionFireball); len(xs) != 1 {
		t.Fatalf("expected a fireball explosion, got %v", xs)
	}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(e.World().Explosions()) != 0 {
		t.Fatalf("fireball should vanish after going off")
	}
	if rec.count(SoundExplosion) != 1 {
		t.Fatalf("expected one explosion cue, got %v", rec.sounds)
	}
}

func TestLauncherNeedsMatchingCell(t *testing.T) {
	cases := []struct {
		name   string
		cell   uint8
		effect timeline.Effect
	}{
		{"other_cell", 2, timeline.EffectSet},
		{"clear", 1, timeline.EffectClear},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, _ := newTestEngine(t, sensorLevel)
			mustSchedule(t, e, wallEvent(0, 2, c.cell, 1, c.effect))
			if err := e.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if len(e.World().Projectiles()) != 0 {
				t.Fatalf("launcher should not fire")
			}
		})
	}
}

func TestEndGameStopsAdvance(t *testing.T) {
	e, rec := newTestEngine(t, sensorLevel)
	mustSchedule(t, e, wallEvent(6, 1, 0, 2, timeline.EffectSet))
	if err := e.Advance(10); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !e.Ended() || rec.ended != 1 {
		t.Fatalf("expected the game to end")
	}
	if e.Tick() != 2 {
		t.Fatalf("expected Advance to stop at tick 2, got %d", e.Tick())
	}
}

const holdLevel = `
maps:
  - rows:
      - "#######"
      - "#..D..#"
      - "#######"
    sensors:
      - {x: 0, y: 1, type: gate, data: 0x10, target: {x: 3, y: 1}, effect: hold, delay: 50}
      - {x: 6, y: 1, type: gate, data: 0x10, target: {x: 3, y: 1}, effect: set, revert: true, delay: 50}
party:
  map: 0
  x: 1
  y: 1
  champions:
    - {name: Halk, health: 90}
`

func TestGateSensorEffects(t *testing.T) {
	cases := []struct {
		name string
		x    uint8
		want []timeline.Effect
	}{
		// Set on match, Clear once the pattern breaks.
		{"hold_follows_pattern", 0, []timeline.Effect{timeline.EffectSet, timeline.EffectClear}},
		// Quiet on match, fires once the pattern breaks.
		{"reverted_fires_on_mismatch", 6, []timeline.Effect{timeline.EffectSet}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, _ := newTestEngine(t, holdLevel)
			mustSchedule(t, e, wallEvent(c.x, 1, 0, 1, timeline.EffectSet))
			mustSchedule(t, e, wallEvent(c.x, 1, 0, 2, timeline.EffectClear))
			if err := e.Advance(2); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			doors := pendingOfType(e, timeline.TypeDoor)
			if len(doors) != len(c.want) {
				t.Fatalf("expected %d door events, got %v", len(c.want), doors)
			}
			for i, ev := range doors {
				p, _ := ev.Square()
				if p.Effect != c.want[i] || p.X != 3 || p.Y != 1 {
					t.Fatalf("door event %d: %v, want effect %s", i, ev, c.want[i])
				}
			}
		})
	}
}
