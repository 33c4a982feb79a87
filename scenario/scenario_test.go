package scenario

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/milk9111/dungeon/config"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/engine"
	"github.com/milk9111/dungeon/timeline"
)

type call struct {
	name string
	args []int64
}

type fakeEngine struct {
	tick   uint32
	events []timeline.Event
	calls  []call
}

func (f *fakeEngine) Tick() uint32 { return f.tick }

func (f *fakeEngine) Schedule(ev timeline.Event) (timeline.Slot, error) {
	f.events = append(f.events, ev)
	return timeline.Slot(len(f.events) - 1), nil
}

func (f *fakeEngine) CastLight(power int16, duration uint32) error {
	f.calls = append(f.calls, call{"light", []int64{int64(power), int64(duration)}})
	return nil
}

func (f *fakeEngine) Poison(champion int, attack int16) error {
	f.calls = append(f.calls, call{"poison", []int64{int64(champion), int64(attack)}})
	return nil
}

func (f *fakeEngine) GrantDefense(typ timeline.Type, champion int, defense int16, duration uint32) error {
	f.calls = append(f.calls, call{"defense", []int64{int64(typ), int64(champion), int64(defense), int64(duration)}})
	return nil
}

func (f *fakeEngine) CreateFluxcage(l dungeon.Location, duration uint32) (dungeon.Thing, error) {
	f.calls = append(f.calls, call{"fluxcage", []int64{int64(l.Map), int64(l.X), int64(l.Y), int64(duration)}})
	return dungeon.Thing(1), nil
}

func run(t *testing.T, f *fakeEngine, src string) (*Result, error) {
	t.Helper()
	return Run(context.Background(), f, "test", []byte("dm := import(\"dm\")\n"+src))
}

func TestScheduleBuildsEvents(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want timeline.Event
	}{
		{
			"door",
			`dm.schedule({type: "door", tick: 3, x: 3, y: 1, effect: "toggle", priority: 9})`,
			timeline.Event{Type: timeline.TypeDoor, Time: timeline.At(0, 3), Priority: 9, Payload: timeline.SquarePayload{X: 3, Y: 1, Effect: timeline.EffectToggle}},
		},
		{
			"wall_cell",
			`dm.schedule({type: "wall", tick: 2, x: 7, y: 3, cell: 3})`,
			timeline.Event{Type: timeline.TypeWall, Time: timeline.At(0, 2), Payload: timeline.SquarePayload{X: 7, Y: 3, Cell: 3}},
		},
		{
			"light_delay",
			`dm.schedule({type: "light", delay: 4, power: -2, map: 1})`,
			timeline.Event{Type: timeline.TypeLight, Time: timeline.At(1, 14), Payload: timeline.LightPayload{Power: -2}},
		},
		{
			"move_group",
			`dm.schedule({type: "move_group_audible", tick: 5, x: 2, y: 2, thing: 7})`,
			timeline.Event{Type: timeline.TypeMoveGroupAudible, Time: timeline.At(0, 5), Payload: timeline.ThingPayload{X: 2, Y: 2, Thing: 7}},
		},
		{
			"rebirth",
			`dm.schedule({type: "vi_altar_rebirth", tick: 1, priority: 1, x: 4, y: 2, step: 1})`,
			timeline.Event{Type: timeline.TypeViAltarRebirth, Time: timeline.At(0, 1), Priority: 1, Payload: timeline.RebirthPayload{X: 4, Y: 2, Step: 1}},
		},
		{
			"counter",
			`dm.schedule({type: "invisibility", tick: 9})`,
			timeline.Event{Type: timeline.TypeInvisibility, Time: timeline.At(0, 9), Payload: timeline.CounterPayload{}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeEngine{tick: 10}
			res, err := run(t, f, c.src)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(f.events) != 1 || len(res.Scheduled) != 1 {
				t.Fatalf("expected one event, got %v", f.events)
			}
			if !reflect.DeepEqual(f.events[0], c.want) {
				t.Fatalf("expected %v, got %v", c.want, f.events[0])
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown_type", `dm.schedule({type: "earthquake", tick: 1})`},
		{"unknown_field", `dm.schedule({type: "door", tick: 1, colour: 2})`},
		{"bad_effect", `dm.schedule({type: "door", tick: 1, effect: "wobble"})`},
		{"not_a_map", `dm.schedule("door")`},
		{"string_coordinate", `dm.schedule({type: "door", tick: 1, x: "three"})`},
		{"wrong_arity", `dm.light(3)`},
		{"bad_defense", `dm.defense("door", 0, 1, 1)`},
		{"negative_ticks", `ticks := -1`},
		{"syntax", `dm.schedule({`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeEngine{}
			if _, err := run(t, f, c.src); !errors.Is(err, ErrScript) {
				t.Fatalf("expected ErrScript, got %v", err)
			}
			if len(f.calls) != 0 {
				t.Fatalf("engine should not be called, got %v", f.calls)
			}
		})
	}
}

func TestSpellHelpers(t *testing.T) {
	f := &fakeEngine{tick: 10}
	res, err := run(t, f, `
ticks := dm.tick() + 5
dm.light(3, 10)
dm.poison(1, 5)
dm.defense("spell_shield", 0, 4, 20)
cage := dm.fluxcage(0, 2, 2, 8)
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ticks != 15 {
		t.Fatalf("expected 15 ticks, got %d", res.Ticks)
	}
	want := []call{
		{"light", []int64{3, 10}},
		{"poison", []int64{1, 5}},
		{"defense", []int64{int64(timeline.TypeSpellShield), 0, 4, 20}},
		{"fluxcage", []int64{0, 2, 2, 8}},
	}
	if !reflect.DeepEqual(f.calls, want) {
		t.Fatalf("expected calls %v, got %v", want, f.calls)
	}
}

func TestLoad(t *testing.T) {
	a, err := Load("trials")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := Load("scripts/trials.tengo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected the same script by either name")
	}
	if _, err := Load("missing"); err == nil {
		t.Fatalf("expected an error for a missing script")
	}
}

func TestTrialsScenario(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	world, err := dungeon.Load("trials")
	if err != nil {
		t.Fatalf("dungeon.Load: %v", err)
	}
	src, err := Load("trials")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := engine.New(cfg, world)
	res, err := Run(context.Background(), e, "trials", src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ticks != 80 || len(res.Scheduled) != 5 {
		t.Fatalf("unexpected result %+v", res)
	}
	// Five scripted events plus the light decay, the shield expiry and the
	// first poison tick.
	if got := e.Scheduler().Len(); got != 8 {
		t.Fatalf("expected 8 pending events, got %d", got)
	}
	if got := world.Party.MagicalLightAmount; got != 40 {
		t.Fatalf("expected light 40, got %d", got)
	}
	if err := e.Advance(res.Ticks); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := world.Square(3, 1).DoorState; got != dungeon.DoorOpen {
		t.Fatalf("expected the lever to open the door, got %s", got)
	}
	if err := e.Scheduler().Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}
