package engine

import (
	"errors"
	"testing"

	"github.com/milk9111/dungeon/config"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

const hallLevel = `
maps:
  - difficulty: 2
    rows:
      - "#######"
      - "#.....#"
      - "#.....#"
      - "#######"
  - rows:
      - "#######"
      - "#.....#"
      - "#.....#"
      - "#######"
party:
  map: 0
  x: 1
  y: 1
  champions:
    - {name: Halk, health: 90}
    - {name: Syra, health: 70}
`

// recorder captures collaborator calls.
type recorder struct {
	sounds    []Sound
	squares   []dungeon.Location
	palettes  []int
	champions []int
	party     int
	groups    int
	refills   [][2]int
	ended     int
}

func (r *recorder) RefreshPalette(amount int)        { r.palettes = append(r.palettes, amount) }
func (r *recorder) RefreshSquare(l dungeon.Location) { r.squares = append(r.squares, l) }
func (r *recorder) RefreshGroup(*dungeon.Group)      { r.groups++ }
func (r *recorder) Play(s Sound, _ dungeon.Location) { r.sounds = append(r.sounds, s) }
func (r *recorder) RefreshChampion(i int)            { r.champions = append(r.champions, i) }
func (r *recorder) RefreshParty()                    { r.party++ }
func (r *recorder) RefillHand(champion, slot int)    { r.refills = append(r.refills, [2]int{champion, slot}) }
func (r *recorder) End()                             { r.ended++ }

func (r *recorder) count(s Sound) int {
	n := 0
	for _, got := range r.sounds {
		if got == s {
			n++
		}
	}
	return n
}

// fixedRandom replays values, each reduced modulo n.
type fixedRandom struct {
	values []int
	i      int
}

func (f *fixedRandom) IntN(n int) int {
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.i%len(f.values)]
	f.i++
	return v % n
}

// mapRecorder logs every map switch the dispatcher makes.
type mapRecorder struct {
	*dungeon.Dungeon
	switches []uint8
}

func (m *mapRecorder) SetCurrentMap(i uint8) {
	m.switches = append(m.switches, i)
	m.Dungeon.SetCurrentMap(i)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	cfg.Timeline.Capacity = 64
	return cfg
}

func newTestEngine(t *testing.T, level string, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	world, err := dungeon.Parse([]byte(level))
	if err != nil {
		t.Fatalf("dungeon.Parse: %v", err)
	}
	rec := &recorder{}
	base := []Option{
		WithRenderer(rec),
		WithAudio(rec),
		WithStatusUI(rec),
		WithInventory(rec),
		WithEnding(rec),
		WithRandom(&fixedRandom{}),
	}
	return New(testConfig(t), world, append(base, opts...)...), rec
}

func mustSchedule(t *testing.T, e *Engine, ev timeline.Event) {
	t.Helper()
	if _, err := e.Schedule(ev); err != nil {
		t.Fatalf("Schedule(%v): %v", ev, err)
	}
}

func pendingOfType(e *Engine, typ timeline.Type) []timeline.Event {
	var out []timeline.Event
	for _, ev := range e.Scheduler().Pending() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestProcessTimelineSwitchesMaps(t *testing.T) {
	world, err := dungeon.Parse([]byte(hallLevel))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	maps := &mapRecorder{Dungeon: world}
	e := New(testConfig(t), world, WithMapContext(maps))
	world.Party.Footprints = 2
	mustSchedule(t, e, timeline.Event{Type: timeline.TypeFootprints, Time: timeline.At(1, 1)})
	mustSchedule(t, e, timeline.Event{Type: timeline.TypeFootprints, Time: timeline.At(0, 2)})

	if err := e.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	want := []uint8{1, 0, 0, 0}
	if len(maps.switches) != len(want) {
		t.Fatalf("expected switches %v, got %v", want, maps.switches)
	}
	for i := range want {
		if maps.switches[i] != want[i] {
			t.Fatalf("expected switches %v, got %v", want, maps.switches)
		}
	}
	if world.Party.Footprints != 0 {
		t.Fatalf("expected both footprint events to fire, counter %d", world.Party.Footprints)
	}
}

func TestProcessTimelineOnlyFiresDueEvents(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	e.World().Party.Invisibility = 3
	for _, tick := range []uint32{1, 2, 3} {
		mustSchedule(t, e, timeline.Event{Type: timeline.TypeInvisibility, Time: timeline.At(0, tick)})
	}
	cases := []struct {
		steps uint32
		left  int
	}{
		{1, 2},
		{1, 1},
		{1, 0},
	}
	for i, c := range cases {
		if err := e.Advance(c.steps); err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if got := e.World().Party.Invisibility; got != c.left {
			t.Fatalf("step %d: expected %d left, got %d", i, c.left, got)
		}
	}
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	mustSchedule(t, e, timeline.Event{Type: timeline.Type(50), Time: timeline.At(0, 1)})
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.Scheduler().Len() != 0 {
		t.Fatalf("unknown event should be consumed")
	}
}

const generatorLevel = `
maps:
  - difficulty: 3
    rows:
      - "######"
      - "#....#"
      - "######"
    sensors:
      - {x: 3, y: 1, type: group_generator, kind: rat, count: 2, only_once: true, audible: true}
      - {x: 4, y: 1, type: group_generator, kind: rat, count: 4, random_count: true, health_multiplier: 1, rearm_ticks: 20}
party:
  map: 0
  x: 1
  y: 1
  champions:
    - {name: Halk, health: 90}
`

func corridorEvent(x, y uint8, tick uint32) timeline.Event {
	return timeline.Event{Type: timeline.TypeCorridor, Time: timeline.At(0, tick), Payload: timeline.SquarePayload{X: x, Y: y}}
}

func TestOneShotGeneratorDisablesItself(t *testing.T) {
	e, rec := newTestEngine(t, generatorLevel)
	mustSchedule(t, e, corridorEvent(3, 1, 1))
	if err := e.Advance(2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := pendingOfType(e, timeline.TypeEnableGroupGenerator); len(got) != 0 {
		t.Fatalf("one-shot generator rescheduled itself: %v", got)
	}
	if got := pendingOfType(e, timeline.TypeCorridor); len(got) != 0 {
		t.Fatalf("corridor event still pending: %v", got)
	}
	sensor := e.World().Square(3, 1).Sensors[0]
	if !sensor.Disabled {
		t.Fatalf("one-shot generator should be disabled")
	}
	g := e.World().GroupAt(dungeon.Location{X: 3, Y: 1})
	if g == nil || g.Count() != 2 {
		t.Fatalf("expected a group of two rats, got %+v", g)
	}
	// Health is scaled by the map difficulty when the sensor has no multiplier.
	if g.Health[0] != e.Config().Creature("rat").Health*3 {
		t.Fatalf("unexpected generated health %d", g.Health[0])
	}
	if rec.count(SoundBuzz) != 1 {
		t.Fatalf("expected one buzz, got %v", rec.sounds)
	}

	// A disabled generator ignores further corridor events.
	mustSchedule(t, e, corridorEvent(3, 1, e.Tick()+1))
	e.World().RemoveGroup(g.ID)
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.World().GroupAt(dungeon.Location{X: 3, Y: 1}) != nil {
		t.Fatalf("disabled generator spawned a group")
	}
}

func TestRearmingGenerator(t *testing.T) {
	e, _ := newTestEngine(t, generatorLevel, WithRandom(&fixedRandom{values: []int{2}}))
	mustSchedule(t, e, corridorEvent(4, 1, 1))
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	sensor := e.World().Square(4, 1).Sensors[0]
	if !sensor.Disabled {
		t.Fatalf("generator should be disabled until rearmed")
	}
	rearm := pendingOfType(e, timeline.TypeEnableGroupGenerator)
	if len(rearm) != 1 || rearm[0].Time.Tick() != 21 {
		t.Fatalf("expected a rearm event at tick 21, got %v", rearm)
	}
	if g := e.World().GroupAt(dungeon.Location{X: 4, Y: 1}); g == nil || g.Count() != 3 {
		t.Fatalf("expected 1+2 random creatures, got %+v", g)
	}
	if err := e.Advance(20); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if sensor.Disabled {
		t.Fatalf("generator should be enabled again")
	}
}

func TestRearmDelay(t *testing.T) {
	cases := []struct {
		in   uint8
		want uint32
	}{
		{0, 0},
		{20, 20},
		{127, 127},
		{128, 128},
		{130, 256},
		{255, 129 << 6},
	}
	for _, c := range cases {
		if got := rearmDelay(c.in); got != c.want {
			t.Fatalf("rearmDelay(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTimelineFullAbortsAndRestoresMap(t *testing.T) {
	world, err := dungeon.Parse([]byte(generatorLevel))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	maps := &mapRecorder{Dungeon: world}
	e := New(testConfig(t), world, WithMapContext(maps), WithScheduler(timeline.New(2)))
	mustSchedule(t, e, corridorEvent(3, 1, 1))
	mustSchedule(t, e, timeline.Event{Type: timeline.TypeFootprints, Time: timeline.At(0, 90)})

	err = e.Step()
	if !errors.Is(err, timeline.ErrTimelineFull) {
		t.Fatalf("expected ErrTimelineFull, got %v", err)
	}
	if last := maps.switches[len(maps.switches)-1]; last != world.PartyMap() {
		t.Fatalf("map context left on %d", last)
	}
}

func TestStartSchedulesEveryGroup(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel+`
groups:
  - {kind: rat, map: 0, x: 4, y: 2}
  - {kind: mummy, map: 1, x: 2, y: 1}
`)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	behaviours := pendingOfType(e, timeline.TypeUpdateBehaviourGroup)
	if len(behaviours) != 2 {
		t.Fatalf("expected two behaviour events, got %v", behaviours)
	}
	rat := e.Config().Creature("rat")
	for _, ev := range behaviours {
		if ev.Time.Map() == 0 && (ev.Time.Tick() != uint32(rat.MovementTicks) || ev.Priority != groupPriority(rat.MovementTicks)) {
			t.Fatalf("unexpected rat event %v", ev)
		}
	}
}

func TestSetConfigKeepsCapacity(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	cfg := testConfig(t)
	cfg.Light.DecayTicks = 9
	if err := e.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	bigger := testConfig(t)
	bigger.Timeline.Capacity = 128
	if err := e.SetConfig(bigger); !errors.Is(err, ErrCapacityChange) {
		t.Fatalf("expected ErrCapacityChange, got %v", err)
	}
	if e.Config().Light.DecayTicks != 9 {
		t.Fatalf("rejected config should not be applied")
	}
}
