package engine

import (
	"errors"
	"testing"

	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

func TestObjectProjectileFlight(t *testing.T) {
	cases := []struct {
		name    string
		start   dungeon.Location
		dir     dungeon.Direction
		energy  uint8
		ticks   uint32
		dropped dungeon.Location
		hurt    bool
	}{
		{"hits_party", dungeon.Location{X: 3, Y: 1}, dungeon.West, 20, 2, dungeon.Location{X: 1, Y: 1}, true},
		{"falls_when_spent", dungeon.Location{X: 3, Y: 2}, dungeon.West, 4, 1, dungeon.Location{X: 2, Y: 2}, false},
		{"stops_at_wall", dungeon.Location{X: 5, Y: 2}, dungeon.East, 20, 1, dungeon.Location{X: 5, Y: 2}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, _ := newTestEngine(t, hallLevel)
			p := &dungeon.Projectile{Name: "dagger", Energy: c.energy, Attack: 7}
			if err := e.LaunchProjectile(p, c.start, c.dir); err != nil {
				t.Fatalf("LaunchProjectile: %v", err)
			}
			if err := e.Advance(c.ticks); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if len(e.World().Projectiles()) != 0 {
				t.Fatalf("projectile still flying")
			}
			items := e.World().SquareAt(c.dropped).Items
			if len(items) != 1 || items[0] != "dagger" {
				t.Fatalf("expected the dagger on %s, got %v", c.dropped, items)
			}
			hurt := e.World().Party.Champions[0].Health < 90
			if hurt != c.hurt {
				t.Fatalf("party hurt = %v, want %v", hurt, c.hurt)
			}
		})
	}
}

func TestObjectsPassThroughIncorporealCreatures(t *testing.T) {
	e, _ := newTestEngine(t, groupLevel("  - {kind: ghost, map: 0, x: 2, y: 1, health_each: 25}\n"))
	p := &dungeon.Projectile{Name: "dagger", Energy: 20, Attack: 7}
	if err := e.LaunchProjectile(p, dungeon.Location{X: 3, Y: 1}, dungeon.West); err != nil {
		t.Fatalf("LaunchProjectile: %v", err)
	}
	if err := e.Advance(3); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	ghost := e.World().GroupAt(dungeon.Location{X: 2, Y: 1})
	if ghost == nil || ghost.Health[0] != 25 {
		t.Fatalf("ghost should be untouched, got %+v", ghost)
	}
	if e.World().Party.Champions[0].Health != 83 {
		t.Fatalf("dagger should fly through to the party")
	}
}

func TestStaleProjectileEventIgnored(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	p := &dungeon.Projectile{Name: "dagger", Energy: 20, Attack: 7}
	if err := e.LaunchProjectile(p, dungeon.Location{X: 4, Y: 2}, dungeon.West); err != nil {
		t.Fatalf("LaunchProjectile: %v", err)
	}
	e.World().RemoveProjectile(p.ID)
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.Scheduler().Len() != 0 {
		t.Fatalf("stale projectile was moved")
	}
}

func TestPoisonCloudDecays(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	party := e.World().Party.Location()
	id, err := e.CreateExplosion(dungeon.ExplosionPoisonCloud, party, 20, 1)
	if err != nil {
		t.Fatalf("CreateExplosion: %v", err)
	}
	cloud := e.World().Explosion(id)
	for _, want := range []uint8{17, 14, 11, 8} {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if cloud.Attack != want {
			t.Fatalf("tick %d: expected attack %d, got %d", e.Tick(), want, cloud.Attack)
		}
	}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if e.World().Explosion(id) != nil {
		t.Fatalf("weak cloud should dissipate")
	}
	// 5 + 4 + 3 + 2 + 2
	if got := e.World().Party.Champions[0].Health; got != 74 {
		t.Fatalf("expected 16 poison damage, health %d", got)
	}
}

func TestFluxcageBlocksGroups(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	cage := dungeon.Location{X: 3, Y: 2}
	if _, err := e.CreateFluxcage(cage, 10); err != nil {
		t.Fatalf("CreateFluxcage: %v", err)
	}
	if e.canEnter(cage) {
		t.Fatalf("groups should not enter a fluxcage")
	}
	if err := e.Advance(9); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if e.canEnter(cage) {
		t.Fatalf("fluxcage lifted early")
	}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !e.canEnter(cage) || len(e.World().Explosions()) != 0 {
		t.Fatalf("fluxcage should be gone")
	}
}

func TestFluxcageOutOfRange(t *testing.T) {
	e, _ := newTestEngine(t, hallLevel)
	_, err := e.CreateFluxcage(dungeon.Location{X: 40, Y: 40}, 5)
	if !errors.Is(err, dungeon.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestPlaySoundOnlyOnPartyMap(t *testing.T) {
	e, rec := newTestEngine(t, hallLevel)
	for m := uint8(0); m < 2; m++ {
		mustSchedule(t, e, timeline.Event{Type: timeline.TypePlaySound, Time: timeline.At(m, 1), Payload: timeline.SoundPayload{X: 2, Y: 2, Sound: uint8(SoundSwitch)}})
	}
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if rec.count(SoundSwitch) != 1 {
		t.Fatalf("expected one audible cue, got %v", rec.sounds)
	}
}
