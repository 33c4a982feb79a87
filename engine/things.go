package engine

import (
	"fmt"

	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// LaunchProjectile puts p in flight from start. Its first move ignores
// impacts so it does not hit whatever launched it.
func (e *Engine) LaunchProjectile(p *dungeon.Projectile, start dungeon.Location, dir dungeon.Direction) error {
	p.Location = start
	p.Direction = dir
	id, err := e.world.AddProjectile(p)
	if err != nil {
		e.logger.Printf("engine: launch %s at %s: %v", p.Name, start, err)
		return nil
	}
	e.renderer.RefreshSquare(start)
	return e.schedule(timeline.Event{
		Type:    timeline.TypeMoveProjectileIgnoreImpacts,
		Time:    e.at(start.Map, 1),
		Payload: timeline.ThingPayload{X: start.X, Y: start.Y, Thing: uint16(id)},
	})
}

// moveProjectile advances a projectile one square. It bursts against
// walls and closed doors, hits the party or a group it meets, and falls
// once its energy runs out.
func (e *Engine) moveProjectile(ev timeline.Event) error {
	tp, _ := ev.Payload.(timeline.ThingPayload)
	p := e.world.Projectile(dungeon.Thing(tp.Thing))
	if p == nil {
		return nil
	}
	if l, _ := eventLocation(ev); p.Location != l {
		return nil
	}
	if ev.Type == timeline.TypeMoveProjectile {
		if hit, err := e.impact(p, p.Location); hit || err != nil {
			return err
		}
	}
	next, ok := e.world.Neighbor(p.Location, p.Direction)
	if !ok || e.world.SquareAt(next).Blocked() {
		return e.burst(p, p.Location)
	}
	if hit, err := e.impact(p, next); hit || err != nil {
		return err
	}
	from := p.Location
	p.Location = next
	e.renderer.RefreshSquare(from)
	e.renderer.RefreshSquare(next)

	step := e.cfg.Projectiles.StepEnergy
	if p.Energy <= step {
		return e.burst(p, next)
	}
	p.Energy -= step
	return e.schedule(timeline.Event{
		Type:    timeline.TypeMoveProjectile,
		Time:    e.at(next.Map, 1),
		Payload: timeline.ThingPayload{X: next.X, Y: next.Y, Thing: uint16(p.ID)},
	})
}

// impact hits the party or a group standing at l. Objects pass through
// incorporeal creatures.
func (e *Engine) impact(p *dungeon.Projectile, l dungeon.Location) (bool, error) {
	if e.world.PartyAt(l) {
		if e.world.Party.DamageAll(int(p.Attack)) > 0 {
			e.audio.Play(SoundPartyDamaged, l)
			e.status.RefreshParty()
		}
		return true, e.burst(p, l)
	}
	g := e.world.GroupAt(l)
	if g == nil {
		return false, nil
	}
	if e.cfg.Creature(g.Kind).Incorporeal && p.Kind == dungeon.ProjectileObject {
		return false, nil
	}
	if err := e.damageGroup(g, int(p.Attack), timeline.TypeGroupReactionHitByProjectile); err != nil {
		return true, err
	}
	return true, e.burst(p, l)
}

// burst ends a projectile's flight. Spells leave an explosion behind;
// objects drop on the square.
func (e *Engine) burst(p *dungeon.Projectile, l dungeon.Location) error {
	e.world.RemoveProjectile(p.ID)
	e.renderer.RefreshSquare(l)
	if p.Explosion == dungeon.ExplosionNone {
		if sq := e.world.SquareAt(l); sq != nil && p.Kind == dungeon.ProjectileObject {
			sq.Items = append(sq.Items, p.Name)
		}
		return nil
	}
	_, err := e.CreateExplosion(p.Explosion, l, p.Attack, e.cfg.Projectiles.ExplosionTicks)
	return err
}

// CreateExplosion places an explosion at l that goes off after delay
// ticks.
func (e *Engine) CreateExplosion(kind dungeon.ExplosionKind, l dungeon.Location, attack uint8, delay uint32) (dungeon.Thing, error) {
	x := &dungeon.Explosion{Kind: kind, Location: l, Attack: attack}
	id, err := e.world.AddExplosion(x)
	if err != nil {
		e.logger.Printf("engine: explosion at %s: %v", l, err)
		return dungeon.NoThing, nil
	}
	e.audio.Play(SoundExplosion, l)
	return id, e.schedule(timeline.Event{
		Type:    timeline.TypeExplosion,
		Time:    e.at(l.Map, delay),
		Payload: timeline.ThingPayload{X: l.X, Y: l.Y, Thing: uint16(id)},
	})
}

// explosion damages whatever stands in it. Poison clouds linger and
// weaken every tick until they fall below the configured floor; other
// explosions vanish at once. Fluxcages only leave through RemoveFluxcage.
func (e *Engine) explosion(ev timeline.Event) error {
	tp, _ := ev.Payload.(timeline.ThingPayload)
	x := e.world.Explosion(dungeon.Thing(tp.Thing))
	if x == nil || x.Kind == dungeon.ExplosionFluxcage {
		return nil
	}
	damage := int(x.Attack)
	if x.Kind == dungeon.ExplosionPoisonCloud {
		damage = int(x.Attack) >> 2
	}
	if e.world.PartyAt(x.Location) && e.world.Party.DamageAll(damage) > 0 {
		e.audio.Play(SoundPartyDamaged, x.Location)
		e.status.RefreshParty()
	}
	if g := e.world.GroupAt(x.Location); g != nil {
		if err := e.damageGroup(g, damage, timeline.TypeGroupReactionDangerOnSquare); err != nil {
			return err
		}
	}

	decay, floor := e.cfg.Explosions.PoisonCloudDecay, e.cfg.Explosions.PoisonCloudFloor
	if x.Kind == dungeon.ExplosionPoisonCloud && x.Attack >= floor+decay && decay > 0 {
		x.Attack -= decay
		ev.Time = ev.Time.Add(1)
		return e.schedule(ev)
	}
	e.world.RemoveExplosion(x.ID)
	e.renderer.RefreshSquare(x.Location)
	return nil
}

// CreateFluxcage traps the square at l for duration ticks.
func (e *Engine) CreateFluxcage(l dungeon.Location, duration uint32) (dungeon.Thing, error) {
	if e.world.SquareAt(l) == nil {
		return dungeon.NoThing, fmt.Errorf("engine: fluxcage at %s: %w", l, dungeon.ErrOutOfRange)
	}
	id, err := e.world.AddExplosion(&dungeon.Explosion{Kind: dungeon.ExplosionFluxcage, Location: l})
	if err != nil {
		return dungeon.NoThing, err
	}
	e.renderer.RefreshSquare(l)
	return id, e.schedule(timeline.Event{
		Type:    timeline.TypeRemoveFluxcage,
		Time:    e.at(l.Map, duration),
		Payload: timeline.ThingPayload{X: l.X, Y: l.Y, Thing: uint16(id)},
	})
}

func (e *Engine) removeFluxcage(ev timeline.Event) {
	tp, _ := ev.Payload.(timeline.ThingPayload)
	x := e.world.Explosion(dungeon.Thing(tp.Thing))
	if x == nil || x.Kind != dungeon.ExplosionFluxcage {
		return
	}
	e.world.RemoveExplosion(x.ID)
	e.renderer.RefreshSquare(x.Location)
}

// playSound plays a delayed cue if the party can hear it.
func (e *Engine) playSound(ev timeline.Event) {
	sp, _ := ev.Payload.(timeline.SoundPayload)
	if ev.Time.Map() != e.world.PartyMap() {
		return
	}
	e.audio.Play(Sound(sp.Sound), dungeon.Location{Map: ev.Time.Map(), X: sp.X, Y: sp.Y})
}
