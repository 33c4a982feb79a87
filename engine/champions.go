package engine

import (
	"fmt"

	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

// Champion events carry the champion index in Priority.
func (e *Engine) champion(ev timeline.Event) (int, *dungeon.Champion) {
	i := int(ev.Priority)
	return i, e.world.Party.Champion(i)
}

func (e *Engine) enableChampionAction(ev timeline.Event) {
	i, c := e.champion(ev)
	if !c.Alive() {
		return
	}
	c.ActionDisabled = false
	if ap, _ := ev.Payload.(timeline.ActionPayload); ap.SlotOrdinal != 0 {
		e.inventory.RefillHand(i, int(ap.SlotOrdinal))
	}
	e.status.RefreshChampion(i)
}

func (e *Engine) hideDamageReceived(ev timeline.Event) {
	i, c := e.champion(ev)
	if c == nil {
		return
	}
	c.DamageShown = false
	e.status.RefreshChampion(i)
}

// viAltarRebirth runs in two steps: the altar lights up, then a dead
// champion comes back with half health.
func (e *Engine) viAltarRebirth(ev timeline.Event) error {
	rp, _ := ev.Payload.(timeline.RebirthPayload)
	l := dungeon.Location{Map: ev.Time.Map(), X: rp.X, Y: rp.Y}
	if rp.Step == 0 {
		e.audio.Play(SoundRebirth, l)
		rp.Step = 1
		ev.Payload = rp
		ev.Time = ev.Time.Add(e.cfg.Rebirth.StepTicks)
		return e.schedule(ev)
	}
	i, c := e.champion(ev)
	if c == nil || c.Alive() {
		return nil
	}
	c.Health = c.MaxHealth / 2
	if c.Health < 1 {
		c.Health = 1
	}
	e.renderer.RefreshSquare(l)
	e.status.RefreshChampion(i)
	return nil
}

// Poison schedules a poison tick for a champion.
func (e *Engine) Poison(champion int, attack int16) error {
	c := e.world.Party.Champion(champion)
	if !c.Alive() || attack <= 0 {
		return nil
	}
	c.PoisonEventCount++
	return e.schedule(timeline.Event{
		Type:     timeline.TypePoisonChampion,
		Time:     e.at(e.world.PartyMap(), 1),
		Priority: uint8(champion),
		Payload:  timeline.PoisonPayload{Attack: attack},
	})
}

// poisonChampion deals max(1, attack/64) damage and comes back weaker
// until the attack is spent.
func (e *Engine) poisonChampion(ev timeline.Event) error {
	i, c := e.champion(ev)
	if c == nil {
		return nil
	}
	if c.PoisonEventCount > 0 {
		c.PoisonEventCount--
	}
	if !c.Alive() {
		return nil
	}
	pp, _ := ev.Payload.(timeline.PoisonPayload)
	damage := int(pp.Attack) >> 6
	if damage < 1 {
		damage = 1
	}
	c.Damage(damage)
	e.status.RefreshChampion(i)
	pp.Attack--
	if pp.Attack <= 0 || !c.Alive() {
		return nil
	}
	c.PoisonEventCount++
	ev.Payload = pp
	ev.Time = ev.Time.WithTick(e.tick + e.cfg.Poison.IntervalTicks)
	return e.schedule(ev)
}

// CastLight adds the light of power now and schedules its decay after
// duration ticks.
func (e *Engine) CastLight(power int16, duration uint32) error {
	if power <= 0 {
		return nil
	}
	e.world.Party.MagicalLightAmount += e.cfg.LightAmount(int(power))
	e.renderer.RefreshPalette(e.world.Party.MagicalLightAmount)
	return e.schedule(timeline.Event{
		Type:    timeline.TypeLight,
		Time:    e.at(e.world.PartyMap(), duration),
		Payload: timeline.LightPayload{Power: -power},
	})
}

// light moves the party light by the difference between power and the
// next weaker power, then schedules that weaker power. Negative powers
// remove light, so a spell fades one level at a time.
func (e *Engine) light(ev timeline.Event) error {
	lp, _ := ev.Payload.(timeline.LightPayload)
	power := int(lp.Power)
	negative := power < 0
	if negative {
		power = -power
	}
	if top := len(e.cfg.Light.Table) - 1; power > top {
		power = top
	}
	if power == 0 {
		e.renderer.RefreshPalette(e.world.Party.MagicalLightAmount)
		return nil
	}
	weaker := power - 1
	amount := e.cfg.LightAmount(power) - e.cfg.LightAmount(weaker)
	if negative {
		amount = -amount
		weaker = -weaker
	}
	e.world.Party.MagicalLightAmount += amount
	e.renderer.RefreshPalette(e.world.Party.MagicalLightAmount)
	if weaker == 0 {
		return nil
	}
	ev.Payload = timeline.LightPayload{Power: int16(weaker)}
	ev.Time = ev.Time.WithTick(e.tick + e.cfg.Light.DecayTicks)
	return e.schedule(ev)
}

// defenseExpired takes back what a timed spell granted.
func (e *Engine) defenseExpired(ev timeline.Event) {
	dp, _ := ev.Payload.(timeline.DefensePayload)
	p := &e.world.Party
	switch ev.Type {
	case timeline.TypeInvisibility:
		p.Invisibility = decrement(p.Invisibility)
	case timeline.TypeThievesEye:
		p.ThievesEye = decrement(p.ThievesEye)
	case timeline.TypeFootprints:
		p.Footprints = decrement(p.Footprints)
	case timeline.TypeChampionShield:
		i, c := e.champion(ev)
		if c == nil {
			return
		}
		c.ShieldDefense -= int(dp.Defense)
		e.status.RefreshChampion(i)
		return
	case timeline.TypePartyShield:
		p.ShieldDefense -= int(dp.Defense)
	case timeline.TypeSpellShield:
		p.SpellShieldDefense -= int(dp.Defense)
	case timeline.TypeFireShield:
		p.FireShieldDefense -= int(dp.Defense)
	}
	e.status.RefreshParty()
}

func decrement(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}

// GrantDefense applies a timed party or champion spell and schedules its
// expiry. champion is only used for TypeChampionShield.
func (e *Engine) GrantDefense(typ timeline.Type, champion int, defense int16, duration uint32) error {
	p := &e.world.Party
	switch typ {
	case timeline.TypeInvisibility:
		p.Invisibility++
	case timeline.TypeThievesEye:
		p.ThievesEye++
	case timeline.TypeFootprints:
		p.Footprints++
	case timeline.TypeChampionShield:
		c := p.Champion(champion)
		if !c.Alive() {
			return nil
		}
		c.ShieldDefense += int(defense)
	case timeline.TypePartyShield:
		p.ShieldDefense += int(defense)
	case timeline.TypeSpellShield:
		p.SpellShieldDefense += int(defense)
	case timeline.TypeFireShield:
		p.FireShieldDefense += int(defense)
	default:
		return fmt.Errorf("engine: %s is not a timed defense", typ)
	}
	ev := timeline.Event{Type: typ, Time: e.at(p.Map, duration)}
	switch typ {
	case timeline.TypeChampionShield, timeline.TypePartyShield, timeline.TypeSpellShield, timeline.TypeFireShield:
		ev.Payload = timeline.DefensePayload{Defense: defense}
	}
	if typ == timeline.TypeChampionShield {
		ev.Priority = uint8(champion)
	}
	return e.schedule(ev)
}
