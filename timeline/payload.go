package timeline

// Payload is the type specific part of an Event. Each event family carries
// exactly one of the variants below.
type Payload interface {
	pack() (b, c uint16)
}

// Locator is implemented by payloads that target a square.
type Locator interface {
	Square() (x, y uint8)
}

// SquarePayload drives square events: doors, corridors, walls, pits,
// teleporters and fake walls.
type SquarePayload struct {
	X, Y   uint8
	Cell   uint8
	Effect Effect
}

// GroupPayload addresses the creature group standing on a square.
type GroupPayload struct {
	X, Y  uint8
	Ticks uint16
}

// ThingPayload references a dungeon thing (group, projectile, explosion,
// fluxcage) and the square it was on when scheduled.
type ThingPayload struct {
	X, Y  uint8
	Thing uint16
}

// LocationPayload is a bare square reference.
type LocationPayload struct {
	X, Y uint8
}

// LightPayload carries a signed light power. Negative powers remove light.
type LightPayload struct {
	Power int16
}

// DefensePayload is the bonus granted by a timed shield.
type DefensePayload struct {
	Defense int16
}

// CounterPayload marks events that only decrement a party counter.
type CounterPayload struct{}

// PoisonPayload is the remaining poison attack.
type PoisonPayload struct {
	Attack int16
}

// ActionPayload re-enables a champion action. A non-zero SlotOrdinal asks
// for that hand to be refilled from the quiver.
type ActionPayload struct {
	SlotOrdinal int16
}

// SoundPayload plays a sound at a square.
type SoundPayload struct {
	X, Y  uint8
	Sound uint8
}

// RebirthPayload is one step of an altar resurrection.
type RebirthPayload struct {
	X, Y uint8
	Step uint8
}

func packXY(x, y uint8) uint16 { return uint16(x)<<8 | uint16(y) }

func unpackXY(b uint16) (uint8, uint8) { return uint8(b >> 8), uint8(b) }

func (p SquarePayload) pack() (uint16, uint16) {
	return packXY(p.X, p.Y), uint16(p.Cell)<<8 | uint16(p.Effect)
}
func (p GroupPayload) pack() (uint16, uint16)    { return packXY(p.X, p.Y), p.Ticks }
func (p ThingPayload) pack() (uint16, uint16)    { return packXY(p.X, p.Y), p.Thing }
func (p LocationPayload) pack() (uint16, uint16) { return packXY(p.X, p.Y), 0 }
func (p LightPayload) pack() (uint16, uint16)    { return uint16(p.Power), 0 }
func (p DefensePayload) pack() (uint16, uint16)  { return uint16(p.Defense), 0 }
func (p CounterPayload) pack() (uint16, uint16)  { return 0, 0 }
func (p PoisonPayload) pack() (uint16, uint16)   { return uint16(p.Attack), 0 }
func (p ActionPayload) pack() (uint16, uint16)   { return uint16(p.SlotOrdinal), 0 }
func (p SoundPayload) pack() (uint16, uint16)    { return packXY(p.X, p.Y), uint16(p.Sound) }
func (p RebirthPayload) pack() (uint16, uint16)  { return packXY(p.X, p.Y), uint16(p.Step) }

func (p SquarePayload) Square() (uint8, uint8)   { return p.X, p.Y }
func (p GroupPayload) Square() (uint8, uint8)    { return p.X, p.Y }
func (p ThingPayload) Square() (uint8, uint8)    { return p.X, p.Y }
func (p LocationPayload) Square() (uint8, uint8) { return p.X, p.Y }
func (p SoundPayload) Square() (uint8, uint8)    { return p.X, p.Y }
func (p RebirthPayload) Square() (uint8, uint8)  { return p.X, p.Y }

// zeroPayload returns the variant t expects, or nil for types that have
// no defined payload.
func zeroPayload(t Type) Payload {
	switch {
	case t == TypeDoorAnimation, t == TypeDoorDestruction, t.IsSpatial():
		return SquarePayload{}
	case t.IsGroup():
		return GroupPayload{}
	}
	switch t {
	case TypeRemoveFluxcage, TypeExplosion, TypeMoveProjectile, TypeMoveProjectileIgnoreImpacts,
		TypeMoveGroupSilent, TypeMoveGroupAudible:
		return ThingPayload{}
	case TypeEnableGroupGenerator:
		return LocationPayload{}
	case TypeLight:
		return LightPayload{}
	case TypeChampionShield, TypePartyShield, TypeSpellShield, TypeFireShield:
		return DefensePayload{}
	case TypeInvisibility, TypeThievesEye, TypeFootprints, TypeHideDamageReceived:
		return CounterPayload{}
	case TypePoisonChampion:
		return PoisonPayload{}
	case TypeEnableChampionAction:
		return ActionPayload{}
	case TypePlaySound:
		return SoundPayload{}
	case TypeViAltarRebirth:
		return RebirthPayload{}
	}
	return nil
}

// PayloadFor returns the zero value of the payload variant t carries.
// Types without a defined payload carry a CounterPayload.
func PayloadFor(t Type) Payload {
	if p := zeroPayload(t); p != nil {
		return p
	}
	return CounterPayload{}
}

// normalize fills a missing payload and rejects a payload of the wrong
// family. Types without a defined payload accept anything.
func normalize(ev Event) (Event, error) {
	want := zeroPayload(ev.Type)
	if want == nil {
		if ev.Payload == nil {
			ev.Payload = CounterPayload{}
		}
		return ev, nil
	}
	if ev.Payload == nil {
		ev.Payload = want
		return ev, nil
	}
	if !samePayloadKind(want, ev.Payload) {
		return ev, ErrBadPayload
	}
	return ev, nil
}

func samePayloadKind(a, b Payload) bool {
	switch a.(type) {
	case SquarePayload:
		_, ok := b.(SquarePayload)
		return ok
	case GroupPayload:
		_, ok := b.(GroupPayload)
		return ok
	case ThingPayload:
		_, ok := b.(ThingPayload)
		return ok
	case LocationPayload:
		_, ok := b.(LocationPayload)
		return ok
	case LightPayload:
		_, ok := b.(LightPayload)
		return ok
	case DefensePayload:
		_, ok := b.(DefensePayload)
		return ok
	case CounterPayload:
		_, ok := b.(CounterPayload)
		return ok
	case PoisonPayload:
		_, ok := b.(PoisonPayload)
		return ok
	case ActionPayload:
		_, ok := b.(ActionPayload)
		return ok
	case SoundPayload:
		_, ok := b.(SoundPayload)
		return ok
	case RebirthPayload:
		_, ok := b.(RebirthPayload)
		return ok
	}
	return false
}

// unpack rebuilds a payload from its two packed words.
func unpack(t Type, b, c uint16) Payload {
	switch zeroPayload(t).(type) {
	case SquarePayload:
		x, y := unpackXY(b)
		return SquarePayload{X: x, Y: y, Cell: uint8(c >> 8), Effect: Effect(c)}
	case GroupPayload:
		x, y := unpackXY(b)
		return GroupPayload{X: x, Y: y, Ticks: c}
	case ThingPayload:
		x, y := unpackXY(b)
		return ThingPayload{X: x, Y: y, Thing: c}
	case LocationPayload:
		x, y := unpackXY(b)
		return LocationPayload{X: x, Y: y}
	case LightPayload:
		return LightPayload{Power: int16(b)}
	case DefensePayload:
		return DefensePayload{Defense: int16(b)}
	case PoisonPayload:
		return PoisonPayload{Attack: int16(b)}
	case ActionPayload:
		return ActionPayload{SlotOrdinal: int16(b)}
	case SoundPayload:
		x, y := unpackXY(b)
		return SoundPayload{X: x, Y: y, Sound: uint8(c)}
	case RebirthPayload:
		x, y := unpackXY(b)
		return RebirthPayload{X: x, Y: y, Step: uint8(c)}
	}
	return CounterPayload{}
}
