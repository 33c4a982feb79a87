package timeline

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrTimelineFull = errors.New("timeline: full")
	ErrEmpty        = errors.New("timeline: no pending event")
	ErrBadPayload   = errors.New("timeline: payload does not match event type")
)

// Slot identifies an event by its arena index. It stays valid until the
// event fires or is cancelled and the slot is reused.
type Slot int

// NoSlot is returned when nothing was scheduled.
const NoSlot Slot = -1

// Type is the event kind. Values match the classic dungeon timeline
// numbering so saved games stay readable.
type Type uint8

const (
	TypeNone                         Type = 0
	TypeDoorAnimation                Type = 1
	TypeDoorDestruction              Type = 2
	TypeCorridor                     Type = 5
	TypeWall                         Type = 6
	TypeFakeWall                     Type = 7
	TypeTeleporter                   Type = 8
	TypePit                          Type = 9
	TypeDoor                         Type = 10
	TypeEnableChampionAction         Type = 11
	TypeHideDamageReceived           Type = 12
	TypeViAltarRebirth               Type = 13
	TypePlaySound                    Type = 20
	TypeRemoveFluxcage               Type = 24
	TypeExplosion                    Type = 25
	TypeGroupReactionDangerOnSquare  Type = 29
	TypeGroupReactionHitByProjectile Type = 30
	TypeGroupReactionPartyIsAdjacent Type = 31
	TypeUpdateAspectGroup            Type = 32
	TypeUpdateAspectCreature0        Type = 33
	TypeUpdateAspectCreature1        Type = 34
	TypeUpdateAspectCreature2        Type = 35
	TypeUpdateAspectCreature3        Type = 36
	TypeUpdateBehaviourGroup         Type = 37
	TypeUpdateBehaviourCreature0     Type = 38
	TypeUpdateBehaviourCreature1     Type = 39
	TypeUpdateBehaviourCreature2     Type = 40
	TypeUpdateBehaviourCreature3     Type = 41
	TypeMoveProjectileIgnoreImpacts  Type = 48
	TypeMoveProjectile               Type = 49
	TypeMoveGroupSilent              Type = 60
	TypeMoveGroupAudible             Type = 61
	TypeEnableGroupGenerator         Type = 65
	TypeLight                        Type = 70
	TypeInvisibility                 Type = 71
	TypeChampionShield               Type = 72
	TypeThievesEye                   Type = 73
	TypePartyShield                  Type = 74
	TypePoisonChampion               Type = 75
	TypeSpellShield                  Type = 77
	TypeFireShield                   Type = 78
	TypeFootprints                   Type = 79
)

var typeNames = map[Type]string{
	TypeNone:                         "none",
	TypeDoorAnimation:                "door_animation",
	TypeDoorDestruction:              "door_destruction",
	TypeCorridor:                     "corridor",
	TypeWall:                         "wall",
	TypeFakeWall:                     "fake_wall",
	TypeTeleporter:                   "teleporter",
	TypePit:                          "pit",
	TypeDoor:                         "door",
	TypeEnableChampionAction:         "enable_champion_action",
	TypeHideDamageReceived:           "hide_damage_received",
	TypeViAltarRebirth:               "vi_altar_rebirth",
	TypePlaySound:                    "play_sound",
	TypeRemoveFluxcage:               "remove_fluxcage",
	TypeExplosion:                    "explosion",
	TypeGroupReactionDangerOnSquare:  "group_reaction_danger_on_square",
	TypeGroupReactionHitByProjectile: "group_reaction_hit_by_projectile",
	TypeGroupReactionPartyIsAdjacent: "group_reaction_party_is_adjacent",
	TypeUpdateAspectGroup:            "update_aspect_group",
	TypeUpdateAspectCreature0:        "update_aspect_creature_0",
	TypeUpdateAspectCreature1:        "update_aspect_creature_1",
	TypeUpdateAspectCreature2:        "update_aspect_creature_2",
	TypeUpdateAspectCreature3:        "update_aspect_creature_3",
	TypeUpdateBehaviourGroup:         "update_behaviour_group",
	TypeUpdateBehaviourCreature0:     "update_behaviour_creature_0",
	TypeUpdateBehaviourCreature1:     "update_behaviour_creature_1",
	TypeUpdateBehaviourCreature2:     "update_behaviour_creature_2",
	TypeUpdateBehaviourCreature3:     "update_behaviour_creature_3",
	TypeMoveProjectileIgnoreImpacts:  "move_projectile_ignore_impacts",
	TypeMoveProjectile:               "move_projectile",
	TypeMoveGroupSilent:              "move_group_silent",
	TypeMoveGroupAudible:             "move_group_audible",
	TypeEnableGroupGenerator:         "enable_group_generator",
	TypeLight:                        "light",
	TypeInvisibility:                 "invisibility",
	TypeChampionShield:               "champion_shield",
	TypeThievesEye:                   "thieves_eye",
	TypePartyShield:                  "party_shield",
	TypePoisonChampion:               "poison_champion",
	TypeSpellShield:                  "spell_shield",
	TypeFireShield:                   "fire_shield",
	TypeFootprints:                   "footprints",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// ParseType resolves a snake_case event name.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return TypeNone, false
}

// IsSpatial reports whether t is one of the square events that take part in
// insertion merging (corridor through door).
func (t Type) IsSpatial() bool {
	return t >= TypeCorridor && t <= TypeDoor
}

// IsGroup reports whether t belongs to the group reaction/update range that
// is routed through one shared handler.
func (t Type) IsGroup() bool {
	return t >= TypeGroupReactionDangerOnSquare && t <= TypeUpdateBehaviourCreature3
}

// IsDefense reports whether t is a timed party or champion defense.
func (t Type) IsDefense() bool {
	switch t {
	case TypeInvisibility, TypeChampionShield, TypeThievesEye, TypePartyShield,
		TypeSpellShield, TypeFireShield, TypeFootprints:
		return true
	}
	return false
}

// Effect is the instruction carried by sensor driven square events.
type Effect uint8

const (
	EffectSet    Effect = 0
	EffectClear  Effect = 1
	EffectToggle Effect = 2
	EffectHold   Effect = 3
)

// Invert swaps Set and Clear. Other effects are returned unchanged.
func (e Effect) Invert() Effect {
	switch e {
	case EffectSet:
		return EffectClear
	case EffectClear:
		return EffectSet
	}
	return e
}

func (e Effect) String() string {
	switch e {
	case EffectSet:
		return "set"
	case EffectClear:
		return "clear"
	case EffectToggle:
		return "toggle"
	case EffectHold:
		return "hold"
	}
	return "effect(" + strconv.Itoa(int(e)) + ")"
}

// ParseEffect resolves "set", "clear", "toggle" or "hold".
func ParseEffect(name string) (Effect, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "set", "":
		return EffectSet, true
	case "clear":
		return EffectClear, true
	case "toggle":
		return EffectToggle, true
	case "hold":
		return EffectHold, true
	}
	return EffectSet, false
}

// Event is one scheduled world change.
//
// Priority doubles as the owner of champion and group events (champion
// index, group rank). Among events due on the same tick the higher Priority
// fires first.
type Event struct {
	Type     Type
	Time     Time
	Priority uint8
	Payload  Payload
}

// Location returns the square the event targets, if its payload has one.
func (e Event) Location() (x, y uint8, ok bool) {
	if l, isLoc := e.Payload.(Locator); isLoc {
		x, y = l.Square()
		return x, y, true
	}
	return 0, 0, false
}

// Square returns the payload as a SquarePayload.
func (e Event) Square() (SquarePayload, bool) {
	sq, ok := e.Payload.(SquarePayload)
	return sq, ok
}

func (e Event) String() string {
	return e.Type.String() + "@" + e.Time.String() + "/p" + strconv.Itoa(int(e.Priority))
}
