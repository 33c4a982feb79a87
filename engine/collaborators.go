package engine

import (
	"math/rand/v2"

	"github.com/milk9111/dungeon/dungeon"
)

// Sound is an audio cue.
type Sound uint8

const (
	SoundDoorRattle Sound = iota + 1
	SoundSwitch
	SoundBuzz
	SoundGroupMove
	SoundExplosion
	SoundPartyDamaged
	SoundRebirth
	SoundCreatureDamaged
)

// MapContext selects which map world queries look at. The dispatcher
// switches it to each event's map and back to the party map afterwards.
type MapContext interface {
	SetCurrentMap(m uint8)
	PartyMap() uint8
}

// Renderer is told when something visible changed.
type Renderer interface {
	RefreshPalette(lightAmount int)
	RefreshSquare(l dungeon.Location)
	RefreshGroup(g *dungeon.Group)
}

// Audio plays cues at a square.
type Audio interface {
	Play(s Sound, l dungeon.Location)
}

// StatusUI redraws champion and party status.
type StatusUI interface {
	RefreshChampion(index int)
	RefreshParty()
}

// Inventory refills a champion's hand, e.g. from the quiver after a shot.
type Inventory interface {
	RefillHand(champion int, slotOrdinal int)
}

// Ending is called when an end-game sensor fires.
type Ending interface {
	End()
}

// Random is the source of every random choice a handler makes.
type Random interface {
	IntN(n int) int
}

type nopRenderer struct{}

func (nopRenderer) RefreshPalette(int)             {}
func (nopRenderer) RefreshSquare(dungeon.Location) {}
func (nopRenderer) RefreshGroup(*dungeon.Group)    {}

type nopAudio struct{}

func (nopAudio) Play(Sound, dungeon.Location) {}

type nopStatus struct{}

func (nopStatus) RefreshChampion(int) {}
func (nopStatus) RefreshParty()       {}

type nopInventory struct{}

func (nopInventory) RefillHand(int, int) {}

type nopEnding struct{}

func (nopEnding) End() {}

// NewRandom returns a deterministic source for seed.
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
