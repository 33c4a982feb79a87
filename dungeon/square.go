package dungeon

import (
	"fmt"
	"strings"

	"github.com/milk9111/dungeon/timeline"
)

// Element is the kind of a map square.
type Element uint8

const (
	ElementWall Element = iota
	ElementCorridor
	ElementPit
	ElementStairs
	ElementDoor
	ElementTeleporter
	ElementFakeWall
)

var elementChars = map[Element]byte{
	ElementWall:       '#',
	ElementCorridor:   '.',
	ElementPit:        'P',
	ElementStairs:     'S',
	ElementDoor:       'D',
	ElementTeleporter: 'T',
	ElementFakeWall:   'F',
}

func (e Element) String() string {
	switch e {
	case ElementWall:
		return "wall"
	case ElementCorridor:
		return "corridor"
	case ElementPit:
		return "pit"
	case ElementStairs:
		return "stairs"
	case ElementDoor:
		return "door"
	case ElementTeleporter:
		return "teleporter"
	case ElementFakeWall:
		return "fake_wall"
	}
	return fmt.Sprintf("element(%d)", uint8(e))
}

func elementFromChar(c byte) (Element, bool) {
	for e, ch := range elementChars {
		if ch == c {
			return e, true
		}
	}
	return ElementWall, false
}

// EventType is the square event a sensor sends to a square of this kind.
func (e Element) EventType() timeline.Type {
	switch e {
	case ElementCorridor, ElementStairs:
		return timeline.TypeCorridor
	case ElementPit:
		return timeline.TypePit
	case ElementDoor:
		return timeline.TypeDoor
	case ElementTeleporter:
		return timeline.TypeTeleporter
	case ElementFakeWall:
		return timeline.TypeFakeWall
	}
	return timeline.TypeWall
}

// Passable reports whether creatures may stand on a square of this kind.
// Doors and fake walls also depend on the square state.
func (e Element) Passable() bool {
	switch e {
	case ElementCorridor, ElementPit, ElementStairs, ElementDoor, ElementTeleporter, ElementFakeWall:
		return true
	}
	return false
}

// DoorState is the position of a door leaf.
type DoorState uint8

const (
	DoorOpen DoorState = iota
	DoorOneFourth
	DoorHalf
	DoorThreeFourths
	DoorClosed
	DoorDestroyed
)

func (s DoorState) String() string {
	switch s {
	case DoorOpen:
		return "open"
	case DoorOneFourth:
		return "one_fourth"
	case DoorHalf:
		return "half"
	case DoorThreeFourths:
		return "three_fourths"
	case DoorClosed:
		return "closed"
	case DoorDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("door_state(%d)", uint8(s))
}

// Direction is a compass direction. Wall cells use it for the side of the
// wall a sensor or text is on.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Step returns the offset of one square in direction d.
func (d Direction) Step() (dx, dy int) {
	switch d & 3 {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	}
	return -1, 0
}

// Location is a square on a given map.
type Location struct {
	Map uint8 `yaml:"map"`
	X   uint8 `yaml:"x"`
	Y   uint8 `yaml:"y"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d,%d", l.Map, l.X, l.Y)
}

// Square is one cell of a map.
type Square struct {
	Element Element

	// Open is the active flag of pits, teleporters and fake walls. An open
	// fake wall can be walked through.
	Open bool

	DoorState DoorState
	Vertical  bool
	// Destination of a teleporter.
	Destination Location

	Sensors []*Sensor
	Texts   []*Text
	Items   []string
}

// Blocked reports whether the square stops a moving creature or projectile.
func (sq *Square) Blocked() bool {
	switch sq.Element {
	case ElementWall:
		return true
	case ElementFakeWall:
		return !sq.Open
	case ElementDoor:
		return sq.DoorState != DoorOpen && sq.DoorState != DoorDestroyed
	}
	return false
}

// TextsOn returns the texts on wall cell c.
func (sq *Square) TextsOn(c uint8) []*Text {
	var out []*Text
	for _, t := range sq.Texts {
		if t.Cell == c {
			out = append(out, t)
		}
	}
	return out
}

// SensorType selects the behavior of a sensor.
type SensorType uint8

const (
	SensorNone SensorType = iota
	SensorCountdown
	SensorGate
	SensorSingleLauncherNew
	SensorDoubleLauncherNew
	SensorSingleLauncherExplosion
	SensorDoubleLauncherExplosion
	SensorSingleLauncherSquareObject
	SensorDoubleLauncherSquareObject
	SensorEndGame
	SensorGroupGenerator
)

var sensorNames = map[SensorType]string{
	SensorCountdown:                  "countdown",
	SensorGate:                       "gate",
	SensorSingleLauncherNew:          "single_launcher_new",
	SensorDoubleLauncherNew:          "double_launcher_new",
	SensorSingleLauncherExplosion:    "single_launcher_explosion",
	SensorDoubleLauncherExplosion:    "double_launcher_explosion",
	SensorSingleLauncherSquareObject: "single_launcher_square_object",
	SensorDoubleLauncherSquareObject: "double_launcher_square_object",
	SensorEndGame:                    "end_game",
	SensorGroupGenerator:             "group_generator",
}

func (t SensorType) String() string {
	if n, ok := sensorNames[t]; ok {
		return n
	}
	return fmt.Sprintf("sensor(%d)", uint8(t))
}

// ParseSensorType resolves a snake_case sensor name.
func ParseSensorType(name string) (SensorType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range sensorNames {
		if n == name {
			return t, nil
		}
	}
	return SensorNone, fmt.Errorf("dungeon: unknown sensor type %q", name)
}

// IsLauncher reports whether t fires projectiles.
func (t SensorType) IsLauncher() bool {
	return t >= SensorSingleLauncherNew && t <= SensorDoubleLauncherSquareObject
}

// IsDouble reports whether a launcher fires two projectiles.
func (t SensorType) IsDouble() bool {
	switch t {
	case SensorDoubleLauncherNew, SensorDoubleLauncherExplosion, SensorDoubleLauncherSquareObject:
		return true
	}
	return false
}

// Sensor is attached to a wall cell or a floor square and reacts to square
// events on it.
type Sensor struct {
	Type SensorType
	// Cell is the wall side the sensor sits on.
	Cell uint8
	// Data is the countdown value or the gate bits: the low nibble holds
	// the current inputs and the high nibble the pattern that triggers.
	Data uint16

	// Triggered sensors send Effect to the target square after Delay
	// ticks. TargetCell is the wall cell addressed there.
	TargetX, TargetY, TargetCell uint8
	Effect                       timeline.Effect
	Delay                        uint32

	OnlyOnce bool
	Audible  bool
	Revert   bool
	Disabled bool

	// Launcher and generator parameters.
	Kind             string
	Power            uint8
	Count            uint8
	RandomCount      bool
	HealthMultiplier uint8
	RearmTicks       uint8
}

// Text is a wall or floor inscription.
type Text struct {
	Cell    uint8
	Visible bool
	Message string
}
