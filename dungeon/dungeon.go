// Package dungeon holds the world state the timeline handlers act on: maps
// of squares with their sensors and texts, creature groups, projectiles,
// explosions and the party.
package dungeon

import (
	"errors"
	"fmt"
)

var (
	ErrNoThings   = errors.New("dungeon: thing store full")
	ErrNoMap      = errors.New("dungeon: no such map")
	ErrOccupied   = errors.New("dungeon: square already holds a group")
	ErrOutOfRange = errors.New("dungeon: square out of range")
)

// Map is one dungeon level.
type Map struct {
	Index      uint8
	Width      int
	Height     int
	Difficulty uint8
	Squares    []Square
}

// NewMap returns a map of walls.
func NewMap(index uint8, width, height int) *Map {
	return &Map{Index: index, Width: width, Height: height, Squares: make([]Square, width*height)}
}

// Square returns the square at x,y or nil when out of range.
func (m *Map) Square(x, y int) *Square {
	if m == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return nil
	}
	return &m.Squares[y*m.Width+x]
}

// Dungeon is the whole world.
type Dungeon struct {
	Name  string
	Maps  []*Map
	Party Party

	current uint8

	things      thingStore
	groups      SparseSet[*Group]
	projectiles SparseSet[*Projectile]
	explosions  SparseSet[*Explosion]
}

// New returns an empty dungeon.
func New(name string) *Dungeon {
	return &Dungeon{Name: name}
}

// AddMap appends m. Map indices must match their position.
func (d *Dungeon) AddMap(m *Map) error {
	if int(m.Index) != len(d.Maps) {
		return fmt.Errorf("dungeon: map %d added at position %d", m.Index, len(d.Maps))
	}
	d.Maps = append(d.Maps, m)
	return nil
}

// Map returns map i or nil.
func (d *Dungeon) Map(i uint8) *Map {
	if int(i) >= len(d.Maps) {
		return nil
	}
	return d.Maps[i]
}

// SetCurrentMap selects the map that square queries without an explicit
// map index look at.
func (d *Dungeon) SetCurrentMap(i uint8) {
	d.current = i
}

// CurrentMap returns the index selected by SetCurrentMap.
func (d *Dungeon) CurrentMap() uint8 {
	return d.current
}

// PartyMap returns the map the party stands on.
func (d *Dungeon) PartyMap() uint8 {
	return d.Party.Map
}

// Square returns a square on the current map.
func (d *Dungeon) Square(x, y int) *Square {
	return d.Map(d.current).Square(x, y)
}

// SquareAt returns the square at l.
func (d *Dungeon) SquareAt(l Location) *Square {
	return d.Map(l.Map).Square(int(l.X), int(l.Y))
}

// PartyAt reports whether the party stands at l.
func (d *Dungeon) PartyAt(l Location) bool {
	return d.Party.Location() == l && d.Party.Alive()
}

// AddGroup registers g at its location and returns its id.
func (d *Dungeon) AddGroup(g *Group) (Thing, error) {
	if d.SquareAt(g.Location) == nil {
		return NoThing, fmt.Errorf("%w: group at %s", ErrOutOfRange, g.Location)
	}
	if d.GroupAt(g.Location) != nil {
		return NoThing, fmt.Errorf("%w: %s", ErrOccupied, g.Location)
	}
	id, err := d.things.create()
	if err != nil {
		return NoThing, err
	}
	g.ID = id
	d.groups.Set(id.index(), g)
	return id, nil
}

// Group returns the live group with id t.
func (d *Dungeon) Group(t Thing) *Group {
	if !d.things.isAlive(t) {
		return nil
	}
	g, _ := d.groups.Get(t.index())
	return g
}

// GroupAt returns the group standing at l.
func (d *Dungeon) GroupAt(l Location) *Group {
	for _, g := range d.groups.Values() {
		if g.Location == l {
			return g
		}
	}
	return nil
}

// Groups returns every live group. The slice is only valid until the next
// add or remove.
func (d *Dungeon) Groups() []*Group {
	return d.groups.Values()
}

// RemoveGroup deletes a group; its id goes stale.
func (d *Dungeon) RemoveGroup(t Thing) {
	if d.Group(t) == nil {
		return
	}
	d.groups.Remove(t.index())
	d.things.destroy(t)
}

// AddProjectile registers p and returns its id.
func (d *Dungeon) AddProjectile(p *Projectile) (Thing, error) {
	id, err := d.things.create()
	if err != nil {
		return NoThing, err
	}
	p.ID = id
	d.projectiles.Set(id.index(), p)
	return id, nil
}

// Projectile returns the live projectile with id t.
func (d *Dungeon) Projectile(t Thing) *Projectile {
	if !d.things.isAlive(t) {
		return nil
	}
	p, _ := d.projectiles.Get(t.index())
	return p
}

// Projectiles returns every projectile in flight.
func (d *Dungeon) Projectiles() []*Projectile {
	return d.projectiles.Values()
}

// RemoveProjectile deletes a projectile.
func (d *Dungeon) RemoveProjectile(t Thing) {
	if d.Projectile(t) == nil {
		return
	}
	d.projectiles.Remove(t.index())
	d.things.destroy(t)
}

// AddExplosion registers x and returns its id.
func (d *Dungeon) AddExplosion(x *Explosion) (Thing, error) {
	id, err := d.things.create()
	if err != nil {
		return NoThing, err
	}
	x.ID = id
	d.explosions.Set(id.index(), x)
	return id, nil
}

// Explosion returns the live explosion with id t.
func (d *Dungeon) Explosion(t Thing) *Explosion {
	if !d.things.isAlive(t) {
		return nil
	}
	x, _ := d.explosions.Get(t.index())
	return x
}

// Explosions returns every live explosion, fluxcages included.
func (d *Dungeon) Explosions() []*Explosion {
	return d.explosions.Values()
}

// ExplosionsAt returns the explosions of kind at l.
func (d *Dungeon) ExplosionsAt(l Location, kind ExplosionKind) []*Explosion {
	var out []*Explosion
	for _, x := range d.explosions.Values() {
		if x.Location == l && x.Kind == kind {
			out = append(out, x)
		}
	}
	return out
}

// RemoveExplosion deletes an explosion.
func (d *Dungeon) RemoveExplosion(t Thing) {
	if d.Explosion(t) == nil {
		return
	}
	d.explosions.Remove(t.index())
	d.things.destroy(t)
}

// Neighbor returns the location one square from l in direction dir.
func (d *Dungeon) Neighbor(l Location, dir Direction) (Location, bool) {
	dx, dy := dir.Step()
	x, y := int(l.X)+dx, int(l.Y)+dy
	if d.Map(l.Map).Square(x, y) == nil {
		return l, false
	}
	return Location{Map: l.Map, X: uint8(x), Y: uint8(y)}, true
}

// Below returns the square under l on the next map down.
func (d *Dungeon) Below(l Location) (Location, bool) {
	below := Location{Map: l.Map + 1, X: l.X, Y: l.Y}
	if d.SquareAt(below) == nil {
		return l, false
	}
	return below, true
}
