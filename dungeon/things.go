package dungeon

import "fmt"

// Thing identifies a group, projectile or explosion. The low 10 bits hold
// the store index plus one and the high 6 bits a generation, so an id kept
// in a scheduled event goes stale once the thing is removed.
type Thing uint16

const NoThing Thing = 0

const (
	thingIndexBits = 10
	thingIndexMask = 1<<thingIndexBits - 1
	thingGenMask   = 1<<(16-thingIndexBits) - 1

	// MaxThings is the number of things alive at once.
	MaxThings = thingIndexMask
)

func makeThing(index int, gen uint8) Thing {
	return Thing(uint16(gen&thingGenMask)<<thingIndexBits | uint16(index+1))
}

func (t Thing) index() int {
	return int(t&thingIndexMask) - 1
}

func (t Thing) gen() uint8 {
	return uint8(t >> thingIndexBits)
}

func (t Thing) String() string {
	if t == NoThing {
		return "thing(none)"
	}
	return fmt.Sprintf("thing(%d.%d)", t.index(), t.gen())
}

// thingStore tracks thing generations and free indices.
type thingStore struct {
	gen   []uint8
	alive []bool
	free  []int
}

func (s *thingStore) create() (Thing, error) {
	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if len(s.gen) >= MaxThings {
			return NoThing, ErrNoThings
		}
		idx = len(s.gen)
		s.gen = append(s.gen, 0)
		s.alive = append(s.alive, false)
	}
	s.alive[idx] = true
	return makeThing(idx, s.gen[idx]), nil
}

func (s *thingStore) destroy(t Thing) {
	if !s.isAlive(t) {
		return
	}
	idx := t.index()
	s.gen[idx] = (s.gen[idx] + 1) & thingGenMask
	s.alive[idx] = false
	s.free = append(s.free, idx)
}

func (s *thingStore) isAlive(t Thing) bool {
	idx := t.index()
	if idx < 0 || idx >= len(s.gen) {
		return false
	}
	return s.alive[idx] && s.gen[idx] == t.gen()
}

// restore marks t alive with its recorded generation. Used when loading a
// saved world so ids held by pending events stay valid.
func (s *thingStore) restore(t Thing) error {
	idx := t.index()
	if idx < 0 || idx >= MaxThings {
		return fmt.Errorf("dungeon: restore %s: index out of range", t)
	}
	for len(s.gen) <= idx {
		s.free = append(s.free, len(s.gen))
		s.gen = append(s.gen, 0)
		s.alive = append(s.alive, false)
	}
	if s.alive[idx] {
		return fmt.Errorf("dungeon: restore %s: id already in use", t)
	}
	s.gen[idx] = t.gen()
	s.alive[idx] = true
	for i, f := range s.free {
		if f == idx {
			s.free = append(s.free[:i], s.free[i+1:]...)
			break
		}
	}
	return nil
}
