package timeline

import "fmt"

// Time packs a map index and a tick count into one value. The map lives in
// the top 8 bits and the tick in the low 24 bits.
type Time uint32

const (
	tickBits = 24
	tickMask = 1<<tickBits - 1
)

// At builds a Time for tick on map.
func At(mapIndex uint8, tick uint32) Time {
	return Time(uint32(mapIndex)<<tickBits | tick&tickMask)
}

// Map returns the map index.
func (t Time) Map() uint8 {
	return uint8(uint32(t) >> tickBits)
}

// Tick returns the tick count with the map stripped.
func (t Time) Tick() uint32 {
	return uint32(t) & tickMask
}

// Add returns t moved d ticks later on the same map.
func (t Time) Add(d uint32) Time {
	return At(t.Map(), t.Tick()+d)
}

// WithTick returns t with its tick replaced.
func (t Time) WithTick(tick uint32) Time {
	return At(t.Map(), tick)
}

// Compare orders by (map, tick). It is the global order of the packed value;
// chronology only looks at ticks.
func (t Time) Compare(u Time) int {
	switch {
	case t < u:
		return -1
	case t > u:
		return 1
	}
	return 0
}

func (t Time) String() string {
	return fmt.Sprintf("%d@%d", t.Map(), t.Tick())
}
