package scenario

import (
	"fmt"

	"github.com/milk9111/dungeon/timeline"
)

// eventFromFields builds an event from a script map. Unknown keys are
// rejected so typos do not pass silently.
func eventFromFields(fields map[string]any, now uint32) (timeline.Event, error) {
	f := fieldReader{fields: fields, used: map[string]bool{}}
	name := f.str("type")
	typ, ok := timeline.ParseType(name)
	if !ok || typ == timeline.TypeNone {
		return timeline.Event{}, fmt.Errorf("unknown event type %q", name)
	}
	tick := now + uint32(f.int("delay"))
	if f.has("tick") {
		tick = uint32(f.int("tick"))
	}
	ev := timeline.Event{
		Type:     typ,
		Time:     timeline.At(uint8(f.int("map")), tick),
		Priority: uint8(f.int("priority")),
	}

	x, y := uint8(f.int("x")), uint8(f.int("y"))
	switch timeline.PayloadFor(typ).(type) {
	case timeline.SquarePayload:
		effect, ok := timeline.ParseEffect(f.str("effect"))
		if !ok {
			return timeline.Event{}, fmt.Errorf("unknown effect %q", f.str("effect"))
		}
		ev.Payload = timeline.SquarePayload{X: x, Y: y, Cell: uint8(f.int("cell")), Effect: effect}
	case timeline.GroupPayload:
		ev.Payload = timeline.GroupPayload{X: x, Y: y, Ticks: uint16(f.int("ticks"))}
	case timeline.ThingPayload:
		ev.Payload = timeline.ThingPayload{X: x, Y: y, Thing: uint16(f.int("thing"))}
	case timeline.LocationPayload:
		ev.Payload = timeline.LocationPayload{X: x, Y: y}
	case timeline.LightPayload:
		ev.Payload = timeline.LightPayload{Power: int16(f.int("power"))}
	case timeline.DefensePayload:
		ev.Payload = timeline.DefensePayload{Defense: int16(f.int("defense"))}
	case timeline.PoisonPayload:
		ev.Payload = timeline.PoisonPayload{Attack: int16(f.int("attack"))}
	case timeline.ActionPayload:
		ev.Payload = timeline.ActionPayload{SlotOrdinal: int16(f.int("slot"))}
	case timeline.SoundPayload:
		ev.Payload = timeline.SoundPayload{X: x, Y: y, Sound: uint8(f.int("sound"))}
	case timeline.RebirthPayload:
		ev.Payload = timeline.RebirthPayload{X: x, Y: y, Step: uint8(f.int("step"))}
	case timeline.CounterPayload:
		ev.Payload = timeline.CounterPayload{}
	}
	if f.err != nil {
		return timeline.Event{}, f.err
	}
	for k := range fields {
		if !f.used[k] {
			return timeline.Event{}, fmt.Errorf("%s event has no field %q", typ, k)
		}
	}
	return ev, nil
}

type fieldReader struct {
	fields map[string]any
	used   map[string]bool
	err    error
}

func (f *fieldReader) has(key string) bool {
	_, ok := f.fields[key]
	return ok
}

func (f *fieldReader) int(key string) int64 {
	f.used[key] = true
	v, ok := f.fields[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	}
	if f.err == nil {
		f.err = fmt.Errorf("field %q: want a number, got %T", key, v)
	}
	return 0
}

func (f *fieldReader) str(key string) string {
	f.used[key] = true
	v, ok := f.fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok && f.err == nil {
		f.err = fmt.Errorf("field %q: want a string, got %T", key, v)
	}
	return s
}
