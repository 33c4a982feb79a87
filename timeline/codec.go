package timeline

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Saved layout, all big-endian:
//
//	header   "DMTL" version:u16 capacity:u16 count:u16 firstFree:u16
//	slots    capacity x { time:u32 type:u8 priority:u8 b:u16 c:u16 }
//	heap     capacity x slot:u16 (0xFFFF past count)
const (
	codecMagic   = "DMTL"
	codecVersion = 1
	headerSize   = 12
	slotSize     = 10
	emptyEntry   = 0xFFFF
)

var ErrCapacityMismatch = errors.New("timeline: saved capacity does not match")

// EncodedSize is the byte length of a saved scheduler of the given capacity.
func EncodedSize(capacity int) int {
	return headerSize + capacity*slotSize + capacity*2
}

// MarshalBinary dumps the arena and heap index in slot order.
func (s *Scheduler) MarshalBinary() ([]byte, error) {
	capacity := s.arena.capacity()
	if capacity > emptyEntry {
		return nil, fmt.Errorf("timeline: capacity %d too large to save", capacity)
	}
	buf := make([]byte, 0, EncodedSize(capacity))
	buf = append(buf, codecMagic...)
	buf = binary.BigEndian.AppendUint16(buf, codecVersion)
	buf = binary.BigEndian.AppendUint16(buf, uint16(capacity))
	buf = binary.BigEndian.AppendUint16(buf, uint16(s.arena.count))
	buf = binary.BigEndian.AppendUint16(buf, uint16(s.arena.firstFree))
	for _, ev := range s.arena.events {
		var b, c uint16
		if ev.Payload != nil {
			b, c = ev.Payload.pack()
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(ev.Time))
		buf = append(buf, byte(ev.Type), ev.Priority)
		buf = binary.BigEndian.AppendUint16(buf, b)
		buf = binary.BigEndian.AppendUint16(buf, c)
	}
	for p := 0; p < capacity; p++ {
		entry := uint16(emptyEntry)
		if p < s.heap.n {
			entry = uint16(s.heap.order[p])
		}
		buf = binary.BigEndian.AppendUint16(buf, entry)
	}
	return buf, nil
}

// UnmarshalBinary replaces the scheduler state with a saved one. The saved
// capacity must equal this scheduler's capacity.
func (s *Scheduler) UnmarshalBinary(data []byte) error {
	capacity, err := decodeHeader(data)
	if err != nil {
		return err
	}
	if capacity != s.arena.capacity() {
		return fmt.Errorf("%w: saved %d, configured %d", ErrCapacityMismatch, capacity, s.arena.capacity())
	}
	loaded, err := decode(data, capacity)
	if err != nil {
		return err
	}
	*s = *loaded
	return nil
}

// Decode rebuilds a scheduler using the capacity recorded in data.
func Decode(data []byte) (*Scheduler, error) {
	capacity, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	return decode(data, capacity)
}

func decodeHeader(data []byte) (int, error) {
	if len(data) < headerSize || string(data[:4]) != codecMagic {
		return 0, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := binary.BigEndian.Uint16(data[4:]); v != codecVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	capacity := int(binary.BigEndian.Uint16(data[6:]))
	if len(data) != EncodedSize(capacity) {
		return 0, fmt.Errorf("%w: %d bytes for capacity %d", ErrCorrupt, len(data), capacity)
	}
	return capacity, nil
}

func decode(data []byte, capacity int) (*Scheduler, error) {
	count := int(binary.BigEndian.Uint16(data[8:]))
	firstFree := int(binary.BigEndian.Uint16(data[10:]))
	if count > capacity {
		return nil, fmt.Errorf("%w: count %d exceeds capacity %d", ErrCorrupt, count, capacity)
	}

	s := New(capacity)
	off := headerSize
	for i := 0; i < capacity; i++ {
		rec := data[off : off+slotSize]
		off += slotSize
		t := Type(rec[4])
		if t == TypeNone {
			continue
		}
		s.arena.events[i] = Event{
			Type:     t,
			Time:     Time(binary.BigEndian.Uint32(rec)),
			Priority: rec[5],
			Payload:  unpack(t, binary.BigEndian.Uint16(rec[6:]), binary.BigEndian.Uint16(rec[8:])),
		}
	}
	s.arena.resync()
	if s.arena.count != count || s.arena.firstFree != firstFree {
		return nil, fmt.Errorf("%w: header says %d events (free %d), slots hold %d (free %d)",
			ErrCorrupt, count, firstFree, s.arena.count, s.arena.firstFree)
	}

	for p := 0; p < capacity; p++ {
		entry := binary.BigEndian.Uint16(data[off:])
		off += 2
		if p >= count {
			continue
		}
		if int(entry) >= capacity {
			return nil, fmt.Errorf("%w: heap position %d references slot %d", ErrCorrupt, p, entry)
		}
		slot := Slot(entry)
		if s.heap.pos[slot] >= 0 {
			return nil, fmt.Errorf("%w: slot %d queued twice", ErrCorrupt, slot)
		}
		s.place(p, slot)
	}
	s.heap.n = count
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}
