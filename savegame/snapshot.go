// Package savegame captures a running engine into a snapshot and keeps
// snapshots in a store.
package savegame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/dungeon/config"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/engine"
	"github.com/milk9111/dungeon/timeline"
)

var (
	ErrCorrupt  = errors.New("savegame: corrupt snapshot")
	ErrNotFound = errors.New("savegame: snapshot not found")
)

// Snapshot is everything needed to resume a game: the clock, the
// scheduler and the world.
type Snapshot struct {
	ID      uuid.UUID
	Name    string
	SavedAt time.Time
	Tick    uint32
	// Timeline is the scheduler in its binary save format.
	Timeline []byte
	// World is the dungeon as YAML, thing ids included.
	World []byte
}

// Info summarizes a stored snapshot.
type Info struct {
	ID      uuid.UUID
	Name    string
	SavedAt time.Time
	Tick    uint32
	Events  int
	Size    int
}

// Capture snapshots e.
func Capture(e *engine.Engine, name string) (*Snapshot, error) {
	tl, err := e.Scheduler().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("savegame: capture: %w", err)
	}
	world, err := e.World().Marshal()
	if err != nil {
		return nil, fmt.Errorf("savegame: capture: %w", err)
	}
	return &Snapshot{
		ID:       uuid.New(),
		Name:     name,
		SavedAt:  time.Now().UTC().Truncate(time.Second),
		Tick:     e.Tick(),
		Timeline: tl,
		World:    world,
	}, nil
}

// Restore rebuilds an engine from the snapshot. The configured timeline
// capacity must match the saved one.
func (s *Snapshot) Restore(cfg *config.Config, opts ...engine.Option) (*engine.Engine, error) {
	world, err := dungeon.Parse(s.World)
	if err != nil {
		return nil, fmt.Errorf("savegame: restore %s: %w", s.Name, err)
	}
	sched := timeline.New(cfg.Timeline.Capacity)
	if err := sched.UnmarshalBinary(s.Timeline); err != nil {
		return nil, fmt.Errorf("savegame: restore %s: %w", s.Name, err)
	}
	opts = append([]engine.Option{engine.WithScheduler(sched), engine.WithTick(s.Tick)}, opts...)
	return engine.New(cfg, world, opts...), nil
}

// Info returns the summary of s.
func (s *Snapshot) Info() Info {
	info := Info{ID: s.ID, Name: s.Name, SavedAt: s.SavedAt, Tick: s.Tick, Size: s.size()}
	if sched, err := timeline.Decode(s.Timeline); err == nil {
		info.Events = sched.Len()
	}
	return info
}

// Envelope, all big-endian:
//
//	"DMSV" version:u16 id:16 bytes savedAt:i64 unix seconds tick:u32
//	name:u16 length + bytes  timeline:u32 length + bytes  world:u32 length + bytes
const (
	snapshotMagic   = "DMSV"
	snapshotVersion = 1
	fixedSize       = 4 + 2 + 16 + 8 + 4
)

func (s *Snapshot) size() int {
	return fixedSize + 2 + len(s.Name) + 4 + len(s.Timeline) + 4 + len(s.World)
}

func (s *Snapshot) MarshalBinary() ([]byte, error) {
	if len(s.Name) > 0xFFFF {
		return nil, fmt.Errorf("savegame: name too long")
	}
	buf := make([]byte, 0, s.size())
	buf = append(buf, snapshotMagic...)
	buf = binary.BigEndian.AppendUint16(buf, snapshotVersion)
	buf = append(buf, s.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.SavedAt.Unix()))
	buf = binary.BigEndian.AppendUint32(buf, s.Tick)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s.Name)))
	buf = append(buf, s.Name...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.Timeline)))
	buf = append(buf, s.Timeline...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.World)))
	buf = append(buf, s.World...)
	return buf, nil
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < fixedSize || string(data[:4]) != snapshotMagic {
		return fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := binary.BigEndian.Uint16(data[4:]); v != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	var out Snapshot
	copy(out.ID[:], data[6:22])
	out.SavedAt = time.Unix(int64(binary.BigEndian.Uint64(data[22:])), 0).UTC()
	out.Tick = binary.BigEndian.Uint32(data[30:])

	r := reader{data: data, off: fixedSize}
	out.Name = string(r.chunk(2))
	out.Timeline = r.chunk(4)
	out.World = r.chunk(4)
	if r.err != nil {
		return r.err
	}
	if r.off != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-r.off)
	}
	*s = out
	return nil
}

// reader walks length-prefixed chunks and remembers the first failure.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) chunk(prefix int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+prefix > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at %d", ErrCorrupt, r.off)
		return nil
	}
	var n int
	if prefix == 2 {
		n = int(binary.BigEndian.Uint16(r.data[r.off:]))
	} else {
		n = int(binary.BigEndian.Uint32(r.data[r.off:]))
	}
	r.off += prefix
	if n > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: chunk of %d bytes at %d", ErrCorrupt, n, r.off)
		return nil
	}
	out := append([]byte(nil), r.data[r.off:r.off+n]...)
	r.off += n
	return out
}
