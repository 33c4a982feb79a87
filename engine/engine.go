// Package engine runs the dungeon timeline: it drains due events from a
// timeline.Scheduler and applies each one to the world through its
// handler.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/milk9111/dungeon/config"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

var ErrCapacityChange = errors.New("engine: timeline capacity cannot change while running")

// Engine owns the scheduler and drives the world with it.
type Engine struct {
	cfg      *config.Config
	world    *dungeon.Dungeon
	timeline *timeline.Scheduler
	maps     MapContext
	tick     uint32
	ended    bool

	renderer  Renderer
	audio     Audio
	status    StatusUI
	inventory Inventory
	ending    Ending
	rng       Random
	logger    *log.Logger
	verbose   bool
}

type Option func(*Engine)

// WithScheduler runs the engine on an existing scheduler, e.g. one loaded
// from a save.
func WithScheduler(s *timeline.Scheduler) Option {
	return func(e *Engine) { e.timeline = s }
}

// WithTick sets the starting tick.
func WithTick(tick uint32) Option {
	return func(e *Engine) { e.tick = tick }
}

// WithMapContext replaces the dungeon as the map context target.
func WithMapContext(m MapContext) Option {
	return func(e *Engine) { e.maps = m }
}

func WithRenderer(r Renderer) Option   { return func(e *Engine) { e.renderer = r } }
func WithAudio(a Audio) Option         { return func(e *Engine) { e.audio = a } }
func WithStatusUI(s StatusUI) Option   { return func(e *Engine) { e.status = s } }
func WithInventory(i Inventory) Option { return func(e *Engine) { e.inventory = i } }
func WithEnding(end Ending) Option     { return func(e *Engine) { e.ending = end } }
func WithRandom(r Random) Option       { return func(e *Engine) { e.rng = r } }

// WithLogger sets the logger. Verbose also logs ignored events.
func WithLogger(l *log.Logger, verbose bool) Option {
	return func(e *Engine) {
		e.logger = l
		e.verbose = verbose
	}
}

// New returns an engine for world. Unless WithScheduler is given it
// creates an empty scheduler sized from cfg.
func New(cfg *config.Config, world *dungeon.Dungeon, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		world:     world,
		maps:      world,
		renderer:  nopRenderer{},
		audio:     nopAudio{},
		status:    nopStatus{},
		inventory: nopInventory{},
		ending:    nopEnding{},
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timeline == nil {
		e.timeline = timeline.New(cfg.Timeline.Capacity)
	}
	if e.rng == nil {
		e.rng = NewRandom(cfg.Seed)
	}
	return e
}

func (e *Engine) Tick() uint32                   { return e.tick }
func (e *Engine) Scheduler() *timeline.Scheduler { return e.timeline }
func (e *Engine) World() *dungeon.Dungeon        { return e.world }
func (e *Engine) Config() *config.Config         { return e.cfg }

// Ended reports whether an end-game sensor fired.
func (e *Engine) Ended() bool { return e.ended }

// SetConfig swaps in a reloaded configuration. The timeline capacity is
// fixed for the life of the scheduler.
func (e *Engine) SetConfig(cfg *config.Config) error {
	if cfg.Timeline.Capacity != e.timeline.Cap() {
		return fmt.Errorf("%w: %d -> %d", ErrCapacityChange, e.timeline.Cap(), cfg.Timeline.Capacity)
	}
	e.cfg = cfg
	return nil
}

// Schedule adds ev to the timeline.
func (e *Engine) Schedule(ev timeline.Event) (timeline.Slot, error) {
	return e.timeline.Add(ev)
}

func (e *Engine) schedule(ev timeline.Event) error {
	if _, err := e.timeline.Add(ev); err != nil {
		return fmt.Errorf("engine: schedule %s: %w", ev, err)
	}
	return nil
}

// at is the time delay ticks from now on map m.
func (e *Engine) at(m uint8, delay uint32) timeline.Time {
	return timeline.At(m, e.tick+delay)
}

// Step advances one tick and processes the events that became due.
func (e *Engine) Step() error {
	e.tick++
	if e.world.Party.FreezeLifeTicks > 0 {
		e.world.Party.FreezeLifeTicks--
	}
	return e.ProcessTimeline()
}

// Advance runs n steps, stopping at the first error or when the game ends.
func (e *Engine) Advance(n uint32) error {
	for i := uint32(0); i < n && !e.ended; i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Start activates every group that has nothing scheduled yet. Call it on
// a freshly loaded dungeon, not on one restored from a save.
func (e *Engine) Start() error {
	for _, g := range append([]*dungeon.Group(nil), e.world.Groups()...) {
		if err := e.startGroup(g); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) debugf(format string, args ...any) {
	if e.verbose {
		e.logger.Printf(format, args...)
	}
}
