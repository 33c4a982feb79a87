package dungeon

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/dungeon/timeline"
	"gopkg.in/yaml.v3"
)

//go:embed levels/*.yaml
var LevelsFS embed.FS

// File is the YAML form of a dungeon. Map rows use one character per
// square: '#' wall, '.' corridor, 'P' pit, 'S' stairs, 'D' door,
// 'T' teleporter, 'F' fake wall.
type File struct {
	Name        string           `yaml:"name"`
	Maps        []MapFile        `yaml:"maps"`
	Party       PartyFile        `yaml:"party"`
	Groups      []GroupFile      `yaml:"groups,omitempty"`
	Projectiles []ProjectileFile `yaml:"projectiles,omitempty"`
	Explosions  []ExplosionFile  `yaml:"explosions,omitempty"`
}

type MapFile struct {
	Difficulty uint8        `yaml:"difficulty"`
	Rows       []string     `yaml:"rows"`
	Squares    []SquareFile `yaml:"squares,omitempty"`
	Sensors    []SensorFile `yaml:"sensors,omitempty"`
	Texts      []TextFile   `yaml:"texts,omitempty"`
}

// SquareFile overrides the default state of one square.
type SquareFile struct {
	X        uint8     `yaml:"x"`
	Y        uint8     `yaml:"y"`
	Open     *bool     `yaml:"open,omitempty"`
	Door     string    `yaml:"door,omitempty"`
	Vertical bool      `yaml:"vertical,omitempty"`
	To       *Location `yaml:"to,omitempty"`
	Items    []string  `yaml:"items,omitempty"`
}

type SensorFile struct {
	X                uint8       `yaml:"x"`
	Y                uint8       `yaml:"y"`
	Type             string      `yaml:"type"`
	Cell             uint8       `yaml:"cell,omitempty"`
	Data             uint16      `yaml:"data,omitempty"`
	Target           *TargetFile `yaml:"target,omitempty"`
	Effect           string      `yaml:"effect,omitempty"`
	Delay            uint32      `yaml:"delay,omitempty"`
	OnlyOnce         bool        `yaml:"only_once,omitempty"`
	Audible          bool        `yaml:"audible,omitempty"`
	Revert           bool        `yaml:"revert,omitempty"`
	Disabled         bool        `yaml:"disabled,omitempty"`
	Kind             string      `yaml:"kind,omitempty"`
	Power            uint8       `yaml:"power,omitempty"`
	Count            uint8       `yaml:"count,omitempty"`
	RandomCount      bool        `yaml:"random_count,omitempty"`
	HealthMultiplier uint8       `yaml:"health_multiplier,omitempty"`
	RearmTicks       uint8       `yaml:"rearm_ticks,omitempty"`
}

type TargetFile struct {
	X    uint8 `yaml:"x"`
	Y    uint8 `yaml:"y"`
	Cell uint8 `yaml:"cell,omitempty"`
}

type TextFile struct {
	X       uint8  `yaml:"x"`
	Y       uint8  `yaml:"y"`
	Cell    uint8  `yaml:"cell,omitempty"`
	Visible bool   `yaml:"visible"`
	Message string `yaml:"message"`
}

type PartyFile struct {
	Location           `yaml:",inline"`
	Champions          []ChampionFile `yaml:"champions"`
	MagicalLightAmount int            `yaml:"light,omitempty"`
	ShieldDefense      int            `yaml:"shield,omitempty"`
	SpellShieldDefense int            `yaml:"spell_shield,omitempty"`
	FireShieldDefense  int            `yaml:"fire_shield,omitempty"`
	Invisibility       int            `yaml:"invisibility,omitempty"`
	ThievesEye         int            `yaml:"thieves_eye,omitempty"`
	Footprints         int            `yaml:"footprints,omitempty"`
	FreezeLifeTicks    int            `yaml:"freeze_life,omitempty"`
}

type ChampionFile struct {
	Name             string `yaml:"name"`
	Health           int    `yaml:"health"`
	MaxHealth        int    `yaml:"max_health,omitempty"`
	ShieldDefense    int    `yaml:"shield,omitempty"`
	PoisonEventCount int    `yaml:"poison_events,omitempty"`
	ActionDisabled   bool   `yaml:"action_disabled,omitempty"`
	DamageShown      bool   `yaml:"damage_shown,omitempty"`
}

// GroupFile describes a group. Either Health lists every creature, or
// Count creatures start with HealthEach.
type GroupFile struct {
	ID           Thing  `yaml:"id,omitempty"`
	Kind         string `yaml:"kind"`
	Location     `yaml:",inline"`
	Count        int    `yaml:"count,omitempty"`
	HealthEach   int    `yaml:"health_each,omitempty"`
	Health       []int  `yaml:"health,omitempty"`
	Behavior     string `yaml:"behavior,omitempty"`
	LastMoveTick uint32 `yaml:"last_move_tick,omitempty"`
}

type ProjectileFile struct {
	ID        Thing  `yaml:"id"`
	Name      string `yaml:"name"`
	Spell     bool   `yaml:"spell,omitempty"`
	Location  `yaml:",inline"`
	Direction uint8  `yaml:"direction"`
	Energy    uint8  `yaml:"energy"`
	Attack    uint8  `yaml:"attack"`
	Explosion string `yaml:"explosion,omitempty"`
}

type ExplosionFile struct {
	ID       Thing  `yaml:"id"`
	Kind     string `yaml:"kind"`
	Location `yaml:",inline"`
	Attack   uint8 `yaml:"attack"`
}

// Load reads a dungeon file. A file on disk under levels/ wins over the
// embedded copy of the same name.
func Load(name string) (*Dungeon, error) {
	clean := cleanLevelPath(name)
	data, err := os.ReadFile(diskLevelPath(clean))
	if err != nil {
		data, err = LevelsFS.ReadFile("levels/" + clean)
	}
	if err != nil {
		return nil, fmt.Errorf("dungeon: load %s: %w", name, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("dungeon: load %s: %w", name, err)
	}
	return d, nil
}

// LoadFile reads a dungeon file from an explicit path.
func LoadFile(path string) (*Dungeon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dungeon: load %s: %w", path, err)
	}
	return Parse(data)
}

func cleanLevelPath(name string) string {
	s := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(s, "levels/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

func diskLevelPath(clean string) string {
	return filepath.Join("levels", filepath.FromSlash(clean))
}

// Parse decodes YAML into a dungeon.
func Parse(data []byte) (*Dungeon, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dungeon: unmarshal: %w", err)
	}
	return f.Build()
}

// Build turns the file form into a live dungeon.
func (f *File) Build() (*Dungeon, error) {
	d := New(f.Name)
	for i, mf := range f.Maps {
		m, err := mf.build(uint8(i))
		if err != nil {
			return nil, fmt.Errorf("dungeon: map %d: %w", i, err)
		}
		if err := d.AddMap(m); err != nil {
			return nil, err
		}
	}
	if err := f.buildParty(d); err != nil {
		return nil, err
	}
	if err := f.buildThings(d); err != nil {
		return nil, err
	}
	d.SetCurrentMap(d.Party.Map)
	return d, nil
}

func (mf *MapFile) build(index uint8) (*Map, error) {
	height := len(mf.Rows)
	if height == 0 {
		return nil, fmt.Errorf("no rows")
	}
	width := len(mf.Rows[0])
	m := NewMap(index, width, height)
	m.Difficulty = mf.Difficulty
	for y, row := range mf.Rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d squares, want %d", y, len(row), width)
		}
		for x := 0; x < width; x++ {
			e, ok := elementFromChar(row[x])
			if !ok {
				return nil, fmt.Errorf("unknown square %q at %d,%d", row[x], x, y)
			}
			sq := m.Square(x, y)
			sq.Element = e
			switch e {
			case ElementDoor:
				sq.DoorState = DoorClosed
			case ElementPit, ElementTeleporter:
				sq.Open = true
			}
		}
	}
	for _, sf := range mf.Squares {
		sq := m.Square(int(sf.X), int(sf.Y))
		if sq == nil {
			return nil, fmt.Errorf("%w: square %d,%d", ErrOutOfRange, sf.X, sf.Y)
		}
		if sf.Open != nil {
			sq.Open = *sf.Open
		}
		if sf.Door != "" {
			st, err := parseDoorState(sf.Door)
			if err != nil {
				return nil, err
			}
			sq.DoorState = st
		}
		sq.Vertical = sf.Vertical
		if sf.To != nil {
			sq.Destination = *sf.To
		}
		sq.Items = append(sq.Items, sf.Items...)
	}
	for _, sf := range mf.Sensors {
		sq := m.Square(int(sf.X), int(sf.Y))
		if sq == nil {
			return nil, fmt.Errorf("%w: sensor at %d,%d", ErrOutOfRange, sf.X, sf.Y)
		}
		s, err := sf.build()
		if err != nil {
			return nil, fmt.Errorf("sensor at %d,%d: %w", sf.X, sf.Y, err)
		}
		sq.Sensors = append(sq.Sensors, s)
	}
	for _, tf := range mf.Texts {
		sq := m.Square(int(tf.X), int(tf.Y))
		if sq == nil {
			return nil, fmt.Errorf("%w: text at %d,%d", ErrOutOfRange, tf.X, tf.Y)
		}
		sq.Texts = append(sq.Texts, &Text{Cell: tf.Cell, Visible: tf.Visible, Message: tf.Message})
	}
	return m, nil
}

func parseDoorState(name string) (DoorState, error) {
	for s := DoorOpen; s <= DoorDestroyed; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return DoorClosed, fmt.Errorf("unknown door state %q", name)
}

func (sf *SensorFile) build() (*Sensor, error) {
	typ, err := ParseSensorType(sf.Type)
	if err != nil {
		return nil, err
	}
	effect, ok := timeline.ParseEffect(sf.Effect)
	if !ok {
		return nil, fmt.Errorf("unknown effect %q", sf.Effect)
	}
	s := &Sensor{
		Type:             typ,
		Cell:             sf.Cell,
		Data:             sf.Data,
		Effect:           effect,
		Delay:            sf.Delay,
		OnlyOnce:         sf.OnlyOnce,
		Audible:          sf.Audible,
		Revert:           sf.Revert,
		Disabled:         sf.Disabled,
		Kind:             sf.Kind,
		Power:            sf.Power,
		Count:            sf.Count,
		RandomCount:      sf.RandomCount,
		HealthMultiplier: sf.HealthMultiplier,
		RearmTicks:       sf.RearmTicks,
	}
	if sf.Target != nil {
		s.TargetX, s.TargetY, s.TargetCell = sf.Target.X, sf.Target.Y, sf.Target.Cell
	}
	return s, nil
}

func (f *File) buildParty(d *Dungeon) error {
	pf := f.Party
	if d.SquareAt(pf.Location) == nil {
		return fmt.Errorf("%w: party at %s", ErrOutOfRange, pf.Location)
	}
	d.Party = Party{
		MagicalLightAmount: pf.MagicalLightAmount,
		ShieldDefense:      pf.ShieldDefense,
		SpellShieldDefense: pf.SpellShieldDefense,
		FireShieldDefense:  pf.FireShieldDefense,
		Invisibility:       pf.Invisibility,
		ThievesEye:         pf.ThievesEye,
		Footprints:         pf.Footprints,
		FreezeLifeTicks:    pf.FreezeLifeTicks,
	}
	d.Party.MoveTo(pf.Location)
	for _, cf := range pf.Champions {
		maxHealth := cf.MaxHealth
		if maxHealth == 0 {
			maxHealth = cf.Health
		}
		d.Party.Champions = append(d.Party.Champions, &Champion{
			Name:             cf.Name,
			Health:           cf.Health,
			MaxHealth:        maxHealth,
			ShieldDefense:    cf.ShieldDefense,
			PoisonEventCount: cf.PoisonEventCount,
			ActionDisabled:   cf.ActionDisabled,
			DamageShown:      cf.DamageShown,
		})
	}
	return nil
}

// buildThings restores things that carry saved ids before creating the
// rest, so fresh ids never collide with saved ones.
func (f *File) buildThings(d *Dungeon) error {
	for _, gf := range f.Groups {
		if gf.ID != NoThing {
			if err := d.things.restore(gf.ID); err != nil {
				return err
			}
		}
	}
	for _, pf := range f.Projectiles {
		if err := d.things.restore(pf.ID); err != nil {
			return err
		}
	}
	for _, xf := range f.Explosions {
		if err := d.things.restore(xf.ID); err != nil {
			return err
		}
	}

	for _, gf := range f.Groups {
		g, err := gf.build()
		if err != nil {
			return err
		}
		if d.SquareAt(g.Location) == nil {
			return fmt.Errorf("%w: group at %s", ErrOutOfRange, g.Location)
		}
		if gf.ID == NoThing {
			if _, err := d.AddGroup(g); err != nil {
				return err
			}
			continue
		}
		g.ID = gf.ID
		d.groups.Set(gf.ID.index(), g)
	}
	for _, pf := range f.Projectiles {
		kind := ProjectileObject
		if pf.Spell {
			kind = ProjectileSpell
		}
		burst, err := ParseExplosionKind(pf.Explosion)
		if err != nil {
			return err
		}
		d.projectiles.Set(pf.ID.index(), &Projectile{
			ID:        pf.ID,
			Kind:      kind,
			Name:      pf.Name,
			Location:  pf.Location,
			Direction: Direction(pf.Direction & 3),
			Energy:    pf.Energy,
			Attack:    pf.Attack,
			Explosion: burst,
		})
	}
	for _, xf := range f.Explosions {
		kind, err := ParseExplosionKind(xf.Kind)
		if err != nil {
			return err
		}
		d.explosions.Set(xf.ID.index(), &Explosion{ID: xf.ID, Kind: kind, Location: xf.Location, Attack: xf.Attack})
	}
	return nil
}

func (gf *GroupFile) build() (*Group, error) {
	behavior, err := ParseBehavior(gf.Behavior)
	if err != nil {
		return nil, err
	}
	health := append([]int(nil), gf.Health...)
	if len(health) == 0 {
		count := gf.Count
		if count <= 0 {
			count = 1
		}
		each := gf.HealthEach
		if each <= 0 {
			each = 1
		}
		for i := 0; i < count; i++ {
			health = append(health, each)
		}
	}
	if len(health) > MaxCreatures {
		return nil, fmt.Errorf("dungeon: group of %d %s exceeds %d creatures", len(health), gf.Kind, MaxCreatures)
	}
	return &Group{
		Kind:         gf.Kind,
		Location:     gf.Location,
		Health:       health,
		Behavior:     behavior,
		LastMoveTick: gf.LastMoveTick,
	}, nil
}

// Marshal encodes the dungeon with its current state.
func (d *Dungeon) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d.Export())
	if err != nil {
		return nil, fmt.Errorf("dungeon: marshal: %w", err)
	}
	return data, nil
}

// Export captures the live dungeon, thing ids included.
func (d *Dungeon) Export() *File {
	f := &File{Name: d.Name}
	for _, m := range d.Maps {
		f.Maps = append(f.Maps, exportMap(m))
	}

	p := &d.Party
	f.Party = PartyFile{
		Location:           p.Location(),
		MagicalLightAmount: p.MagicalLightAmount,
		ShieldDefense:      p.ShieldDefense,
		SpellShieldDefense: p.SpellShieldDefense,
		FireShieldDefense:  p.FireShieldDefense,
		Invisibility:       p.Invisibility,
		ThievesEye:         p.ThievesEye,
		Footprints:         p.Footprints,
		FreezeLifeTicks:    p.FreezeLifeTicks,
	}
	for _, c := range p.Champions {
		f.Party.Champions = append(f.Party.Champions, ChampionFile{
			Name:             c.Name,
			Health:           c.Health,
			MaxHealth:        c.MaxHealth,
			ShieldDefense:    c.ShieldDefense,
			PoisonEventCount: c.PoisonEventCount,
			ActionDisabled:   c.ActionDisabled,
			DamageShown:      c.DamageShown,
		})
	}

	for _, g := range d.groups.Values() {
		f.Groups = append(f.Groups, GroupFile{
			ID:           g.ID,
			Kind:         g.Kind,
			Location:     g.Location,
			Health:       append([]int(nil), g.Health...),
			Behavior:     g.Behavior.String(),
			LastMoveTick: g.LastMoveTick,
		})
	}
	for _, pr := range d.projectiles.Values() {
		f.Projectiles = append(f.Projectiles, ProjectileFile{
			ID:        pr.ID,
			Name:      pr.Name,
			Spell:     pr.Kind == ProjectileSpell,
			Location:  pr.Location,
			Direction: uint8(pr.Direction),
			Energy:    pr.Energy,
			Attack:    pr.Attack,
			Explosion: pr.Explosion.String(),
		})
	}
	for _, x := range d.explosions.Values() {
		f.Explosions = append(f.Explosions, ExplosionFile{ID: x.ID, Kind: x.Kind.String(), Location: x.Location, Attack: x.Attack})
	}
	return f
}

func exportMap(m *Map) MapFile {
	mf := MapFile{Difficulty: m.Difficulty}
	for y := 0; y < m.Height; y++ {
		row := make([]byte, m.Width)
		for x := 0; x < m.Width; x++ {
			sq := m.Square(x, y)
			row[x] = elementChars[sq.Element]
			if override, ok := exportSquare(sq, x, y); ok {
				mf.Squares = append(mf.Squares, override)
			}
			for _, s := range sq.Sensors {
				mf.Sensors = append(mf.Sensors, exportSensor(s, x, y))
			}
			for _, t := range sq.Texts {
				mf.Texts = append(mf.Texts, TextFile{X: uint8(x), Y: uint8(y), Cell: t.Cell, Visible: t.Visible, Message: t.Message})
			}
		}
		mf.Rows = append(mf.Rows, string(row))
	}
	return mf
}

func exportSquare(sq *Square, x, y int) (SquareFile, bool) {
	sf := SquareFile{X: uint8(x), Y: uint8(y), Items: append([]string(nil), sq.Items...)}
	switch sq.Element {
	case ElementDoor:
		sf.Door = sq.DoorState.String()
		sf.Vertical = sq.Vertical
	case ElementTeleporter:
		open := sq.Open
		sf.Open = &open
		to := sq.Destination
		sf.To = &to
	case ElementPit, ElementFakeWall:
		open := sq.Open
		sf.Open = &open
	default:
		if len(sf.Items) == 0 {
			return sf, false
		}
	}
	return sf, true
}

func exportSensor(s *Sensor, x, y int) SensorFile {
	return SensorFile{
		X:                uint8(x),
		Y:                uint8(y),
		Type:             s.Type.String(),
		Cell:             s.Cell,
		Data:             s.Data,
		Target:           &TargetFile{X: s.TargetX, Y: s.TargetY, Cell: s.TargetCell},
		Effect:           s.Effect.String(),
		Delay:            s.Delay,
		OnlyOnce:         s.OnlyOnce,
		Audible:          s.Audible,
		Revert:           s.Revert,
		Disabled:         s.Disabled,
		Kind:             s.Kind,
		Power:            s.Power,
		Count:            s.Count,
		RandomCount:      s.RandomCount,
		HealthMultiplier: s.HealthMultiplier,
		RearmTicks:       s.RearmTicks,
	}
}
