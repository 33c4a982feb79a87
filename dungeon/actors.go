package dungeon

import "fmt"

// Behavior is the current intent of a group.
type Behavior uint8

const (
	BehaviorWander Behavior = iota
	BehaviorApproach
	BehaviorAttack
	BehaviorFlee
)

func (b Behavior) String() string {
	switch b {
	case BehaviorWander:
		return "wander"
	case BehaviorApproach:
		return "approach"
	case BehaviorAttack:
		return "attack"
	case BehaviorFlee:
		return "flee"
	}
	return fmt.Sprintf("behavior(%d)", uint8(b))
}

// ParseBehavior resolves a behavior name. Empty means wander.
func ParseBehavior(name string) (Behavior, error) {
	switch name {
	case "", "wander":
		return BehaviorWander, nil
	case "approach":
		return BehaviorApproach, nil
	case "attack":
		return BehaviorAttack, nil
	case "flee":
		return BehaviorFlee, nil
	}
	return BehaviorWander, fmt.Errorf("dungeon: unknown behavior %q", name)
}

// MaxCreatures is the size of a full group.
const MaxCreatures = 4

// Group is up to four creatures of one kind sharing a square.
type Group struct {
	ID       Thing
	Kind     string
	Location Location
	Health   []int
	Behavior Behavior

	LastMoveTick uint32
	Aspect       [MaxCreatures]uint8
}

// Count returns the number of live creatures.
func (g *Group) Count() int {
	return len(g.Health)
}

// Damage hits every creature and removes the dead. It returns how many
// died.
func (g *Group) Damage(amount int) int {
	if amount <= 0 {
		return 0
	}
	alive := g.Health[:0]
	killed := 0
	for _, h := range g.Health {
		h -= amount
		if h <= 0 {
			killed++
			continue
		}
		alive = append(alive, h)
	}
	g.Health = alive
	return killed
}

// ProjectileKind separates thrown objects from spells.
type ProjectileKind uint8

const (
	ProjectileObject ProjectileKind = iota
	ProjectileSpell
)

// Projectile is a flying object or spell.
type Projectile struct {
	ID        Thing
	Kind      ProjectileKind
	Name      string
	Location  Location
	Direction Direction
	// Energy drops every move; the projectile falls when it runs out.
	Energy uint8
	Attack uint8
	// Explosion is set for spells that burst on impact.
	Explosion ExplosionKind
}

// ExplosionKind identifies an explosion.
type ExplosionKind uint8

const (
	ExplosionNone ExplosionKind = iota
	ExplosionFireball
	ExplosionLightning
	ExplosionPoisonCloud
	ExplosionFluxcage
)

var explosionNames = map[ExplosionKind]string{
	ExplosionFireball:    "fireball",
	ExplosionLightning:   "lightning",
	ExplosionPoisonCloud: "poison_cloud",
	ExplosionFluxcage:    "fluxcage",
}

func (k ExplosionKind) String() string {
	if n, ok := explosionNames[k]; ok {
		return n
	}
	return "none"
}

// ParseExplosionKind resolves an explosion name.
func ParseExplosionKind(name string) (ExplosionKind, error) {
	if name == "" || name == "none" {
		return ExplosionNone, nil
	}
	for k, n := range explosionNames {
		if n == name {
			return k, nil
		}
	}
	return ExplosionNone, fmt.Errorf("dungeon: unknown explosion %q", name)
}

// Explosion is a burst, a lingering poison cloud or a fluxcage.
type Explosion struct {
	ID       Thing
	Kind     ExplosionKind
	Location Location
	Attack   uint8
}

// Champion is one party member.
type Champion struct {
	Name      string
	Health    int
	MaxHealth int

	ShieldDefense    int
	PoisonEventCount int
	ActionDisabled   bool
	DamageShown      bool
}

// Alive reports whether the champion has health left.
func (c *Champion) Alive() bool {
	return c != nil && c.Health > 0
}

// Damage lowers health and reports whether the champion was hit.
func (c *Champion) Damage(amount int) bool {
	if !c.Alive() || amount <= 0 {
		return false
	}
	c.Health -= amount
	if c.Health < 0 {
		c.Health = 0
	}
	c.DamageShown = true
	return true
}

// Party is the player's team and its party wide magic.
type Party struct {
	Map       uint8
	X, Y      uint8
	Champions []*Champion

	MagicalLightAmount int
	ShieldDefense      int
	SpellShieldDefense int
	FireShieldDefense  int
	Invisibility       int
	ThievesEye         int
	Footprints         int
	FreezeLifeTicks    int
}

// Location returns where the party stands.
func (p *Party) Location() Location {
	return Location{Map: p.Map, X: p.X, Y: p.Y}
}

// MoveTo moves the party.
func (p *Party) MoveTo(l Location) {
	p.Map, p.X, p.Y = l.Map, l.X, l.Y
}

// Alive reports whether any champion lives.
func (p *Party) Alive() bool {
	for _, c := range p.Champions {
		if c.Alive() {
			return true
		}
	}
	return false
}

// Champion returns champion i or nil.
func (p *Party) Champion(i int) *Champion {
	if i < 0 || i >= len(p.Champions) {
		return nil
	}
	return p.Champions[i]
}

// DamageAll hits every living champion and returns how many were hit.
func (p *Party) DamageAll(amount int) int {
	hit := 0
	for _, c := range p.Champions {
		if c.Damage(amount) {
			hit++
		}
	}
	return hit
}
