// Package scenario seeds an engine from a tengo script. Scripts import the
// "dm" module:
//
//	dm := import("dm")
//	ticks := 100
//	dm.schedule({type: "door", tick: 3, x: 3, y: 1, effect: "toggle"})
//	dm.light(4, 30)
//
// schedule takes the event type name and either an absolute tick or a
// delay from now. The remaining keys fill the payload of that type. The
// optional global ticks says how long the scenario wants to run.
package scenario

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/timeline"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

var ErrScript = errors.New("scenario: script error")

// Engine is what a scenario can drive.
type Engine interface {
	Tick() uint32
	Schedule(ev timeline.Event) (timeline.Slot, error)
	CastLight(power int16, duration uint32) error
	Poison(champion int, attack int16) error
	GrantDefense(typ timeline.Type, champion int, defense int16, duration uint32) error
	CreateFluxcage(l dungeon.Location, duration uint32) (dungeon.Thing, error)
}

// Result describes what a script did.
type Result struct {
	Name      string
	Ticks     uint32
	Scheduled []timeline.Slot
}

// Load reads a script. A file on disk under scripts/ wins over the
// embedded copy of the same name.
func Load(name string) ([]byte, error) {
	clean := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(clean, "scripts/"); ok {
		clean = after
	}
	if filepath.Ext(clean) == "" {
		clean += ".tengo"
	}
	data, err := os.ReadFile(filepath.Join("scripts", filepath.FromSlash(clean)))
	if err != nil {
		data, err = ScriptsFS.ReadFile("scripts/" + clean)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", name, err)
	}
	return data, nil
}

// Run executes src against e. Events are scheduled as the script calls
// into the dm module, so a failing script may leave some behind.
func Run(ctx context.Context, e Engine, name string, src []byte) (*Result, error) {
	res := &Result{Name: name}
	modules := stdlib.GetModuleMap(stdlib.AllModuleNames()...)
	modules.AddBuiltinModule("dm", dmModule(e, res))

	script := tengo.NewScript(src)
	script.SetImports(modules)
	compiled, err := script.RunContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, name, err)
	}
	if compiled.IsDefined("ticks") {
		n := compiled.Get("ticks").Int()
		if n < 0 {
			return nil, fmt.Errorf("%w: %s: negative ticks %d", ErrScript, name, n)
		}
		res.Ticks = uint32(n)
	}
	return res, nil
}

func dmModule(e Engine, res *Result) map[string]tengo.Object {
	return map[string]tengo.Object{
		"tick": &tengo.UserFunction{Name: "tick", Value: func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Int{Value: int64(e.Tick())}, nil
		}},
		"schedule": &tengo.UserFunction{Name: "schedule", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			fields, ok := tengo.ToInterface(args[0]).(map[string]any)
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "event", Expected: "map", Found: args[0].TypeName()}
			}
			ev, err := eventFromFields(fields, e.Tick())
			if err != nil {
				return nil, err
			}
			slot, err := e.Schedule(ev)
			if err != nil {
				return nil, err
			}
			res.Scheduled = append(res.Scheduled, slot)
			return &tengo.Int{Value: int64(slot)}, nil
		}},
		"light": &tengo.UserFunction{Name: "light", Value: func(args ...tengo.Object) (tengo.Object, error) {
			n, err := ints(args, "power", "duration")
			if err != nil {
				return nil, err
			}
			return tengo.UndefinedValue, e.CastLight(int16(n[0]), uint32(n[1]))
		}},
		"poison": &tengo.UserFunction{Name: "poison", Value: func(args ...tengo.Object) (tengo.Object, error) {
			n, err := ints(args, "champion", "attack")
			if err != nil {
				return nil, err
			}
			return tengo.UndefinedValue, e.Poison(int(n[0]), int16(n[1]))
		}},
		"defense": &tengo.UserFunction{Name: "defense", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 4 {
				return nil, tengo.ErrWrongNumArguments
			}
			name, ok := tengo.ToString(args[0])
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "type", Expected: "string", Found: args[0].TypeName()}
			}
			typ, ok := timeline.ParseType(name)
			if !ok || !typ.IsDefense() {
				return nil, fmt.Errorf("%q is not a timed defense", name)
			}
			n, err := ints(args[1:], "champion", "defense", "duration")
			if err != nil {
				return nil, err
			}
			return tengo.UndefinedValue, e.GrantDefense(typ, int(n[0]), int16(n[1]), uint32(n[2]))
		}},
		"fluxcage": &tengo.UserFunction{Name: "fluxcage", Value: func(args ...tengo.Object) (tengo.Object, error) {
			n, err := ints(args, "map", "x", "y", "duration")
			if err != nil {
				return nil, err
			}
			id, err := e.CreateFluxcage(dungeon.Location{Map: uint8(n[0]), X: uint8(n[1]), Y: uint8(n[2])}, uint32(n[3]))
			if err != nil {
				return nil, err
			}
			return &tengo.Int{Value: int64(id)}, nil
		}},
	}
}

func ints(args []tengo.Object, names ...string) ([]int64, error) {
	if len(args) != len(names) {
		return nil, tengo.ErrWrongNumArguments
	}
	out := make([]int64, len(args))
	for i, a := range args {
		n, ok := tengo.ToInt64(a)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: names[i], Expected: "int", Found: a.TypeName()}
		}
		out[i] = n
	}
	return out, nil
}
