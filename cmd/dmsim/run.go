package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/milk9111/dungeon/config"
	"github.com/milk9111/dungeon/dungeon"
	"github.com/milk9111/dungeon/engine"
	"github.com/milk9111/dungeon/savegame"
	"github.com/milk9111/dungeon/scenario"
	"github.com/milk9111/dungeon/timeline"
	"github.com/urfave/cli"
)

const defaultTicks = 100

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "dmsim: ", log.Ltime)
	opts := []engine.Option{engine.WithLogger(logger, verbose), engine.WithEnding(ending{logger})}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var e *engine.Engine
	if resumeID != "" {
		snap, err := loadSnapshot(ctx, store, resumeID)
		if err != nil {
			return err
		}
		if e, err = snap.Restore(cfg, opts...); err != nil {
			return err
		}
		log.Printf("resumed %q at tick %d", snap.Name, snap.Tick)
	} else {
		world, err := dungeon.Load(levelName)
		if err != nil {
			return err
		}
		e = engine.New(cfg, world, opts...)
		if err := e.Start(); err != nil {
			return fatal(err)
		}
	}

	n := uint32(ticks)
	if scenarioName != "" {
		src, err := scenario.Load(scenarioName)
		if err != nil {
			return err
		}
		res, err := scenario.Run(ctx, e, scenarioName, src)
		if err != nil {
			return fatal(err)
		}
		log.Printf("scenario %s scheduled %d events", res.Name, len(res.Scheduled))
		if n == 0 {
			n = res.Ticks
		}
	}
	if n == 0 {
		n = defaultTicks
	}

	var updates <-chan *config.Config
	var reloadErrs <-chan error
	if watch {
		if configPath == "" {
			return errors.New("--watch needs --config")
		}
		w, err := config.NewWatcher(configPath)
		if err != nil {
			return err
		}
		defer w.Close()
		updates, reloadErrs = w.Updates, w.Errors
	}

	start := e.Tick()
loop:
	for i := uint32(0); i < n && !e.Ended(); i++ {
		select {
		case <-ctx.Done():
			log.Printf("interrupted at tick %d", e.Tick())
			break loop
		case next, ok := <-updates:
			if !ok {
				updates = nil
				break
			}
			if err := e.SetConfig(next); err != nil {
				log.Printf("config reload rejected: %v", err)
			} else {
				log.Printf("config reloaded")
			}
		case err, ok := <-reloadErrs:
			if !ok {
				reloadErrs = nil
				break
			}
			log.Printf("config reload failed: %v", err)
		default:
		}
		if err := e.Step(); err != nil {
			return fatal(err)
		}
	}

	printSummary(e, start)

	if saveName != "" {
		snap, err := savegame.Capture(e, saveName)
		if err != nil {
			return err
		}
		if err := store.Save(context.Background(), snap); err != nil {
			return err
		}
		fmt.Printf("saved %q as %s (%s)\n", snap.Name, snap.ID, humanize.Bytes(uint64(snap.Info().Size)))
	}
	return nil
}

// fatal reports a full timeline as an exit error.
func fatal(err error) error {
	if errors.Is(err, timeline.ErrTimelineFull) {
		return cli.NewExitError(fmt.Sprintf("dmsim: %v; raise timeline.capacity", err), 2)
	}
	return err
}

func printSummary(e *engine.Engine, start uint32) {
	world := e.World()
	fmt.Printf("tick %s (+%s)\n", humanize.Comma(int64(e.Tick())), humanize.Comma(int64(e.Tick()-start)))
	fmt.Printf("pending events: %d of %d\n", e.Scheduler().Len(), e.Scheduler().Cap())
	fmt.Printf("party at %s, light %d\n", world.Party.Location(), world.Party.MagicalLightAmount)
	for _, c := range world.Party.Champions {
		fmt.Printf("  %-10s %3d/%d\n", c.Name, c.Health, c.MaxHealth)
	}
	fmt.Printf("groups: %d\n", len(world.Groups()))
	if e.Ended() {
		fmt.Println("the game has ended")
	}
}

type ending struct{ logger *log.Logger }

func (end ending) End() { end.logger.Print("end-game sensor triggered") }
