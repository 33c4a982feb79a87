package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/milk9111/dungeon/savegame"
	"github.com/milk9111/dungeon/timeline"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

func openStore() (savegame.Store, error) {
	if strings.HasSuffix(storePath, ".db") {
		return savegame.OpenSQLite(storePath)
	}
	return savegame.NewFileStore(afero.NewOsFs(), storePath)
}

func loadSnapshot(ctx context.Context, store savegame.Store, arg string) (*savegame.Snapshot, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return nil, fmt.Errorf("bad save id %q: %w", arg, err)
	}
	return store.Load(ctx, id)
}

func list(c *cli.Context) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("dmsim: no saved games")
		return nil
	}
	fmt.Printf("%-36s  %-16s  %8s  %6s  %8s  %s\n", "ID", "NAME", "TICK", "EVENTS", "SIZE", "SAVED")
	for _, info := range infos {
		fmt.Printf("%-36s  %-16s  %8s  %6d  %8s  %s\n",
			info.ID, info.Name, humanize.Comma(int64(info.Tick)), info.Events,
			humanize.Bytes(uint64(info.Size)), humanize.Time(info.SavedAt))
	}
	return nil
}

func inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := loadSnapshot(context.Background(), store, c.Args().First())
	if err != nil {
		return err
	}
	sched, err := timeline.Decode(snap.Timeline)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %q\n", snap.ID, snap.Name)
	fmt.Printf("saved %s, tick %s\n", humanize.Time(snap.SavedAt), humanize.Comma(int64(snap.Tick)))
	fmt.Printf("timeline %s, world %s\n", humanize.Bytes(uint64(len(snap.Timeline))), humanize.Bytes(uint64(len(snap.World))))
	fmt.Printf("%d of %d slots in use\n", sched.Len(), sched.Cap())
	for _, ev := range sched.Pending() {
		fmt.Printf("  %s\n", ev)
	}
	return nil
}

func remove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("bad save id %q: %w", c.Args().First(), err)
	}
	return store.Delete(context.Background(), id)
}
