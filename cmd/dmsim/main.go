// Command dmsim runs a dungeon headless: it loads a level, optionally
// seeds it from a scenario script, advances the clock and saves the
// result.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("dmsim: ")

	app := cli.NewApp()
	app.Name = "dmsim"
	app.Usage = "run and inspect dungeon timelines"
	app.Version = "0.1.0"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "advance a level or a saved game",
			UsageText: "dmsim run [--level name | --resume id] [--scenario name] [--ticks n] [--save name]",
			Flags:     runFlags,
			Action:    run,
		},
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "list saved games",
			Action:  list,
		},
		{
			Name:      "inspect",
			Usage:     "print a saved game and its pending events",
			ArgsUsage: "<id>",
			Action:    inspect,
		},
		{
			Name:      "delete",
			Aliases:   []string{"rm"},
			Usage:     "delete a saved game",
			ArgsUsage: "<id>",
			Action:    remove,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
