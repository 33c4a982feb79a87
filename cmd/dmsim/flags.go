package main

import "github.com/urfave/cli"

var (
	storePath  string
	configPath string
	verbose    bool

	levelName    string
	resumeID     string
	scenarioName string
	ticks        uint
	saveName     string
	watch        bool

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "store, s",
			Usage:       "save location: a directory, or a file ending in .db for sqlite",
			Value:       "saves",
			EnvVar:      "DM_STORE",
			Destination: &storePath,
		},
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "YAML file overriding the built-in configuration",
			EnvVar:      "DM_CONFIG",
			Destination: &configPath,
		},
		cli.BoolFlag{
			Name:        "verbose, v",
			Usage:       "log ignored events",
			Destination: &verbose,
		},
	}

	runFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "level, l",
			Usage:       "level name in levels/",
			Value:       "trials",
			Destination: &levelName,
		},
		cli.StringFlag{
			Name:        "resume, r",
			Usage:       "continue the saved game with this id instead of a fresh level",
			Destination: &resumeID,
		},
		cli.StringFlag{
			Name:        "scenario",
			Usage:       "scenario script in scripts/ to seed the timeline with",
			Destination: &scenarioName,
		},
		cli.UintFlag{
			Name:        "ticks, t",
			Usage:       "ticks to advance (default: the scenario's ticks, or 100)",
			Destination: &ticks,
		},
		cli.StringFlag{
			Name:        "save",
			Usage:       "save the game under this name when done",
			Destination: &saveName,
		},
		cli.BoolFlag{
			Name:        "watch, w",
			Usage:       "reload --config while running",
			Destination: &watch,
		},
	}
)
