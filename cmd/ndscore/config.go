// config.go - Command-line configuration

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
config.go - Config

The teacher has no config file format: main.go assembles a GUIConfig
struct literal straight from flag/arg values (NewSystemBus, DisplayConfig).
This repository follows suit with one Config struct carrying functional
defaults, built by parseFlags and passed down to the pieces that need it
rather than each reading package-level flag vars directly.
*/

package main

import (
	"flag"
	"fmt"
	"os"
)

// Config holds everything main needs to boot and run one session.
type Config struct {
	ROMPath       string
	Headless      bool
	Scale         int
	WorkerThreads int
	LoadState     string
	SaveState     string
	Breakpoint    uint
}

func parseFlags() Config {
	cfg := Config{Scale: 2, WorkerThreads: 4}

	flag.BoolVar(&cfg.Headless, "headless", false, "run without a presented window (status line only)")
	flag.IntVar(&cfg.Scale, "scale", cfg.Scale, "integer window scale factor")
	flag.IntVar(&cfg.WorkerThreads, "worker-threads", cfg.WorkerThreads, "software rasterizer strip-worker count")
	flag.StringVar(&cfg.LoadState, "load-state", "", "restore a save-state file before booting")
	flag.StringVar(&cfg.SaveState, "save-state", "", "write a save-state file on exit")
	flag.UintVar(&cfg.Breakpoint, "break", 0, "halt ARM9 execution at this address (hex accepted via 0x prefix) and print a register dump")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] romfile.nds\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	cfg.ROMPath = flag.Arg(0)
	if cfg.WorkerThreads < 1 {
		cfg.WorkerThreads = 1
	}
	return cfg
}
