// PlanetCore is a deterministic, data-driven planetary simulation engine.
// Usage: planetcore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--climate <file>] <world_directory>
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/selka/planetcore/cli"
	"github.com/selka/planetcore/climate"
	"github.com/selka/planetcore/engine"
	"github.com/selka/planetcore/loader"
	"github.com/selka/planetcore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	var seed int64 = 1
	var worldDir string
	var scriptFile string
	var climateFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("planetcore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			v, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(1)
			}
			seed = v
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "--climate":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--climate requires a file path\n")
				os.Exit(1)
			}
			i++
			climateFile = args[i]
		default:
			if worldDir == "" {
				worldDir = args[i]
			}
		}
	}

	if worldDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: planetcore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--climate <file>] <world_directory>\n")
		os.Exit(1)
	}

	// Load and compile Lua world content.
	defs, err := loader.Load(worldDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading world: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(defs, seed)

	if climateFile != "" {
		model, err := climate.LoadFile(climateFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading climate model: %v\n", err)
			os.Exit(1)
		}
		eng.Climate = model
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(eng, defs)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng, defs)
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng, defs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
