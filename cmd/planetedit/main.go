// Planetedit is the companion authoring tool for PlanetCore event
// interchange files.
// Usage: planetedit [--version] <events.json>
package main

import (
	"fmt"
	"os"

	"github.com/selka/planetcore/editor"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var path string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("planetedit %s (commit %s, built %s)\n", version, commit, date)
			return
		default:
			if path == "" {
				path = args[i]
			}
		}
	}

	if path == "" {
		fmt.Fprintf(os.Stderr, "Usage: planetedit [--version] <events.json>\n")
		os.Exit(1)
	}

	if err := editor.Run(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
