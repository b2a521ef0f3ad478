package main

import (
	"os"

	"github.com/textiles-lab/jacquard/cmd/jacquard/commands"
	"github.com/textiles-lab/jacquard/internal/printer"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Most errors are printed by the printer package as they happen; the
	// rest (bad flags, wrong argument counts) are printed here
	if err := commands.Execute(); err != nil {
		if !printer.IsReported(err) {
			_ = printer.Error(err.Error(), "", []string{"Run 'jacquard --help' for usage."})
		}
		os.Exit(1)
	}
}
