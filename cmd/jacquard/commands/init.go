package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/textiles-lab/jacquard/internal/printer"
	"github.com/textiles-lab/jacquard/internal/scaffold"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the default carrier table",
	Long: `Write jacquard settings with the built-in carrier table and machine defaults.

Creates:
  • jacquard.yml  - Compiler, machine and archive settings
  • carriers.json - The carrier table alone, for 'compile --carriers'

Use --force to replace existing files (WARNING: destroys existing settings).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Replace existing jacquard.yml and carriers.json")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write the files into")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return printer.Error("settings already exist", err.Error(), nil)
		}
	}

	paths, err := scaffold.Initialize(initDir, forceInit, printer.Out)
	if err != nil {
		return printer.Error("initialization failed", fmt.Sprintf("%v", err), nil)
	}

	scaffold.PrintSuccess(printer.Out, paths)
	return nil
}
