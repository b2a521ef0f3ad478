package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/printer"
)

var (
	carriersFile   string
	carriersOutput string
)

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "Show the yarn colour to carrier table",
	Long: `Show the table that maps pixel colours to machine carriers.

The table comes from --carriers when given, otherwise from jacquard.yml,
otherwise from the built-in shop table. Yarns that are known but not loaded
on the machine are flagged.

Output Formats:
  default - Human-readable table
  json    - Carrier mapping document, usable with 'compile --carriers'`,
	Args: cobra.NoArgs,
	RunE: runCarriers,
}

func init() {
	carriersCmd.Flags().StringVar(&carriersFile, "carriers", "", "Carrier mapping file to show instead of the configured table")
	carriersCmd.Flags().StringVarP(&carriersOutput, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(carriersCmd)
}

func runCarriers(cmd *cobra.Command, args []string) error {
	if carriersOutput != "default" && carriersOutput != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", carriersOutput),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(cfg, carriersFile)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if carriersOutput == "json" {
		data, err := json.MarshalIndent(reg.Records(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode carrier table: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	return formatCarrierTable(w, reg.Entries())
}

func formatCarrierTable(w io.Writer, entries []palette.Entry) error {
	if _, err := fmt.Fprintf(w, "%-8s  %-7s  %s\n", "COLOR", "CARRIER", "LABEL"); err != nil {
		return err
	}
	for _, e := range entries {
		carrier := fmt.Sprintf("%d", e.Carrier)
		if !e.Carrier.Loaded() {
			carrier = "-"
		}
		label := e.Label
		if !e.Carrier.Loaded() {
			label += " (not loaded)"
		}
		if _, err := fmt.Fprintf(w, "%-8s  %-7s  %s\n", e.Color.Hex(), carrier, label); err != nil {
			return err
		}
	}
	return nil
}
