package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/textiles-lab/jacquard/internal/hoard"
	"github.com/textiles-lab/jacquard/internal/printer"
	"github.com/textiles-lab/jacquard/internal/resolver"
	"github.com/textiles-lab/jacquard/internal/timespec"
)

var (
	hoardOutputFormat string
	hoardSince        string
	hoardUntil        string
	hoardName         string
	hoardCarrier      int
	hoardRaw          bool
)

var hoardCmd = &cobra.Command{
	Use:   "hoard [PROGRAM_ID]",
	Short: "Inspect archived knitout programs",
	Long: `Inspect archived programs in list or get mode.

List Mode (no PROGRAM_ID):
  Displays programs matching filters as a table or JSONL stream, oldest first.

Get Mode (with PROGRAM_ID):
  Displays a single program as pretty-printed JSON, or its knitout text with
  --raw. Supports short IDs (e.g., "abc123" instead of full UUID).

Output Formats (list mode only):
  default - Human-readable table
  jsonl   - Line-delimited JSON, one program per line (without knitout text)

Filters (list mode only):
  --since    - Programs archived after this time (duration or RFC3339)
  --until    - Programs archived before this time
  --name     - Program name (glob pattern: "scarf*")
  --carrier  - Programs that use this carrier

Examples:
  # List everything archived in the last day
  jacquard hoard --since=24h

  # Programs that need carrier 6
  jacquard hoard --carrier 6

  # Re-knit an archived program
  jacquard hoard 3fa2c1 --raw > tube.k`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHoard,
}

func init() {
	hoardCmd.Flags().StringVarP(&hoardOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")

	// Time-based filters
	hoardCmd.Flags().StringVar(&hoardSince, "since", "", "Show programs after time (duration or RFC3339)")
	hoardCmd.Flags().StringVar(&hoardUntil, "until", "", "Show programs before time (duration or RFC3339)")

	// Content-based filters
	hoardCmd.Flags().StringVar(&hoardName, "name", "", "Filter by program name (glob pattern)")
	hoardCmd.Flags().IntVar(&hoardCarrier, "carrier", 0, "Filter by carrier used")

	hoardCmd.Flags().BoolVar(&hoardRaw, "raw", false, "Get mode: print only the knitout text")

	rootCmd.AddCommand(hoardCmd)
}

func runHoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Determine mode based on arguments
	isGetMode := len(args) > 0

	// Validate output format (only applies to list mode)
	var outputFormat hoard.OutputFormat
	if !isGetMode {
		switch hoardOutputFormat {
		case "default":
			outputFormat = hoard.OutputFormatDefault
		case "jsonl":
			outputFormat = hoard.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", hoardOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if isGetMode {
		shortID := args[0]

		fullID, err := resolver.ResolveProgramID(ctx, client, shortID)
		if err != nil {
			if resolver.IsNotFoundError(err) {
				return printer.Error(
					fmt.Sprintf("program with ID '%s' not found", shortID),
					"The specified program is not in the archive.",
					[]string{"List all programs:\n  jacquard hoard"},
				)
			}
			var ambigErr *resolver.AmbiguousError
			if errors.As(err, &ambigErr) {
				printer.Println(resolver.FormatAmbiguousError(ambigErr))
				return &printer.ReportedError{Title: "ambiguous short ID"}
			}
			return printer.Error("invalid program ID", err.Error(), nil)
		}

		err = hoard.GetProgram(ctx, client, fullID, hoardRaw, cmd.OutOrStdout())
		if err != nil {
			if hoard.IsNotFound(err) {
				return printer.Error(
					fmt.Sprintf("program with ID '%s' not found", fullID),
					"The program was resolved but could not be fetched.",
					[]string{"This might indicate a race condition. Try again."},
				)
			}
			return fmt.Errorf("failed to get program: %w", err)
		}
		return nil
	}

	rng, err := timespec.ParseRange(hoardSince, hoardUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	filterCriteria := &hoard.FilterCriteria{
		SinceTimestampMs: rng.SinceMs,
		UntilTimestampMs: rng.UntilMs,
		NameGlob:         hoardName,
		Carrier:          hoardCarrier,
	}

	if err := hoard.ListPrograms(ctx, client, outputFormat, filterCriteria, cmd.OutOrStdout()); err != nil {
		return printer.Error("failed to list programs", err.Error(), nil)
	}
	return nil
}
