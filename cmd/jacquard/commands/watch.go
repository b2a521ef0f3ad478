package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/textiles-lab/jacquard/internal/printer"
	"github.com/textiles-lab/jacquard/internal/watch"
)

var (
	watchOutputFormat string
	watchDigest       string
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow programs as they are archived",
	Long: `Stream a line for every program stored in the archive until interrupted.

With --digest, wait instead for the program whose knitout has that SHA-256
digest to be archived, print it, and exit.

Output Formats:
  default - Human-readable output with timestamps
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Follow the archive
  jacquard watch

  # Export events as JSON
  jacquard watch --output=jsonl > programs.jsonl

  # Block until a colleague archives a known program
  jacquard watch --digest 9f2c... --timeout 10m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().StringVar(&watchDigest, "digest", "", "Wait for the program with this knitout digest")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "How long --digest waits")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Validate output format
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "jsonl":
		outputFormat = watch.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
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

	if watchDigest != "" {
		program, err := watch.PollForProgram(ctx, client, watchDigest, watchTimeout)
		if err != nil {
			return printer.ErrorWithContext(
				"program not archived",
				err.Error(),
				map[string]string{"Digest": watchDigest},
				nil,
			)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), watch.FormatEvent(program))
		return err
	}

	err = watch.StreamPrograms(ctx, client, outputFormat, cmd.OutOrStdout())
	if err != nil && ctx.Err() == nil {
		return printer.Error("watch failed", err.Error(), nil)
	}
	return nil
}
