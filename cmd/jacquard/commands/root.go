package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/textiles-lab/jacquard/internal/config"
	"github.com/textiles-lab/jacquard/internal/logging"
	"github.com/textiles-lab/jacquard/internal/printer"
)

var (
	verbose    bool
	configPath string

	// logger is replaced in PersistentPreRunE; commands may log before that
	// only in tests.
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jacquard",
	Short: "Compile two-face jacquard tubes to knitout",
	Long: `jacquard turns a pair of colour images, one per face of a knitted tube,
into a knitout program for a two-bed knitting machine.

Every pixel colour names a yarn; the carrier table maps each yarn to the
machine carrier it is loaded on. Compiled programs can be archived in Redis
and inspected later with 'jacquard hoard' and 'jacquard watch'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// stderr does not support fsync on every platform
		_ = logger.Sync()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "", "Path to settings file (default ./jacquard.yml when present)")
}

// loadConfig returns the settings named by --config, ./jacquard.yml when it
// exists, or the built-in defaults.
func loadConfig() (*config.JacquardConfig, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No settings file, using defaults")
			return config.Default(), nil
		}
		path = config.DefaultPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid settings file",
			err.Error(),
			map[string]string{"File": path},
			[]string{"Regenerate a valid file:\n  jacquard init --force"},
		)
	}
	logger.Debug("Loaded settings", zap.String("path", path))
	return cfg, nil
}
