package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/textiles-lab/jacquard/internal/config"
	"github.com/textiles-lab/jacquard/internal/jacquard"
	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/printer"
	"github.com/textiles-lab/jacquard/internal/raster"
	"github.com/textiles-lab/jacquard/pkg/archive"
)

var (
	compileBindoff  bool
	compileCarriers string
	compileOutput   string
	compileArchive  bool
	compileName     string
)

var compileCmd = &cobra.Command{
	Use:   "compile FRONT BACK",
	Short: "Compile a pair of face images to a knitout program",
	Long: `Compile the front and back face images of a tube into a knitout program.

Both images must have the same dimensions. Row 0 of the tube is the bottom
row of each image. The back image is drawn as seen from behind the tube, so
it is mirrored onto the needles.

The program is written to stdout, or to the file named by --output. Nothing
is written if compilation fails. The yarns the program uses, and the carrier
each must be loaded on, are listed on stderr.

Examples:
  # Compile with the default carrier table
  jacquard compile front.png back.png -o tube.k

  # Finish with a bind-off and pull tab, and archive the result
  jacquard compile front.png back.png --bindoff --archive --name "scarf v2"

  # Use a different carrier mapping
  jacquard compile front.png back.png --carriers carriers.json > tube.k`,
	Args: cobra.ExactArgs(2),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&compileBindoff, "bindoff", false, "Finish with a bind-off and pull tab instead of plain end rows")
	compileCmd.Flags().StringVar(&compileCarriers, "carriers", "", "Carrier mapping file (JSON array of {color, carrier, label})")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Write the program to this file instead of stdout")
	compileCmd.Flags().BoolVar(&compileArchive, "archive", false, "Store the program in the Redis archive")
	compileCmd.Flags().StringVar(&compileName, "name", "", "Archive label (defaults to the front image name)")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	frontPath, backPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg, compileCarriers)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	if cmd.Flags().Changed("bindoff") {
		opts.Bindoff = compileBindoff
	}

	front, back, err := raster.LoadPair(ctx, frontPath, backPath)
	if err != nil {
		return printer.ErrorWithContext(
			"failed to read pattern images",
			err.Error(),
			map[string]string{"Front": frontPath, "Back": backPath},
			[]string{"Supply lossless images (PNG, GIF, BMP, TIFF or WebP) whose pixels are exact yarn colours."},
		)
	}

	result, err := jacquard.New(opts, logger).CompileImages(front, back, reg)
	if err != nil {
		return reportCompileError(err)
	}

	// The program is complete; only now is anything written
	if err := writeProgram(cmd, result); err != nil {
		return err
	}

	printer.Yarns(result.Summary.Yarns)
	printer.Success("Compiled %dx%d tube (%s): %d instructions\n",
		result.Summary.Width, result.Summary.Height, finishName(result.Summary.Bindoff), result.Summary.Instructions)

	if compileArchive {
		name := compileName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(frontPath), filepath.Ext(frontPath))
		}
		return archiveResult(ctx, cfg, result, name)
	}
	return nil
}

// loadRegistry returns the mapping file's table when one is named, else the
// table from the settings.
func loadRegistry(cfg *config.JacquardConfig, path string) (*palette.Registry, error) {
	if path != "" {
		reg, err := palette.LoadMapping(path)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"invalid carrier mapping",
				err.Error(),
				map[string]string{"File": path},
				[]string{`Use a JSON array such as:
  [{"color": "#000000", "carrier": 1, "label": "black"}]`},
			)
		}
		return reg, nil
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, printer.Error("invalid carrier table", err.Error(), nil)
	}
	return reg, nil
}

func writeProgram(cmd *cobra.Command, result *jacquard.Result) error {
	if compileOutput == "" {
		if _, err := result.Program.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(compileOutput, []byte(result.Program.String()), 0644); err != nil {
		return printer.ErrorWithContext(
			"failed to write program",
			err.Error(),
			map[string]string{"File": compileOutput},
			nil,
		)
	}
	printer.Step("Wrote %s\n", compileOutput)
	return nil
}

// reportCompileError prints a compile failure with what the operator can do
// about it.
func reportCompileError(err error) error {
	var unknown *palette.UnknownColorError
	var unloaded *palette.CarrierUnavailableError
	var mismatch *raster.DimensionMismatchError
	var outOfRange *jacquard.CarrierRangeError

	switch {
	case errors.As(err, &unknown):
		return printer.ErrorWithContext(
			"unknown yarn colour",
			"A pixel's colour does not match any yarn in the carrier table.",
			map[string]string{"Color": unknown.Color.Hex()},
			[]string{
				"Add the colour to the carriers list in jacquard.yml",
				"Recolour the pixels to a known yarn (see 'jacquard carriers')",
			},
		)
	case errors.As(err, &unloaded):
		return printer.ErrorWithContext(
			"yarn not loaded",
			err.Error(),
			map[string]string{"Color": unloaded.Color.Hex(), "Label": unloaded.Label},
			[]string{"Load the yarn on a free carrier and set that carrier in jacquard.yml"},
		)
	case errors.As(err, &mismatch):
		return printer.ErrorWithContext(
			"image dimensions do not align",
			"Both faces of the tube must have the same width and height.",
			map[string]string{
				"Front": fmt.Sprintf("%dx%d", mismatch.FrontWidth, mismatch.FrontHeight),
				"Back":  fmt.Sprintf("%dx%d", mismatch.BackWidth, mismatch.BackHeight),
			},
			nil,
		)
	case errors.As(err, &outOfRange):
		return printer.ErrorWithContext(
			"carrier outside the machine",
			err.Error(),
			map[string]string{
				"Carrier": fmt.Sprintf("%d", outOfRange.Carrier),
				"Slots":   fmt.Sprintf("%d", outOfRange.Slots),
			},
			[]string{"Raise machine.carrier_slots in jacquard.yml or move the yarn to a lower carrier"},
		)
	case errors.Is(err, raster.ErrEmptyPattern):
		return printer.Error("empty pattern", "The images have no pixels, so there is nothing to knit.", nil)
	default:
		return printer.Error("compilation failed", err.Error(), nil)
	}
}

func archiveResult(ctx context.Context, cfg *config.JacquardConfig, result *jacquard.Result, name string) error {
	client, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	s := result.Summary
	carriers := make([]int, len(s.Carriers))
	for i, c := range s.Carriers {
		carriers[i] = int(c)
	}

	stored, created, err := client.SaveProgram(ctx, &archive.Program{
		ID:           s.RunID,
		Digest:       s.Digest,
		Name:         name,
		Width:        s.Width,
		Height:       s.Height,
		Carriers:     carriers,
		Bindoff:      s.Bindoff,
		Instructions: s.Instructions,
		Knitout:      result.Program.String(),
		CreatedAtMs:  time.Now().UnixMilli(),
	})
	if err != nil {
		return printer.Error("failed to archive program", err.Error(), nil)
	}

	if created {
		logger.Info("Program archived", zap.String("id", stored.ID), zap.String("namespace", client.Namespace()))
		printer.Success("Archived as %s\n", stored.ID)
	} else {
		printer.Info("Already archived as %s (%s)\n", stored.ID, stored.Name)
	}
	return nil
}

// openArchive connects to the archive named in the settings and checks it
// is reachable.
func openArchive(ctx context.Context, cfg *config.JacquardConfig) (*archive.Client, error) {
	client, err := archive.NewClientFromURL(cfg.Archive.URL, cfg.Archive.Namespace)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid archive settings",
			err.Error(),
			map[string]string{"URL": cfg.Archive.URL, "Namespace": cfg.Archive.Namespace},
			[]string{"Set archive.url in jacquard.yml to a redis:// URL"},
		)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"archive connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Archive.URL),
			map[string]string{"Error": err.Error()},
			[]string{
				"Start a local Redis:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Point archive.url in jacquard.yml at a running Redis",
			},
		)
	}
	return client, nil
}

func finishName(bindoff bool) string {
	if bindoff {
		return "bind-off"
	}
	return "end rows"
}
