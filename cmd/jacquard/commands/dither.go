package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/textiles-lab/jacquard/internal/dither"
	"github.com/textiles-lab/jacquard/internal/printer"
	"github.com/textiles-lab/jacquard/internal/raster"
)

var (
	ditherCarriers    string
	ditherOutFront    string
	ditherOutBack     string
	ditherUseWithin   int
	ditherCrossWithin int
	ditherCost        string
	ditherNoDiffuse   bool
	ditherSelect      int
	ditherThreads     int
)

var ditherCmd = &cobra.Command{
	Use:   "dither FRONT BACK",
	Short: "Reduce a pair of colour images to the loaded yarns",
	Long: `Dither the front and back face images of a tube to the yarns that are
loaded on the machine, so the result can be passed to 'jacquard compile'.

Each row is searched needle by needle, front and back interleaved, for the
yarns that best match the images while keeping floats short: every window
of --use-within stitches uses every yarn, and every window of --cross-within
stitches has a yarn change beds. Quantization error is carried into the next
row unless --no-diffuse is given.

The dithered faces are written as PNGs, by default next to the inputs with
a -dithered suffix.

Examples:
  # Dither to every loaded yarn in the carrier table
  jacquard dither front.png back.png

  # Pick the best three yarns and write to chosen files
  jacquard dither front.png back.png --select 3 --out-front f.png --out-back b.png

  # Plain nearest colour, no limits and no diffusion
  jacquard dither front.png back.png --use-within 0 --cross-within 0 --no-diffuse`,
	Args: cobra.ExactArgs(2),
	RunE: runDither,
}

func init() {
	defaults := dither.DefaultOptions()
	ditherCmd.Flags().StringVar(&ditherCarriers, "carriers", "", "Carrier mapping file (JSON array of {color, carrier, label})")
	ditherCmd.Flags().StringVar(&ditherOutFront, "out-front", "", "Front output PNG (default FRONT-dithered.png)")
	ditherCmd.Flags().StringVar(&ditherOutBack, "out-back", "", "Back output PNG (default BACK-dithered.png)")
	ditherCmd.Flags().IntVar(&ditherUseWithin, "use-within", defaults.UseWithin, "Every window of this many stitches uses every yarn (0 disables)")
	ditherCmd.Flags().IntVar(&ditherCrossWithin, "cross-within", defaults.CrossWithin, "Every window of this many stitches has a yarn crossing beds (0 disables)")
	ditherCmd.Flags().StringVar(&ditherCost, "cost", defaults.Cost, "Colour difference: "+strings.Join(dither.CostNames(), ", "))
	ditherCmd.Flags().BoolVar(&ditherNoDiffuse, "no-diffuse", false, "Do not carry quantization error into the next row")
	ditherCmd.Flags().IntVar(&ditherSelect, "select", 0, "Dither with only this many of the loaded yarns (0 uses all)")
	ditherCmd.Flags().IntVar(&ditherThreads, "threads", 0, "Limit goroutines used while selecting yarns (0 means no limit)")
	rootCmd.AddCommand(ditherCmd)
}

func runDither(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	frontPath, backPath := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg, ditherCarriers)
	if err != nil {
		return err
	}

	opts := dither.Options{
		UseWithin:   ditherUseWithin,
		CrossWithin: ditherCrossWithin,
		Cost:        ditherCost,
		Diffuse:     !ditherNoDiffuse,
		Select:      ditherSelect,
		Threads:     ditherThreads,
	}
	if err := opts.Validate(); err != nil {
		return printer.Error("invalid dither options", err.Error(), []string{"Run 'jacquard dither --help' for the accepted values."})
	}

	front, back, err := raster.LoadPair(ctx, frontPath, backPath)
	if err != nil {
		return printer.ErrorWithContext(
			"failed to read pattern images",
			err.Error(),
			map[string]string{"Front": frontPath, "Back": backPath},
			[]string{"Supply lossless images (PNG, GIF, BMP, TIFF or WebP)."},
		)
	}

	result, err := dither.New(opts, logger).Faces(ctx, front, back, reg)
	if err != nil {
		return reportDitherError(err)
	}

	outFront := ditherOutFront
	if outFront == "" {
		outFront = ditheredPath(frontPath)
	}
	outBack := ditherOutBack
	if outBack == "" {
		outBack = ditheredPath(backPath)
	}
	for _, out := range []struct {
		path string
		face *raster.Pixels
	}{{outFront, result.Front}, {outBack, result.Back}} {
		if err := out.face.Save(out.path); err != nil {
			return printer.ErrorWithContext("failed to write dithered image", err.Error(), map[string]string{"File": out.path}, nil)
		}
		printer.Step("Wrote %s\n", out.path)
	}

	printer.Yarns(result.Yarns)
	printer.Success("Dithered %dx%d tube to %d yarns (cost %.3f, use within %d, cross within %d)\n",
		front.Width, front.Height, len(result.Yarns), result.Cost, result.UseWithin, result.CrossWithin)
	return nil
}

// ditheredPath names the output for an input image: art/front.png becomes
// art/front-dithered.png.
func ditheredPath(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "-dithered.png"
}

func reportDitherError(err error) error {
	var mismatch *raster.DimensionMismatchError

	switch {
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
	case errors.Is(err, raster.ErrEmptyPattern):
		return printer.Error("empty pattern", "The images have no pixels, so there is nothing to dither.", nil)
	case errors.Is(err, dither.ErrNoYarns):
		return printer.Error("no yarns loaded", "Every yarn in the carrier table has carrier -1.", []string{"Load a yarn on a carrier and set that carrier in jacquard.yml"})
	case errors.Is(err, dither.ErrUnsatisfiable):
		return printer.Error("fabrication limits cannot be met", err.Error(), []string{
			"Raise --use-within to at least the number of yarns",
			"Pass --use-within 0 or --cross-within 0 to drop a limit",
		})
	default:
		return printer.Error("dithering failed", err.Error(), nil)
	}
}
