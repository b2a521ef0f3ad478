package dither

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/raster"
)

var (
	// ErrNoYarns is returned when the carrier table has no loaded yarn.
	ErrNoYarns = errors.New("dither: no loaded yarns to dither with")

	// ErrUnsatisfiable is returned when no yarn assignment meets the use
	// and crossing windows.
	ErrUnsatisfiable = errors.New("dither: fabrication limits cannot be met")
)

// maxWindow bounds the windows so state counters fit in a byte.
const maxWindow = 250

// Options control dithering.
type Options struct {
	// UseWithin requires every window of this many stitches in a row to use
	// every yarn. Zero disables the limit.
	UseWithin int

	// CrossWithin requires every window of this many stitches in a row to
	// contain a yarn crossing between beds. Zero disables the limit.
	CrossWithin int

	// Cost names the colour difference; see CostNames.
	Cost string

	// Diffuse carries quantization error into the next row.
	Diffuse bool

	// Select, when between 1 and the number of loaded yarns, dithers with
	// only that many yarns, chosen to best match the images.
	Select int

	// Threads caps the goroutines used while selecting yarns; 0 means no
	// cap.
	Threads int
}

// DefaultOptions returns settings that keep floats short on the shop's
// machine.
func DefaultOptions() Options {
	return Options{UseWithin: 11, CrossWithin: 20, Cost: "oklab", Diffuse: true}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.UseWithin < 0 || o.UseWithin > maxWindow {
		return fmt.Errorf("use-within must be between 0 and %d, got %d", maxWindow, o.UseWithin)
	}
	if o.CrossWithin < 0 || o.CrossWithin > maxWindow {
		return fmt.Errorf("cross-within must be between 0 and %d, got %d", maxWindow, o.CrossWithin)
	}
	if o.Select < 0 {
		return fmt.Errorf("select must be >= 0, got %d", o.Select)
	}
	if o.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", o.Threads)
	}
	if _, err := CostByName(o.Cost); err != nil {
		return err
	}
	return nil
}

// Result holds the dithered faces. Every pixel is exactly the colour of
// one of Yarns, so the faces compile with the same carrier table.
type Result struct {
	Front, Back *raster.Pixels
	Yarns       []palette.Entry

	// Cost is the summed colour difference against the source images.
	Cost float64

	// UseWithin and CrossWithin are the windows the output achieves.
	UseWithin   int
	CrossWithin int
}

// Ditherer reduces colour images to the loaded yarns.
type Ditherer struct {
	opts   Options
	logger *zap.Logger
}

// New creates a ditherer. A nil logger discards all output.
func New(opts Options, logger *zap.Logger) *Ditherer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ditherer{opts: opts, logger: logger}
}

// Faces dithers the front and back face images of a tube to the loaded
// yarns of reg. The faces are interleaved needle by needle, front on even
// columns, with the back mirrored as it is on the machine, so each row is
// searched as the machine knits it.
func (d *Ditherer) Faces(ctx context.Context, front, back *raster.Pixels, reg *palette.Registry) (*Result, error) {
	if err := d.opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if front.Width != back.Width || front.Height != back.Height {
		return nil, &raster.DimensionMismatchError{
			FrontWidth: front.Width, FrontHeight: front.Height,
			BackWidth: back.Width, BackHeight: back.Height,
		}
	}
	if front.Width == 0 || front.Height == 0 {
		return nil, raster.ErrEmptyPattern
	}

	var entries []palette.Entry
	for _, e := range reg.Entries() {
		if e.Carrier.Loaded() {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, ErrNoYarns
	}

	cost, _ := CostByName(d.opts.Cost)
	img := interleave(front, back)
	width, height := 2*front.Width, front.Height

	if n := d.opts.Select; n > 0 && n < len(entries) {
		yarns := make([]Linear, len(entries))
		for i, e := range entries {
			yarns[i] = FromRGB(e.Color)
		}
		picked, err := selectYarns(ctx, img, yarns, n, cost, d.opts.Threads)
		if err != nil {
			return nil, err
		}
		selected := make([]palette.Entry, len(picked))
		for i, y := range picked {
			selected[i] = entries[y]
		}
		entries = selected
		d.logger.Debug("Selected yarns", zap.Int("count", n), zap.Stringers("colors", colors(entries)))
	}

	if d.opts.UseWithin != 0 && d.opts.UseWithin < len(entries) {
		return nil, fmt.Errorf("%w: use-within %d is shorter than the %d yarns", ErrUnsatisfiable, d.opts.UseWithin, len(entries))
	}
	if len(entries) > 32 {
		d.logger.Warn("Dithering with many yarns; row search may be slow", zap.Int("yarns", len(entries)))
	}

	yarns := make([]Linear, len(entries))
	for i, e := range entries {
		yarns[i] = FromRGB(e.Color)
	}
	c := constraints{useWithin: d.opts.UseWithin, crossWithin: d.opts.CrossWithin}

	// the search reads diffused values; the reported cost uses the source
	source := append([]Linear(nil), img...)
	rows := make([][]int, height)
	for row := range height {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		costs := make([][]float64, width)
		for x := range width {
			costs[x] = make([]float64, len(yarns))
			for y, yarn := range yarns {
				costs[x][y] = cost(img[row*width+x], yarn)
			}
		}

		picked, rowCost, ok := searchRow(c, costs, len(yarns))
		if !ok {
			return nil, fmt.Errorf("%w: no assignment for row %d", ErrUnsatisfiable, row)
		}
		rows[row] = picked
		d.logger.Debug("Dithered row", zap.Int("row", row), zap.Float64("cost", rowCost))

		if d.opts.Diffuse {
			diffuse(img, width, row, picked, yarns)
		}
	}

	useWithin, crossWithin := measure(rows, len(yarns))
	if c.useWithin != 0 && useWithin > c.useWithin || c.crossWithin != 0 && crossWithin > c.crossWithin {
		return nil, fmt.Errorf("%w: output has use-within %d and cross-within %d", ErrUnsatisfiable, useWithin, crossWithin)
	}

	res := &Result{
		Front:       raster.NewPixels(front.Width, height),
		Back:        raster.NewPixels(front.Width, height),
		Yarns:       entries,
		UseWithin:   useWithin,
		CrossWithin: crossWithin,
	}
	for row, picked := range rows {
		for x, y := range picked {
			res.Cost += cost(source[row*width+x], yarns[y])
			if x%2 == 0 {
				res.Front.Set(x/2, row, entries[y].Color)
			} else {
				res.Back.Set(front.Width-1-x/2, row, entries[y].Color)
			}
		}
	}
	d.logger.Info("Dithered tube",
		zap.Int("width", front.Width),
		zap.Int("height", height),
		zap.Int("yarns", len(entries)),
		zap.Float64("cost", res.Cost))
	return res, nil
}

// interleave lays the faces out needle by needle: column 2i is front
// needle i and column 2i+1 the back of needle i, which is the mirrored back
// image.
func interleave(front, back *raster.Pixels) []Linear {
	w := front.Width
	img := make([]Linear, 0, 2*w*front.Height)
	for row := range front.Height {
		for x := range w {
			img = append(img, FromRGB(front.At(x, row)), FromRGB(back.At(w-1-x, row)))
		}
	}
	return img
}

func colors(entries []palette.Entry) []palette.RGB {
	out := make([]palette.RGB, len(entries))
	for i, e := range entries {
		out[i] = e.Color
	}
	return out
}
