package raster

import (
	"errors"
	"fmt"
	"slices"

	"github.com/textiles-lab/jacquard/internal/palette"
)

// DimensionMismatchError is returned when the two faces differ in size.
type DimensionMismatchError struct {
	FrontWidth, FrontHeight int
	BackWidth, BackHeight   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions do not align: front is %dx%d, back is %dx%d",
		e.FrontWidth, e.FrontHeight, e.BackWidth, e.BackHeight)
}

// IsDimensionMismatch reports whether err is or wraps a
// *DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var target *DimensionMismatchError
	return errors.As(err, &target)
}

// StitchGrid holds the carrier that knits every stitch of both faces.
// Row 0 is the bottom course, knitted first. Back rows are mirrored so that
// column w on both grids refers to needle w on the machine.
type StitchGrid struct {
	Width, Height int
	Front, Back   [][]palette.Carrier

	// Yarns lists the registry entries that appear in either face, in
	// registry order.
	Yarns []palette.Entry
}

// Carriers returns the active carriers in ascending order.
func (g *StitchGrid) Carriers() []palette.Carrier {
	seen := make(map[palette.Carrier]bool)
	var out []palette.Carrier
	for _, grid := range [][][]palette.Carrier{g.Front, g.Back} {
		for _, row := range grid {
			for _, c := range row {
				if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

// Rasterize resolves every pixel of both faces through the registry. It
// stops at the first colour that is unknown or whose yarn is not loaded and
// returns the registry error, which names the colour and its label.
func Rasterize(front, back *Pixels, reg *palette.Registry) (*StitchGrid, error) {
	if front.Width != back.Width || front.Height != back.Height {
		return nil, &DimensionMismatchError{
			FrontWidth: front.Width, FrontHeight: front.Height,
			BackWidth: back.Width, BackHeight: back.Height,
		}
	}
	width, height := front.Width, front.Height
	if width == 0 || height == 0 {
		return nil, ErrEmptyPattern
	}

	used := make(map[palette.RGB]bool)
	resolve := func(c palette.RGB) (palette.Carrier, error) {
		carrier, err := reg.Resolve(c)
		if err != nil {
			return 0, err
		}
		used[c] = true
		return carrier, nil
	}

	g := &StitchGrid{
		Width:  width,
		Height: height,
		Front:  make([][]palette.Carrier, 0, height),
		Back:   make([][]palette.Carrier, 0, height),
	}
	for y := height - 1; y >= 0; y-- {
		frontRow := make([]palette.Carrier, width)
		backRow := make([]palette.Carrier, width)
		for x := range width {
			c, err := resolve(front.At(x, y))
			if err != nil {
				return nil, fmt.Errorf("front pixel (%d,%d): %w", x, y, err)
			}
			frontRow[x] = c

			c, err = resolve(back.At(width-1-x, y))
			if err != nil {
				return nil, fmt.Errorf("back pixel (%d,%d): %w", width-1-x, y, err)
			}
			backRow[x] = c
		}
		g.Front = append(g.Front, frontRow)
		g.Back = append(g.Back, backRow)
	}

	for _, e := range reg.Entries() {
		if used[e.Color] {
			g.Yarns = append(g.Yarns, e)
		}
	}
	return g, nil
}
