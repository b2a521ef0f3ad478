package jacquard

import (
	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/raster"
)

// knitBody knits the stitch grid bottom row first. In every row each
// carrier makes one pass in its current direction, knitting only the cells
// that hold it; on other needles its yarn floats behind. Decreasing passes
// look at the back bed before the front, increasing passes the reverse. The
// carrier is parked one needle past the far edge and its direction flips.
func (b *builder) knitBody(g *raster.StitchGrid) {
	for h := range g.Height {
		for _, c := range b.tracker.Ascending() {
			d := b.direction(c)
			b.row(d, c, g.Front[h], g.Back[h])
			b.emit(knitout.Miss(d, knitout.B(b.beyond(d)), int(c)))
			b.tracker.Flip(c)
		}
	}
}

func (b *builder) row(d knitout.Direction, c palette.Carrier, front, back []palette.Carrier) {
	order := [2]knitout.Bed{knitout.Back, knitout.Front}
	if d == knitout.Increasing {
		order = [2]knitout.Bed{knitout.Front, knitout.Back}
	}

	first, last := b.span(d)
	sweep(first, last, func(n int) {
		for _, bed := range order {
			cells := front
			if bed == knitout.Back {
				cells = back
			}
			if cells[n] == c {
				b.emit(knitout.Knit(d, knitout.Needle{Bed: bed, Index: n}, int(c)))
			}
		}
	})
}
