package jacquard

import (
	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
)

// finish closes out the work with either the bind-off or plain end rows.
func (b *builder) finish() {
	b.emit(knitout.Rack(0))
	if b.opts.Bindoff {
		b.bindoff()
		return
	}
	b.endRows()
}

// endRows knits filler rows on the end-row interlock, takes the carriers
// out highest first and drops the work, front bed then back bed.
func (b *builder) endRows() {
	for range b.opts.EndRows {
		for _, c := range b.tracker.Ascending() {
			d := b.direction(c)
			b.pass(d, c, b.endInterlock(d))
			b.tracker.Flip(c)
		}
	}
	for _, c := range b.tracker.Descending() {
		b.emit(knitout.Out(int(c)))
	}
	b.dropAll(0, b.width-1)
}

// bindoff finishes every carrier but the lowest with two plain tubular
// courses, then closes the tube with the lowest one.
func (b *builder) bindoff() {
	order := b.tracker.Descending()
	closing := order[len(order)-1]

	for _, c := range order[:len(order)-1] {
		d := b.direction(c)
		for range 2 {
			b.pass(d, c, all(knitout.Front))
			b.pass(d.Opposite(), c, all(knitout.Back))
		}
		b.emit(knitout.Out(int(c)))
	}

	b.emit(knitout.Rack(0))
	b.emit(knitout.StitchNumber(b.opts.StitchNumbers.Bindoff))

	d := b.direction(closing)
	b.closeTube(closing, d)
	b.knitTag(closing, d)
	b.emit(knitout.Out(int(closing)))

	margin := b.opts.TagWidth
	b.dropAll(-margin, b.width-1+margin)
}

// closeTube walks the closing carrier across the tube in direction d,
// joining the two layers one needle at a time. Walking up it starts on the
// front bed, walking down on the back bed. Each stitch is knitted, moved to
// the other bed, knitted again and handed on to the next needle of the
// starting bed at rack 1. Every third stitch gets a miss and a tuck on the
// front needle just closed so the edge cannot run.
func (b *builder) closeTube(c palette.Carrier, d knitout.Direction) {
	start := knitout.Front
	if d == knitout.Decreasing {
		start = knitout.Back
	}
	other := start.Opposite()
	step := d.Step()
	first, last := b.span(d)

	sweep(first, last, func(n int) {
		reinforce := n%3 == 2
		closed := knitout.F(n - step)
		here := knitout.Needle{Bed: start, Index: n}
		across := knitout.Needle{Bed: other, Index: n}

		b.emit(knitout.Knit(d, here, int(c)))
		b.emit(knitout.Xfer(here, across))
		b.emit(knitout.Knit(d.Opposite(), across, int(c)))
		if reinforce {
			b.emit(knitout.Miss(d.Opposite(), closed, int(c)))
		}

		switch {
		case n != last:
			b.emit(knitout.Rack(1))
			b.emit(knitout.Xfer(across, knitout.Needle{Bed: start, Index: n + step}))
			b.emit(knitout.Rack(0))
		case other == knitout.Back:
			// the tag is knitted on the front bed
			b.emit(knitout.Xfer(across, knitout.F(n)))
		}

		if reinforce {
			b.emit(knitout.Tuck(d, closed, int(c)))
		}
	})
}

// knitTag knits a pull tab on the front bed past the edge the closing walk
// ended at: widening by one needle per pass up to TagWidth, then TagHold
// passes at full width.
func (b *builder) knitTag(c palette.Carrier, d knitout.Direction) {
	_, edge := b.span(d)
	out, back := d, d.Opposite()
	step := d.Step()

	b.emit(knitout.Rack(0))
	b.emit(knitout.Knit(back, knitout.F(edge), int(c)))

	tagPass := func(far int) {
		sweep(edge, far, func(n int) {
			b.emit(knitout.Knit(out, knitout.F(n), int(c)))
		})
		sweep(far, edge, func(n int) {
			b.emit(knitout.Knit(back, knitout.F(n), int(c)))
		})
	}
	for i := 1; i <= b.opts.TagWidth; i++ {
		tagPass(edge + step*i)
	}
	for range b.opts.TagHold {
		tagPass(edge + step*b.opts.TagWidth)
	}
}

// dropAll drops needles lo..hi on the front bed, then on the back bed.
func (b *builder) dropAll(lo, hi int) {
	for _, bed := range []knitout.Bed{knitout.Front, knitout.Back} {
		sweep(lo, hi, func(n int) {
			b.emit(knitout.Drop(knitout.Needle{Bed: bed, Index: n}))
		})
	}
}
