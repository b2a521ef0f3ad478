package jacquard

import (
	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
)

// builder emits the instructions of one program. Every stage writes through
// it so that the emission order is the order of the calls.
type builder struct {
	sink    knitout.Sink
	width   int
	tracker *Tracker
	opts    Options
}

func (b *builder) emit(in knitout.Instruction) {
	b.sink.Emit(in)
}

// bedChoice picks the bed knitted at needle n, or reports false to skip it.
type bedChoice func(n int) (knitout.Bed, bool)

// sweep calls fn for every index from "from" to "to" inclusive, walking in
// whichever direction reaches "to".
func sweep(from, to int, fn func(n int)) {
	if from <= to {
		for n := from; n <= to; n++ {
			fn(n)
		}
		return
	}
	for n := from; n >= to; n-- {
		fn(n)
	}
}

// span returns the first and last needle of a full-width pass in direction d.
func (b *builder) span(d knitout.Direction) (first, last int) {
	if d == knitout.Decreasing {
		return b.width - 1, 0
	}
	return 0, b.width - 1
}

// beyond returns the needle index one past the far edge in direction d.
func (b *builder) beyond(d knitout.Direction) int {
	if d == knitout.Decreasing {
		return -1
	}
	return b.width
}

// pass knits a full-width pass in direction d with carrier c.
func (b *builder) pass(d knitout.Direction, c palette.Carrier, choose bedChoice) {
	first, last := b.span(d)
	sweep(first, last, func(n int) {
		if bed, ok := choose(n); ok {
			b.emit(knitout.Knit(d, knitout.Needle{Bed: bed, Index: n}, int(c)))
		}
	})
}

// parity reports whether needle n shares the parity of the last needle.
// Cast-on and end rows interlock the two layers on this checkerboard, each
// with its own bed assignment.
func (b *builder) parity(n int) bool {
	return n%2 == (b.width-1)%2
}

// interlock assigns parity needles to the front on decreasing passes and to
// the back on increasing passes; the other needles get the other bed.
func (b *builder) interlock(d knitout.Direction) bedChoice {
	return func(n int) (knitout.Bed, bool) {
		front := b.parity(n)
		if d == knitout.Increasing {
			front = !front
		}
		if front {
			return knitout.Front, true
		}
		return knitout.Back, true
	}
}

// endInterlock is interlock with the beds swapped: parity needles go to the
// back on decreasing passes and to the front on increasing passes.
func (b *builder) endInterlock(d knitout.Direction) bedChoice {
	return b.interlock(d.Opposite())
}

// all selects every needle on one bed.
func all(bed knitout.Bed) bedChoice {
	return func(int) (knitout.Bed, bool) { return bed, true }
}

// where selects needles on one bed whose parity equals want.
func (b *builder) where(bed knitout.Bed, want bool) bedChoice {
	return func(n int) (knitout.Bed, bool) {
		return bed, b.parity(n) == want
	}
}

// direction returns a carrier's current direction. Carriers without one
// have not been cast on, which the stage order rules out.
func (b *builder) direction(c palette.Carrier) knitout.Direction {
	d, ok := b.tracker.Direction(c)
	if !ok {
		panic("jacquard: carrier used before cast-on")
	}
	return d
}
