package jacquard

import (
	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
)

// castOn brings every carrier in, knits its waste course and primes the
// tube. Start sides alternate between carriers, beginning toward the low
// end; each carrier's tracked direction becomes the side its priming leaves
// it facing.
func (b *builder) castOn() {
	b.emit(knitout.StitchNumber(b.opts.StitchNumbers.CastOn))

	start := knitout.Decreasing
	for i, c := range b.tracker.Ascending() {
		b.emit(knitout.In(int(c)))

		b.pass(knitout.Decreasing, c, b.interlock(knitout.Decreasing))
		b.pass(knitout.Increasing, c, b.interlock(knitout.Increasing))
		if i == 0 {
			b.emit(knitout.StitchNumber(b.opts.StitchNumbers.Body))
		}

		b.prime(c, start)
		b.tracker.Set(c, start)
		start = start.Opposite()

		b.emit(knitout.Release(int(c)))
	}
}

// prime knits the first tubular course. A carrier starting toward the low
// end knits the whole front, then the whole back, and ends facing low
// again. A carrier starting toward the high end splits the front in two
// parity halves around the back pass so it ends facing high.
func (b *builder) prime(c palette.Carrier, start knitout.Direction) {
	if start == knitout.Decreasing {
		b.pass(knitout.Decreasing, c, all(knitout.Front))
		b.pass(knitout.Increasing, c, all(knitout.Back))
		return
	}
	b.pass(knitout.Decreasing, c, b.where(knitout.Front, true))
	b.pass(knitout.Increasing, c, all(knitout.Back))
	b.pass(knitout.Decreasing, c, b.where(knitout.Front, false))
}
