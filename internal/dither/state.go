package dither

import "slices"

// constraints are the per-row fabrication limits. Zero disables a limit.
type constraints struct {
	useWithin   int // every window of this many stitches uses every yarn
	crossWithin int // every window of this many stitches holds a crossing
}

// state is what a row search remembers just after a stitch is placed.
//
// lastUsed[y] counts stitches since yarn y was last used: 1 means it was
// just used and 0 means never. lastCross counts stitches since the most
// recent crossing began, or 0 before the first one. A yarn crosses between
// beds when it is used an odd distance from its previous use, since even
// columns are front needles and odd columns back needles.
type state struct {
	lastUsed  []uint8
	lastCross uint8
}

func newState(yarns int) state {
	return state{lastUsed: make([]uint8, yarns)}
}

// key identifies the state in a layer. Keys order the same way states do:
// by lastUsed, then lastCross.
func (s state) key() string {
	b := make([]byte, len(s.lastUsed)+1)
	copy(b, s.lastUsed)
	b[len(s.lastUsed)] = s.lastCross
	return string(b)
}

// next calls yield with every yarn that may knit column x and the state
// that results.
func (s state) next(c constraints, x int, yield func(yarn int, n state)) {
	for y := range s.lastUsed {
		n := state{lastUsed: make([]uint8, len(s.lastUsed)), lastCross: s.lastCross}
		copy(n.lastUsed, s.lastUsed)

		if c.crossWithin != 0 && n.lastCross != 0 {
			n.lastCross++
		}
		for i, lu := range n.lastUsed {
			if lu == 0 {
				continue
			}
			lu++
			if c.useWithin == 0 {
				// only recency matters past the crossing window
				if c.crossWithin == 0 {
					lu = 2
				} else if int(lu) > c.crossWithin+1 {
					lu = uint8(c.crossWithin + 1)
				}
			}
			n.lastUsed[i] = lu
		}

		if c.crossWithin != 0 && n.lastUsed[y] != 0 && n.lastUsed[y]%2 == 0 {
			if n.lastCross == 0 || n.lastCross > n.lastUsed[y] {
				n.lastCross = n.lastUsed[y]
			}
		}
		n.lastUsed[y] = 1

		if n.valid(c, x) {
			yield(y, n)
		}
	}
}

func (s state) valid(c constraints, x int) bool {
	if c.useWithin != 0 {
		for _, lu := range s.lastUsed {
			// an unused yarn counts as used just left of column 0
			if lu == 0 && x+2 > c.useWithin || int(lu) > c.useWithin {
				return false
			}
		}
	}
	if c.crossWithin != 0 {
		if s.lastCross == 0 && x+2 > c.crossWithin || int(s.lastCross) > c.crossWithin {
			return false
		}
	}
	return true
}

// doomed reports whether some yarn can no longer be fitted in before its
// window closes, given width columns in the row.
func (s state) doomed(c constraints, x, width int) bool {
	if c.useWithin == 0 {
		return false
	}
	within := make([]int, 0, len(s.lastUsed))
	for _, lu := range s.lastUsed {
		if lu == 0 {
			within = append(within, c.useWithin-(x+1))
		} else {
			within = append(within, 1+c.useWithin-int(lu))
		}
	}
	slices.Sort(within)
	for i, w := range within {
		if x+i+1 > width {
			break
		}
		if w < i+1 {
			return true
		}
	}
	return false
}
