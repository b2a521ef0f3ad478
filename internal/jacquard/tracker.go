package jacquard

import (
	"slices"

	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
)

// Tracker holds the direction each active carrier will travel on its next
// pass. A carrier has no direction until the cast-on sets one.
type Tracker struct {
	carriers []palette.Carrier
	dirs     map[palette.Carrier]knitout.Direction
}

// NewTracker creates a tracker for the given active carriers.
func NewTracker(carriers []palette.Carrier) *Tracker {
	sorted := slices.Clone(carriers)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return &Tracker{
		carriers: sorted,
		dirs:     make(map[palette.Carrier]knitout.Direction, len(sorted)),
	}
}

// Ascending returns the carriers in ascending id order, the order of every
// knitting pass.
func (t *Tracker) Ascending() []palette.Carrier {
	return slices.Clone(t.carriers)
}

// Descending returns the carriers in descending id order. Carriers leave the
// machine in the reverse of the order they came in, so yarns do not cross at
// the hooks.
func (t *Tracker) Descending() []palette.Carrier {
	out := slices.Clone(t.carriers)
	slices.Reverse(out)
	return out
}

// Direction returns the carrier's next travel direction and whether it has
// been set.
func (t *Tracker) Direction(c palette.Carrier) (knitout.Direction, bool) {
	d, ok := t.dirs[c]
	return d, ok
}

// Set records the carrier's next travel direction.
func (t *Tracker) Set(c palette.Carrier, d knitout.Direction) {
	t.dirs[c] = d
}

// Flip reverses the carrier's direction after a pass.
func (t *Tracker) Flip(c palette.Carrier) {
	t.dirs[c] = t.dirs[c].Opposite()
}
