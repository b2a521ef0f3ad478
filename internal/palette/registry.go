// Package palette maps pixel colours to the yarn carriers that hold them.
package palette

import (
	"fmt"
	"strconv"
)

// RGB is a 24-bit colour. It is comparable and used directly as a map key.
type RGB struct {
	R, G, B uint8
}

// Hex24 builds an RGB from a 0xRRGGBB value.
func Hex24(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Hex renders the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

// ParseHex parses a "#RRGGBB" colour (either case).
func ParseHex(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("color %q does not appear to be a '#RRGGBB' hex string", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q does not appear to be a '#RRGGBB' hex string", s)
	}
	return Hex24(uint32(v)), nil
}

// Carrier is a yarn carrier slot number on the machine.
type Carrier int

// NotLoaded marks a colour whose yarn is known but not currently on the
// machine.
const NotLoaded Carrier = -1

// Loaded reports whether c refers to a carrier on the machine.
func (c Carrier) Loaded() bool {
	return c != NotLoaded
}

// Entry associates a colour with a carrier.
type Entry struct {
	Color   RGB
	Carrier Carrier
	Label   string
}

// Registry is an ordered colour -> carrier table. Colours are unique.
type Registry struct {
	entries []Entry
	index   map[RGB]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[RGB]int)}
}

// Register adds a colour. It fails with *DuplicateColorError if the colour
// is already present.
func (r *Registry) Register(color RGB, carrier Carrier, label string) error {
	if i, ok := r.index[color]; ok {
		return &DuplicateColorError{Color: color, Label: label, Existing: r.entries[i].Label}
	}
	r.index[color] = len(r.entries)
	r.entries = append(r.entries, Entry{Color: color, Carrier: carrier, Label: label})
	return nil
}

// Lookup returns the entry for a colour.
func (r *Registry) Lookup(color RGB) (Entry, bool) {
	i, ok := r.index[color]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Resolve returns the carrier for a colour. Unknown colours fail with
// *UnknownColorError; colours whose yarn is not loaded fail with
// *CarrierUnavailableError.
func (r *Registry) Resolve(color RGB) (Carrier, error) {
	e, ok := r.Lookup(color)
	if !ok {
		return 0, &UnknownColorError{Color: color}
	}
	if !e.Carrier.Loaded() {
		return 0, &CarrierUnavailableError{Color: color, Label: e.Label}
	}
	return e.Carrier, nil
}

// Entries returns the entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// defaultTable lists where the shop's yarns are currently installed.
var defaultTable = []struct {
	rgb     uint32
	carrier Carrier
	label   string
}{
	{0x946136, 5, "1 brown"},
	{0xc23220, 3, "2 orange"},
	{0x9d0031, NotLoaded, "3 magenta"},
	{0x964684, NotLoaded, "4 pink"},
	{0x836b03, 8, "5 olive"},
	{0x3e5037, 7, "6 green"},
	{0x193a4b, 2, "7 bluegreen"},
	{0x5685fd, 9, "8 lightblue"},
	{0x31245d, 10, "9 purple"},
	{0x000000, 1, "10 black"},
	{0x9b979e, 4, "11 gray"},
	{0xffffff, 6, "12 white"},
}

// Default returns the built-in table used when no mapping is supplied.
func Default() *Registry {
	r := NewRegistry()
	for _, d := range defaultTable {
		// the table has no duplicate colours
		_ = r.Register(Hex24(d.rgb), d.carrier, d.label)
	}
	return r
}
