package dither

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/textiles-lab/jacquard/internal/palette"
)

// Linear is a colour in linear light with sRGB primaries. Channels may leave
// [0,1] once quantization error has been diffused into them.
type Linear struct {
	R, G, B float64
}

// FromRGB converts a 24-bit sRGB colour to linear light.
func FromRGB(c palette.RGB) Linear {
	return Linear{R: decode(c.R), G: decode(c.G), B: decode(c.B)}
}

func decode(v uint8) float64 {
	f := float64(v) / 255
	if f < 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

func encode(f float64) float64 {
	f = min(max(f, 0), 1)
	if f < 0.0031308 {
		return f * 12.92
	}
	return 1.055*math.Pow(f, 1/2.4) - 0.055
}

// OKLab is a perceptual colour space where euclidean distance tracks how
// different two colours look.
type OKLab struct {
	L, A, B float64
}

// OKLab converts c. Out of range channels are converted as they are.
func (c Linear) OKLab() OKLab {
	l := math.Cbrt(0.4122214708*c.R + 0.5363325363*c.G + 0.0514459929*c.B)
	m := math.Cbrt(0.2119034982*c.R + 0.6806995451*c.G + 0.1073969566*c.B)
	s := math.Cbrt(0.0883024619*c.R + 0.2817188376*c.G + 0.6299787005*c.B)
	return OKLab{
		L: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

// Cost measures how far a yarn colour is from a pixel colour.
type Cost func(a, b Linear) float64

var costs = map[string]Cost{
	"srgb": func(a, b Linear) float64 {
		return square(encode(a.R)-encode(b.R)) + square(encode(a.G)-encode(b.G)) + square(encode(a.B)-encode(b.B))
	},
	"linear": func(a, b Linear) float64 {
		return square(a.R-b.R) + square(a.G-b.G) + square(a.B-b.B)
	},
	"oklab": func(a, b Linear) float64 {
		x, y := a.OKLab(), b.OKLab()
		return square(x.L-y.L) + square(x.A-y.A) + square(x.B-y.B)
	},
}

func square(v float64) float64 { return v * v }

// CostNames lists the known cost functions.
func CostNames() []string {
	names := make([]string, 0, len(costs))
	for name := range costs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CostByName returns the cost function called name.
func CostByName(name string) (Cost, error) {
	c, ok := costs[name]
	if !ok {
		return nil, fmt.Errorf("unknown cost %q (want one of %s)", name, strings.Join(CostNames(), ", "))
	}
	return c, nil
}
