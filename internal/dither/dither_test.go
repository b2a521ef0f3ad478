package dither

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/raster"
)

var (
	black = palette.Hex24(0x000000)
	white = palette.Hex24(0xffffff)
	brown = palette.Hex24(0x946136)
	gray  = palette.Hex24(0x808080)
)

// registry builds a table with the given loaded colours on carriers 1..n.
func registry(t *testing.T, colors ...palette.RGB) *palette.Registry {
	t.Helper()
	reg := palette.NewRegistry()
	for i, c := range colors {
		require.NoError(t, reg.Register(c, palette.Carrier(i+1), c.Hex()))
	}
	return reg
}

func pixelsFromRows(rows ...[]palette.RGB) *raster.Pixels {
	p := raster.NewPixels(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			p.Set(x, y, c)
		}
	}
	return p
}

func count(p *raster.Pixels, row int, c palette.RGB) int {
	n := 0
	for x := range p.Width {
		if p.At(x, row) == c {
			n++
		}
	}
	return n
}

func TestCostByName(t *testing.T) {
	assert.Equal(t, []string{"linear", "oklab", "srgb"}, CostNames())

	for _, name := range CostNames() {
		cost, err := CostByName(name)
		require.NoError(t, err)
		assert.Zero(t, cost(FromRGB(brown), FromRGB(brown)), name)
		assert.Greater(t, cost(FromRGB(black), FromRGB(white)), cost(FromRGB(black), FromRGB(gray)), name)
	}

	linear, _ := CostByName("linear")
	assert.InDelta(t, 3.0, linear(FromRGB(black), FromRGB(white)), 1e-9)
	oklab, _ := CostByName("oklab")
	assert.InDelta(t, 1.0, oklab(FromRGB(black), FromRGB(white)), 1e-3)

	_, err := CostByName("demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cost "demo"`)
}

func TestOKLab(t *testing.T) {
	w := FromRGB(white).OKLab()
	assert.InDelta(t, 1.0, w.L, 1e-3)
	assert.InDelta(t, 0.0, w.A, 1e-3)
	assert.InDelta(t, 0.0, w.B, 1e-3)
	assert.Equal(t, OKLab{}, FromRGB(black).OKLab())
	assert.InDelta(t, 0.2159, FromRGB(gray).R, 1e-3)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr string
	}{
		{name: "defaults", modify: func(*Options) {}},
		{name: "limits disabled", modify: func(o *Options) { o.UseWithin, o.CrossWithin = 0, 0 }},
		{name: "negative use window", modify: func(o *Options) { o.UseWithin = -1 }, wantErr: "use-within"},
		{name: "cross window too long", modify: func(o *Options) { o.CrossWithin = 251 }, wantErr: "cross-within"},
		{name: "negative select", modify: func(o *Options) { o.Select = -2 }, wantErr: "select"},
		{name: "negative threads", modify: func(o *Options) { o.Threads = -1 }, wantErr: "threads"},
		{name: "unknown cost", modify: func(o *Options) { o.Cost = "cie76" }, wantErr: "unknown cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFacesKeepsExactYarnColours(t *testing.T) {
	front := pixelsFromRows(
		[]palette.RGB{black, white, brown},
		[]palette.RGB{brown, brown, white},
	)
	back := pixelsFromRows(
		[]palette.RGB{white, white, black},
		[]palette.RGB{black, brown, brown},
	)
	opts := DefaultOptions()
	opts.UseWithin, opts.CrossWithin = 0, 0

	res, err := New(opts, nil).Faces(context.Background(), front, back, registry(t, black, white, brown))
	require.NoError(t, err)
	assert.Equal(t, front, res.Front)
	assert.Equal(t, back, res.Back)
	assert.Zero(t, res.Cost)
}

func TestFacesMixesYarnsForGray(t *testing.T) {
	rows := make([][]palette.RGB, 4)
	for i := range rows {
		rows[i] = []palette.RGB{gray, gray, gray, gray, gray, gray}
	}
	front, back := pixelsFromRows(rows...), pixelsFromRows(rows...)

	res, err := New(DefaultOptions(), nil).Faces(context.Background(), front, back, registry(t, black, white))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.UseWithin, 11)
	assert.LessOrEqual(t, res.CrossWithin, 20)

	var blacks, whites int
	for row := range 4 {
		blacks += count(res.Front, row, black) + count(res.Back, row, black)
		whites += count(res.Front, row, white) + count(res.Back, row, white)
	}
	assert.Equal(t, 48, blacks+whites)
	assert.Positive(t, blacks)
	assert.Positive(t, whites)
}

func TestFacesUseWindowForcesYarn(t *testing.T) {
	rows := [][]palette.RGB{
		{white, white, white, white},
		{white, white, white, white},
	}
	opts := Options{UseWithin: 4, Cost: "oklab"}

	res, err := New(opts, nil).Faces(context.Background(), pixelsFromRows(rows...), pixelsFromRows(rows...), registry(t, black, white))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.UseWithin, 4)
	for row := range 2 {
		// eight needles per row; black is needed at least once in every four
		assert.Equal(t, 2, count(res.Front, row, black)+count(res.Back, row, black), "row %d", row)
	}
	assert.Positive(t, res.Cost)
}

func TestFacesSelectsYarns(t *testing.T) {
	face := pixelsFromRows([]palette.RGB{brown, brown}, []palette.RGB{brown, palette.Hex24(0x956237)})
	opts := DefaultOptions()
	opts.Select = 1
	opts.Threads = 2

	res, err := New(opts, nil).Faces(context.Background(), face, face, registry(t, black, white, brown))
	require.NoError(t, err)
	require.Len(t, res.Yarns, 1)
	assert.Equal(t, brown, res.Yarns[0].Color)
	assert.Equal(t, palette.Carrier(3), res.Yarns[0].Carrier)
	assert.Equal(t, 4, count(res.Front, 0, brown)+count(res.Front, 1, brown))
}

func TestFacesSkipsUnloadedYarns(t *testing.T) {
	reg := registry(t, white)
	require.NoError(t, reg.Register(black, palette.NotLoaded, "black"))
	face := pixelsFromRows([]palette.RGB{black, black})

	res, err := New(DefaultOptions(), nil).Faces(context.Background(), face, face, reg)
	require.NoError(t, err)
	require.Len(t, res.Yarns, 1)
	assert.Equal(t, 2, count(res.Front, 0, white))
}

func TestFacesErrors(t *testing.T) {
	face := pixelsFromRows([]palette.RGB{gray, gray})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := New(DefaultOptions(), nil).Faces(context.Background(), face, raster.NewPixels(3, 1), registry(t, black))
		assert.True(t, raster.IsDimensionMismatch(err))
	})

	t.Run("empty pattern", func(t *testing.T) {
		_, err := New(DefaultOptions(), nil).Faces(context.Background(), raster.NewPixels(0, 0), raster.NewPixels(0, 0), registry(t, black))
		assert.ErrorIs(t, err, raster.ErrEmptyPattern)
	})

	t.Run("no loaded yarns", func(t *testing.T) {
		reg := palette.NewRegistry()
		require.NoError(t, reg.Register(black, palette.NotLoaded, "black"))
		_, err := New(DefaultOptions(), nil).Faces(context.Background(), face, face, reg)
		assert.ErrorIs(t, err, ErrNoYarns)
	})

	t.Run("use window shorter than yarn count", func(t *testing.T) {
		opts := DefaultOptions()
		opts.UseWithin = 2
		_, err := New(opts, nil).Faces(context.Background(), face, face, registry(t, black, white, brown))
		assert.ErrorIs(t, err, ErrUnsatisfiable)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := New(Options{Cost: "nope"}, nil).Faces(context.Background(), face, face, registry(t, black))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid options")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(DefaultOptions(), nil).Faces(ctx, face, face, registry(t, black, white))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDiffuse(t *testing.T) {
	yarns := []Linear{{}}
	img := make([]Linear, 2*5)
	img[2] = Linear{R: 0.8, G: 0.4, B: 0.16}

	diffuse(img, 5, 0, []int{0, 0, 0, 0, 0}, yarns)

	assert.InDelta(t, 0.1, img[5].R, 1e-9)
	assert.InDelta(t, 0.25, img[7].R, 1e-9)
	assert.InDelta(t, 0.125, img[7].G, 1e-9)
	assert.InDelta(t, 0.05, img[7].B, 1e-9)
	assert.InDelta(t, 0.1, img[9].R, 1e-9)
	assert.Zero(t, img[6])
	assert.Zero(t, img[8])

	// the last row has nowhere to go
	before := append([]Linear(nil), img...)
	diffuse(img, 5, 1, []int{0, 0, 0, 0, 0}, yarns)
	assert.Equal(t, before, img)
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]int
		yarns     int
		wantUse   int
		wantCross int
	}{
		{name: "each yarn on its own bed never crosses", rows: [][]int{{0, 1, 0, 1}}, yarns: 2, wantUse: 2, wantCross: 5},
		{name: "paired stitches cross", rows: [][]int{{0, 0, 1, 1}}, yarns: 2, wantUse: 3, wantCross: 3},
		{name: "single yarn", rows: [][]int{{0, 0, 0}}, yarns: 1, wantUse: 1, wantCross: 2},
		{name: "worst row wins", rows: [][]int{{0, 1, 0, 1}, {0, 0, 1, 1}}, yarns: 2, wantUse: 3, wantCross: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			use, cross := measure(tt.rows, tt.yarns)
			assert.Equal(t, tt.wantUse, use)
			assert.Equal(t, tt.wantCross, cross)
		})
	}
}

func TestSearchRowHonoursCrossWindow(t *testing.T) {
	// yarn 0 is free on even columns and yarn 1 on odd ones, so the
	// cheapest row never crosses; a window of 4 forces a crossing
	costs := make([][]float64, 8)
	for x := range costs {
		costs[x] = []float64{float64(x % 2), float64(1 - x%2)}
	}

	picked, total, ok := searchRow(constraints{}, costs, 2)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0, 1}, picked)
	assert.Zero(t, total)

	picked, total, ok = searchRow(constraints{crossWithin: 4}, costs, 2)
	require.True(t, ok)
	_, cross := measure([][]int{picked}, 2)
	assert.LessOrEqual(t, cross, 4)
	assert.Positive(t, total)
}

func TestCombinations(t *testing.T) {
	var got [][]int
	combinations(4, 2, func(set []int) { got = append(got, append([]int(nil), set...)) })
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, got)
}
