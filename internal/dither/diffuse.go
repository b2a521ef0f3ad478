package dither

// kernel spreads quantization error to the next row. Offsets are even so
// error stays on the bed it came from; the weights sum to less than one.
var kernel = []struct {
	dx int
	w  float64
}{
	{-2, 2.0 / 16},
	{0, 5.0 / 16},
	{2, 2.0 / 16},
}

// diffuse pushes the error of row's picked yarns into the row below it.
// img is width columns wide and is modified in place.
func diffuse(img []Linear, width, row int, picked []int, yarns []Linear) {
	below := row + 1
	if (below+1)*width > len(img) {
		return
	}
	for x, y := range picked {
		px, yarn := img[row*width+x], yarns[y]
		for _, k := range kernel {
			tx := x + k.dx
			if tx < 0 || tx >= width {
				continue
			}
			t := &img[below*width+tx]
			t.R += k.w * (px.R - yarn.R)
			t.G += k.w * (px.G - yarn.G)
			t.B += k.w * (px.B - yarn.B)
		}
	}
}

// measure returns the shortest window length that always uses every yarn
// and the shortest that always holds a crossing, over all rows. A result
// one longer than the row means the property never holds.
func measure(rows [][]int, yarns int) (useWithin, crossWithin int) {
	var noUse, noCross int
	for _, row := range rows {
		for x := range row {
			seen := make(map[int]bool)
			for x2 := x; x2 < len(row); x2++ {
				seen[row[x2]] = true
				if len(seen) == yarns {
					break
				}
				noUse = max(noUse, x2+1-x)
			}

			lastUse := make(map[int]int)
			for x2 := x; x2 < len(row); x2++ {
				y := row[x2]
				if prev, ok := lastUse[y]; ok && (x2-prev)%2 != 0 {
					break
				}
				lastUse[y] = x2
				noCross = max(noCross, x2+1-x)
			}
		}
	}
	return noUse + 1, noCross + 1
}
