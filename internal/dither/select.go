package dither

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// selectYarns picks the n yarns that best quantize img without any
// fabrication limits or diffusion, and returns their indices in order.
func selectYarns(ctx context.Context, img, yarns []Linear, n int, cost Cost, threads int) ([]int, error) {
	// per-pixel cost of every yarn
	table := make([][]float64, len(yarns))
	g, ctx := errgroup.WithContext(ctx)
	if threads > 0 {
		g.SetLimit(threads)
	}
	for y := range yarns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, len(img))
			for i, px := range img {
				row[i] = cost(px, yarns[y])
			}
			table[y] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best, bestCost := []int(nil), math.Inf(1)
	combinations(len(yarns), n, func(set []int) {
		var total float64
		for i := range img {
			m := table[set[0]][i]
			for _, y := range set[1:] {
				m = min(m, table[y][i])
			}
			total += m
		}
		if total < bestCost {
			best, bestCost = append([]int(nil), set...), total
		}
	})
	return best, nil
}

// combinations calls fn with every k-subset of 0..n-1 in lexicographic
// order. fn must not keep the slice.
func combinations(n, k int, fn func([]int)) {
	set := make([]int, k)
	for i := range set {
		set[i] = i
	}
	for {
		fn(set)
		i := k - 1
		for i >= 0 && set[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		set[i]++
		for j := i + 1; j < k; j++ {
			set[j] = set[j-1] + 1
		}
	}
}
