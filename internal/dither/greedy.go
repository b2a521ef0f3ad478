package dither

import (
	"math"
	"slices"
)

const (
	// beamWidth is how many end states a row search collects before it
	// settles for the cheapest.
	beamWidth = 100

	// expandLimit caps the states expanded per column in one pass.
	expandLimit = 200
)

type node struct {
	s    state
	cost float64
}

// layer holds the states reached after a column is knitted.
type layer struct {
	visited map[string]node
	pending map[string]struct{}
}

func newLayer() *layer {
	return &layer{visited: make(map[string]node), pending: make(map[string]struct{})}
}

// relax records s at cost unless it was already reached more cheaply.
func (l *layer) relax(s state, cost float64) {
	k := s.key()
	if n, ok := l.visited[k]; ok && n.cost <= cost {
		return
	}
	l.visited[k] = node{s: s, cost: cost}
	l.pending[k] = struct{}{}
}

// cheapest returns up to n pending keys, lowest cost first.
func (l *layer) cheapest(n int) []string {
	keys := make([]string, 0, len(l.pending))
	for k := range l.pending {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ca, cb := l.visited[a].cost, l.visited[b].cost; ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// searchRow picks a yarn for every column of one row. costs[x][y] is the
// cost of knitting column x with yarn y. The search is a beam search over
// constraint states; it returns ok=false when no assignment satisfies c.
func searchRow(c constraints, costs [][]float64, yarns int) (picked []int, total float64, ok bool) {
	width := len(costs)
	layers := make([]*layer, width+1)
	for i := range layers {
		layers[i] = newLayer()
	}
	layers[0].relax(newState(yarns), 0)
	last := layers[width]

	for len(last.visited) < beamWidth {
		x := 0
		for x < width && len(layers[x].pending) == 0 {
			x++
		}
		if x == width {
			// every reachable state has been expanded
			break
		}

		for ; x < width; x++ {
			prev, next := layers[x], layers[x+1]
			if len(prev.pending) == 0 {
				break
			}
			for _, k := range prev.cheapest(expandLimit) {
				from := prev.visited[k]
				from.s.next(c, x, func(y int, n state) {
					if n.doomed(c, x, width) {
						return
					}
					next.relax(n, from.cost+costs[x][y])
				})
				delete(prev.pending, k)
			}
		}
	}

	if len(last.visited) == 0 {
		return nil, 0, false
	}

	target, total := "", math.Inf(1)
	for k, n := range last.visited {
		if n.cost < total || n.cost == total && k < target {
			target, total = k, n.cost
		}
	}

	// walk back from the cheapest end state
	picked = make([]int, width)
	for x := width - 1; x >= 0; x-- {
		best, bestYarn, bestFrom := math.Inf(1), -1, ""
		for k, from := range layers[x].visited {
			from.s.next(c, x, func(y int, n state) {
				if n.key() != target {
					return
				}
				cost := from.cost + costs[x][y]
				if cost < best || cost == best && (k < bestFrom || k == bestFrom && y < bestYarn) {
					best, bestYarn, bestFrom = cost, y, k
				}
			})
		}
		picked[x] = bestYarn
		target = bestFrom
	}
	return picked, total, true
}
