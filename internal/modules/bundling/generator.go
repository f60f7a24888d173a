// README: Candidate bundle generation via recursive greedy max-cut over pickup distances.
package bundling

import (
	"sort"
	"strings"

	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
)

// maxCutDepth bounds the recursion. A piece still over the size cap at this
// depth is not emitted as a cut leaf; its orders still appear as singletons
// and proximate pairs.
const maxCutDepth = 5

// Generator proposes order groupings for the combinatorial auction: the
// leaves of a recursive max-cut partition, every proximate pair, and every
// singleton.
type Generator struct {
	maxBundleSize       int
	maxPickupDistanceKm float64
}

func NewGenerator(maxBundleSize int, maxPickupDistanceKm float64) *Generator {
	return &Generator{
		maxBundleSize:       maxBundleSize,
		maxPickupDistanceKm: maxPickupDistanceKm,
	}
}

// Generate returns distinct groups of size 1..maxBundleSize covering the
// pending orders. Every order is guaranteed to appear at least as a
// singleton.
func (g *Generator) Generate(pending []*order.Order) [][]*order.Order {
	if len(pending) == 0 {
		return nil
	}

	// Pairwise pickup distances, computed once per batch.
	n := len(pending)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := location.HaversineKm(pending[i].Pickup, pending[j].Pickup)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	var groups [][]int
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	g.cut(all, dist, 0, &groups)

	if g.maxBundleSize >= 2 {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if dist[i][j] <= g.maxPickupDistanceKm {
					groups = append(groups, []int{i, j})
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		groups = append(groups, []int{i})
	}

	return dedupe(groups, pending)
}

// cut recursively bisects idx with greedy max-cut until the pieces fit the
// bundle-size cap. Groups within the cap are emitted as candidates.
func (g *Generator) cut(idx []int, dist [][]float64, depth int, out *[][]int) {
	if len(idx) == 0 {
		return
	}
	if len(idx) <= g.maxBundleSize {
		*out = append(*out, idx)
		return
	}
	if depth >= maxCutDepth {
		return
	}

	a, b := greedyMaxCut(idx, dist)
	g.cut(a, dist, depth+1, out)
	g.cut(b, dist, depth+1, out)
}

// greedyMaxCut walks the orders in input order and places each on the side
// that maximizes the cut, i.e. opposite the side it is currently farther
// from. Ties go to A. While B is empty its total is zero, so the first order
// at a positive distance from A's members goes to B however close it is.
func greedyMaxCut(idx []int, dist [][]float64) (a, b []int) {
	for _, i := range idx {
		var sumA, sumB float64
		for _, j := range a {
			sumA += dist[i][j]
		}
		for _, j := range b {
			sumB += dist[i][j]
		}
		if sumA > sumB {
			b = append(b, i)
		} else {
			a = append(a, i)
		}
	}
	return a, b
}

// dedupe drops groups that contain the same order-id set and materializes the
// surviving index groups into order slices.
func dedupe(groups [][]int, pending []*order.Order) [][]*order.Order {
	seen := make(map[string]bool, len(groups))
	var out [][]*order.Order
	for _, grp := range groups {
		key := setKey(grp, pending)
		if seen[key] {
			continue
		}
		seen[key] = true
		orders := make([]*order.Order, len(grp))
		for i, idx := range grp {
			orders[i] = pending[idx]
		}
		out = append(out, orders)
	}
	return out
}

// setKey is the unordered identity of a group: its sorted order IDs.
func setKey(grp []int, pending []*order.Order) string {
	ids := make([]string, len(grp))
	for i, idx := range grp {
		ids[i] = string(pending[idx].ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "+")
}
