// README: Route optimizer — exhaustive search over stop sequences with pickup-before-dropoff precedence.
package routing

import (
	"math"

	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

// Optimizer finds the minimum-distance visit sequence for a small order set.
// With the default capacity of 2 the search space is at most 4 stops, so
// exhaustive enumeration is both exact and cheap.
type Optimizer struct {
	oracle location.Oracle
}

func NewOptimizer(oracle location.Oracle) *Optimizer {
	return &Optimizer{oracle: oracle}
}

// BestRoute returns the cheapest stop sequence starting at start. Orders in
// picked contribute only their dropoff; all others contribute pickup then
// dropoff, with the pickup constrained to precede the dropoff. An empty
// order set yields an empty route with infinite distance.
func (opt *Optimizer) BestRoute(start types.Point, orders []*order.Order, picked map[types.ID]bool) ([]order.Stop, float64) {
	if len(orders) == 0 {
		return nil, math.Inf(1)
	}

	var stops []order.Stop
	for _, o := range orders {
		if !picked[o.ID] {
			stops = append(stops, order.Stop{Coord: o.Pickup, Kind: order.StopPickup, OrderID: o.ID})
		}
		stops = append(stops, order.Stop{Coord: o.Dropoff, Kind: order.StopDropoff, OrderID: o.ID})
	}

	search := routeSearch{
		oracle:   opt.oracle,
		stops:    stops,
		used:     make([]bool, len(stops)),
		pickedUp: make(map[types.ID]bool, len(picked)),
		bestDist: math.Inf(1),
	}
	for id := range picked {
		search.pickedUp[id] = true
	}
	search.current = make([]order.Stop, 0, len(stops))
	search.extend(start, 0)

	return search.best, search.bestDist
}

type routeSearch struct {
	oracle   location.Oracle
	stops    []order.Stop
	used     []bool
	pickedUp map[types.ID]bool

	current  []order.Stop
	best     []order.Stop
	bestDist float64
}

// extend grows the partial sequence depth-first. A dropoff becomes legal only
// once its pickup is placed, which prunes precedence-violating branches
// instead of filtering full permutations.
func (s *routeSearch) extend(at types.Point, distSoFar float64) {
	if len(s.current) == len(s.stops) {
		if distSoFar < s.bestDist {
			s.bestDist = distSoFar
			s.best = append([]order.Stop(nil), s.current...)
		}
		return
	}
	if distSoFar >= s.bestDist {
		return
	}

	for i, stop := range s.stops {
		if s.used[i] {
			continue
		}
		if stop.Kind == order.StopDropoff && !s.pickedUp[stop.OrderID] {
			continue
		}

		s.used[i] = true
		s.current = append(s.current, stop)
		if stop.Kind == order.StopPickup {
			s.pickedUp[stop.OrderID] = true
		}

		s.extend(stop.Coord, distSoFar+s.oracle.DistanceKm(at, stop.Coord))

		if stop.Kind == order.StopPickup {
			delete(s.pickedUp, stop.OrderID)
		}
		s.current = s.current[:len(s.current)-1]
		s.used[i] = false
	}
}
