// README: Dispatch engine — four auction policies over eligible drivers and pending orders.
package dispatch

import (
	"fmt"
	"math"

	"smartdispatch/internal/config"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/bundling"
	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/modules/routing"
	"smartdispatch/internal/modules/scoring"
	"smartdispatch/internal/types"
)

type Policy string

const (
	PolicyBaseline      Policy = "baseline"
	PolicySequential    Policy = "sequential"
	PolicyCombinatorial Policy = "combinatorial"
	PolicyAdaptive      Policy = "adaptive"
)

var ErrUnknownPolicy = fmt.Errorf("unknown dispatch policy")

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyBaseline, PolicySequential, PolicyCombinatorial, PolicyAdaptive:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Engine runs one auction per tick. It reads driver and order state through
// the views the simulator hands it and mutates only via assign.
type Engine struct {
	cfg       config.Dispatch
	oracle    location.Oracle
	optimizer *routing.Optimizer
	generator *bundling.Generator
	scorer    *scoring.Scorer
	log       *logger.Logger
}

func NewEngine(cfg config.Dispatch, oracle location.Oracle, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		oracle:    oracle,
		optimizer: routing.NewOptimizer(oracle),
		generator: bundling.NewGenerator(cfg.MaxBundleSize, cfg.MaxPickupDistanceKm),
		scorer:    scoring.NewScorer(oracle, cfg),
		log:       log,
	}
}

// Dispatch runs the given policy over the pending orders and returns the IDs
// it assigned. The simulator removes those from its queue.
func (e *Engine) Dispatch(policy Policy, now float64, pending []*order.Order, drivers []*driver.Driver, ix *order.Index) []types.ID {
	switch policy {
	case PolicyBaseline:
		return e.dispatchBaseline(now, pending, drivers)
	case PolicySequential:
		return e.dispatchSequential(now, pending, drivers, ix)
	case PolicyCombinatorial:
		return e.dispatchCombinatorial(now, pending, drivers, ix)
	case PolicyAdaptive:
		return e.Dispatch(e.EffectivePolicy(policy, now, ix), now, pending, drivers, ix)
	}
	return nil
}

// EffectivePolicy resolves Adaptive into Sequential or Combinatorial from
// the recent arrival rate; every other policy maps to itself.
func (e *Engine) EffectivePolicy(policy Policy, now float64, ix *order.Index) Policy {
	if policy != PolicyAdaptive {
		return policy
	}
	if e.arrivalRate(now, ix) >= e.cfg.HighLoadThreshold {
		return PolicyCombinatorial
	}
	return PolicySequential
}

// arrivalRate is orders created per minute over the rate window: the window
// minutes before now, [now-window, now).
func (e *Engine) arrivalRate(now float64, ix *order.Index) float64 {
	window := float64(e.cfg.CombinatorialWindowMins)
	if window <= 0 {
		return 0
	}
	count := 0
	for _, o := range ix.All() {
		if o.CreatedAt >= now-window && o.CreatedAt < now {
			count++
		}
	}
	return float64(count) / window
}

// dispatchBaseline assigns each pending order to the nearest Idle driver with
// a trivial two-stop route. No bundling, no re-routing; orders with no Idle
// driver defer to the next tick.
func (e *Engine) dispatchBaseline(now float64, pending []*order.Order, drivers []*driver.Driver) []types.ID {
	var assigned []types.ID
	for _, o := range pending {
		var best *driver.Driver
		bestDist := math.Inf(1)
		for _, d := range drivers {
			if d.Status != driver.StatusIdle || d.AvailableFrom > now {
				continue
			}
			dist := e.oracle.DistanceKm(d.Position, o.Pickup)
			if dist < bestDist {
				best = d
				bestDist = dist
			}
		}
		if best == nil {
			continue
		}
		stops := []order.Stop{
			{Coord: o.Pickup, Kind: order.StopPickup, OrderID: o.ID},
			{Coord: o.Dropoff, Kind: order.StopDropoff, OrderID: o.ID},
		}
		total := bestDist + e.oracle.DistanceKm(o.Pickup, o.Dropoff)
		e.assign(best, []*order.Order{o}, stops, total, now)
		assigned = append(assigned, o.ID)
	}
	return assigned
}

// dispatchSequential auctions orders one at a time on marginal cost, with the
// better-late-than-never fallback when every bid is rejected.
func (e *Engine) dispatchSequential(now float64, pending []*order.Order, drivers []*driver.Driver, ix *order.Index) []types.ID {
	var assigned []types.ID
	for _, o := range pending {
		winner, ok := e.auctionSingle(o, now, drivers, ix)
		if !ok {
			winner, ok = e.nearestWithCapacity(o, now, drivers, ix)
			if ok {
				e.log.Debugw("sla fallback assignment", "order", o.ID, "driver", winner.d.ID)
			}
		}
		if !ok {
			continue
		}
		e.assign(winner.d, winner.orders, winner.stops, winner.totalDistance, now)
		assigned = append(assigned, o.ID)
	}
	return assigned
}

// candidate is one priced (driver, prospective route) pair.
type candidate struct {
	d             *driver.Driver
	orders        []*order.Order
	stops         []order.Stop
	totalDistance float64
	cost          float64
	newCount      int
	bundleKey     string
}

// auctionSingle prices order o against every eligible driver and returns the
// cheapest finite candidate.
func (e *Engine) auctionSingle(o *order.Order, now float64, drivers []*driver.Driver, ix *order.Index) (candidate, bool) {
	best := candidate{cost: math.Inf(1)}
	found := false
	for _, d := range drivers {
		if !e.eligible(d, now) {
			continue
		}
		c, ok := e.price(d, []*order.Order{o}, now, ix)
		if !ok {
			continue
		}
		if !found || lessCandidate(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

// nearestWithCapacity is the fallback rule: the closest eligible driver that
// still has room takes the order regardless of the SLA projection.
func (e *Engine) nearestWithCapacity(o *order.Order, now float64, drivers []*driver.Driver, ix *order.Index) (candidate, bool) {
	var best *driver.Driver
	bestDist := math.Inf(1)
	for _, d := range drivers {
		if !e.eligible(d, now) {
			continue
		}
		dist := e.oracle.DistanceKm(d.Position, o.Pickup)
		if dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	if best == nil {
		return candidate{}, false
	}
	combined, picked := e.combinedOrders(best, []*order.Order{o}, ix)
	stops, total := e.optimizer.BestRoute(best.Position, combined, picked)
	return candidate{d: best, orders: combined, stops: stops, totalDistance: total}, true
}

// dispatchCombinatorial runs the bundle auction to fixed point: generate
// bundles, price every (bundle, driver) pair, take the lexicographic best,
// repeat on the remainder.
func (e *Engine) dispatchCombinatorial(now float64, pending []*order.Order, drivers []*driver.Driver, ix *order.Index) []types.ID {
	var assigned []types.ID
	remaining := append([]*order.Order(nil), pending...)

	for len(remaining) > 0 && e.anyEligible(drivers, now) {
		bundles := e.generator.Generate(remaining)

		best := candidate{cost: math.Inf(1)}
		found := false
		for _, b := range bundles {
			for _, d := range drivers {
				if !e.eligible(d, now) || len(b) > d.SpareCapacity() {
					continue
				}
				c, ok := e.price(d, b, now, ix)
				if !ok {
					continue
				}
				if !found || lessCandidate(c, best) {
					best = c
					found = true
				}
			}
		}

		if !found {
			// No bundle survives the SLA floor; hand the rest to the
			// per-order fallback and stop.
			for _, o := range remaining {
				w, ok := e.nearestWithCapacity(o, now, drivers, ix)
				if !ok {
					break
				}
				e.assign(w.d, w.orders, w.stops, w.totalDistance, now)
				assigned = append(assigned, o.ID)
			}
			return assigned
		}

		e.assign(best.d, best.orders, best.stops, best.totalDistance, now)
		taken := make(map[types.ID]bool, best.newCount)
		for _, o := range best.orders {
			taken[o.ID] = true
		}
		var rest []*order.Order
		for _, o := range remaining {
			if taken[o.ID] {
				assigned = append(assigned, o.ID)
			} else {
				rest = append(rest, o)
			}
		}
		remaining = rest
	}
	return assigned
}

// lessCandidate orders candidates by (cost, -new orders, driver ID, bundle
// key). The new-order preference is the fleet-compression lever; the trailing
// keys keep selection deterministic under any evaluation order.
func lessCandidate(a, b candidate) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.newCount != b.newCount {
		return a.newCount > b.newCount
	}
	if a.d.ID != b.d.ID {
		return a.d.ID < b.d.ID
	}
	return a.bundleKey < b.bundleKey
}

// eligible: Idle drivers on shift, or Accruing drivers with spare capacity.
// Delivering drivers are locked out.
func (e *Engine) eligible(d *driver.Driver, now float64) bool {
	switch d.Status {
	case driver.StatusIdle:
		return d.AvailableFrom <= now
	case driver.StatusAccruing:
		return d.SpareCapacity() > 0
	}
	return false
}

func (e *Engine) anyEligible(drivers []*driver.Driver, now float64) bool {
	for _, d := range drivers {
		if e.eligible(d, now) {
			return true
		}
	}
	return false
}

// price builds the driver's full prospective route (existing orders plus the
// new group), optimizes it, and bids. Returns false on any hard rejection.
func (e *Engine) price(d *driver.Driver, newOrders []*order.Order, now float64, ix *order.Index) (candidate, bool) {
	combined, picked := e.combinedOrders(d, newOrders, ix)
	if len(combined) > d.Capacity {
		return candidate{}, false
	}
	stops, total := e.optimizer.BestRoute(d.Position, combined, picked)
	cost := e.scorer.Bid(d, combined, stops, total, now, e.existingRouteDistance(d))
	if math.IsInf(cost, 1) {
		return candidate{}, false
	}
	b := routing.Bundle{Orders: combined, Stops: stops, TotalDistanceKm: total}
	return candidate{
		d:             d,
		orders:        combined,
		stops:         stops,
		totalDistance: total,
		cost:          cost,
		newCount:      len(newOrders),
		bundleKey:     b.Key(),
	}, true
}

// combinedOrders resolves the driver's current assignments through the index
// and appends the new group, reporting which orders are already picked up.
func (e *Engine) combinedOrders(d *driver.Driver, newOrders []*order.Order, ix *order.Index) ([]*order.Order, map[types.ID]bool) {
	combined := make([]*order.Order, 0, len(d.AssignedOrders)+len(newOrders))
	picked := make(map[types.ID]bool)
	for _, id := range d.AssignedOrders {
		o := ix.MustGet(id)
		combined = append(combined, o)
		if o.PickedUp() {
			picked[o.ID] = true
		}
	}
	combined = append(combined, newOrders...)
	return combined, picked
}

// existingRouteDistance is the length of the committed route from the
// driver's current position; zero for Idle drivers.
func (e *Engine) existingRouteDistance(d *driver.Driver) float64 {
	remaining := d.RemainingStops()
	if len(remaining) == 0 {
		return 0
	}
	total := 0.0
	at := d.Position
	for _, s := range remaining {
		total += e.oracle.DistanceKm(at, s.Coord)
		at = s.Coord
	}
	return total
}

// assign applies the common assignment mutation: the winning bundle becomes
// the driver's work list and route, and newly attached orders move to
// Assigned.
func (e *Engine) assign(d *driver.Driver, orders []*order.Order, stops []order.Stop, totalDistance, now float64) {
	d.AssignedOrders = d.AssignedOrders[:0]
	for _, o := range orders {
		d.AssignedOrders = append(d.AssignedOrders, o.ID)
		if o.Status == order.StatusPending {
			o.Status = order.StatusAssigned
			id := d.ID
			o.DriverID = &id
		}
	}
	d.RouteStops = stops
	d.CurrentStopIndex = 0
	if len(stops) > 0 {
		d.EtaNextStop = now + e.oracle.TravelTimeMins(d.Position, stops[0].Coord)
	}
	d.Status = driver.StatusAccruing
	d.MarkActivated()
	e.log.Debugw("assignment", "driver", d.ID, "orders", len(orders), "route_km", totalDistance)
}
