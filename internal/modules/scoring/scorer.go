// README: Marginal-cost bid function for the dispatch auction.
package scoring

import (
	"math"

	"smartdispatch/internal/config"
	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

// latenessCapMins bounds the per-order lateness term so a single stale order
// cannot dominate the whole bid.
const latenessCapMins = 20.0

// Scorer prices a (driver, bundle) pair. Lower is better; +Inf is a hard
// rejection the auction must never select.
type Scorer struct {
	oracle location.Oracle
	cfg    config.Dispatch
}

func NewScorer(oracle location.Oracle, cfg config.Dispatch) *Scorer {
	return &Scorer{oracle: oracle, cfg: cfg}
}

// Projection carries the simulated traversal of a candidate route: the
// absolute minute each order would be dropped off if the driver departed now.
type Projection struct {
	DropoffAt map[types.ID]float64
}

// Project walks stops from start at minute now, accumulating travel time plus
// the per-stop service time. Service time is charged after the stop is
// reached, against the next leg, matching the simulator's traversal exactly.
func (s *Scorer) Project(start types.Point, stops []order.Stop, now float64) Projection {
	p := Projection{DropoffAt: make(map[types.ID]float64)}
	at := start
	t := now
	for _, stop := range stops {
		t += s.oracle.TravelTimeMins(at, stop.Coord)
		if stop.Kind == order.StopDropoff {
			p.DropoffAt[stop.OrderID] = t
		}
		t += s.cfg.ServiceTimeMins
		at = stop.Coord
	}
	return p
}

// Bid returns the cost for the driver to take the bundle, where the bundle's
// stops realize the driver's entire prospective route (existing work plus new
// orders). existingRouteDistance is the length of the route the driver is
// already committed to; the bid prices only the marginal addition.
func (s *Scorer) Bid(d *driver.Driver, orders []*order.Order, stops []order.Stop, totalDistance, now, existingRouteDistance float64) float64 {
	if len(orders) > d.Capacity {
		return math.Inf(1)
	}

	proj := s.Project(d.Position, stops, now)

	var lateness float64
	for _, o := range orders {
		dropoff, ok := proj.DropoffAt[o.ID]
		if !ok {
			return math.Inf(1)
		}
		projectedDuration := dropoff - o.CreatedAt
		if projectedDuration > s.cfg.MaxDeliveryTimeMins {
			return math.Inf(1)
		}
		late := projectedDuration - float64(o.EstimatedDurationMins)
		if late > 0 {
			lateness += math.Min(late, latenessCapMins)
		}
	}

	marginal := totalDistance - existingRouteDistance
	base := s.cfg.WDistance*marginal + s.cfg.WDelay*lateness
	vehicleAdj := base * s.vehiclePenalty(d.VehicleClass)
	perOrder := vehicleAdj / float64(len(orders))
	discount := 1.0 - s.cfg.BundleDiscountPerOrder*float64(len(orders)-1)
	if discount < 0 {
		discount = 0
	}
	return perOrder * discount
}

func (s *Scorer) vehiclePenalty(class driver.VehicleClass) float64 {
	switch class {
	case driver.VehicleBike:
		return s.cfg.PenaltyBike
	case driver.VehicleCar:
		return s.cfg.PenaltyCar
	default:
		return s.cfg.PenaltyMotorbike
	}
}
