package routing

import (
	"math"
	"testing"

	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

func newTestOptimizer() *Optimizer {
	return NewOptimizer(location.NewHaversine(35.0))
}

func mkOrder(id string, pickup, dropoff types.Point) *order.Order {
	return &order.Order{
		ID:      types.ID(id),
		Pickup:  pickup,
		Dropoff: dropoff,
		Status:  order.StatusPending,
	}
}

func TestBestRoute_EmptyInput(t *testing.T) {
	opt := newTestOptimizer()
	stops, dist := opt.BestRoute(types.Point{Lat: 25.285, Lng: 51.531}, nil, nil)
	if len(stops) != 0 {
		t.Errorf("expected empty route, got %d stops", len(stops))
	}
	if !math.IsInf(dist, 1) {
		t.Errorf("expected infinite distance, got %f", dist)
	}
}

func TestBestRoute_SingleOrder(t *testing.T) {
	opt := newTestOptimizer()
	o := mkOrder("o1",
		types.Point{Lat: 25.290, Lng: 51.535},
		types.Point{Lat: 25.300, Lng: 51.545})
	start := types.Point{Lat: 25.285, Lng: 51.531}

	stops, dist := opt.BestRoute(start, []*order.Order{o}, nil)

	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}
	if stops[0].Kind != order.StopPickup || stops[1].Kind != order.StopDropoff {
		t.Errorf("expected [pickup dropoff], got [%s %s]", stops[0].Kind, stops[1].Kind)
	}
	want := location.HaversineKm(start, o.Pickup) + location.HaversineKm(o.Pickup, o.Dropoff)
	if math.Abs(dist-want) > 1e-9 {
		t.Errorf("distance = %f, want %f", dist, want)
	}
}

func TestBestRoute_PickedUpOrderContributesDropoffOnly(t *testing.T) {
	opt := newTestOptimizer()
	o := mkOrder("o1",
		types.Point{Lat: 25.290, Lng: 51.535},
		types.Point{Lat: 25.300, Lng: 51.545})
	o.Status = order.StatusPickedUp

	stops, _ := opt.BestRoute(types.Point{Lat: 25.285, Lng: 51.531},
		[]*order.Order{o}, map[types.ID]bool{o.ID: true})

	if len(stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(stops))
	}
	if stops[0].Kind != order.StopDropoff {
		t.Errorf("expected dropoff, got %s", stops[0].Kind)
	}
}

func TestBestRoute_PrecedenceHeld(t *testing.T) {
	opt := newTestOptimizer()
	// Dropoff of o1 is right next to the start; a precedence-free optimum
	// would visit it first.
	o1 := mkOrder("o1",
		types.Point{Lat: 25.350, Lng: 51.531},
		types.Point{Lat: 25.286, Lng: 51.531})
	o2 := mkOrder("o2",
		types.Point{Lat: 25.340, Lng: 51.531},
		types.Point{Lat: 25.330, Lng: 51.531})

	stops, _ := opt.BestRoute(types.Point{Lat: 25.285, Lng: 51.531},
		[]*order.Order{o1, o2}, nil)

	seenPickup := map[types.ID]bool{}
	for _, s := range stops {
		switch s.Kind {
		case order.StopPickup:
			seenPickup[s.OrderID] = true
		case order.StopDropoff:
			if !seenPickup[s.OrderID] {
				t.Fatalf("dropoff before pickup for %s in %v", s.OrderID, stops)
			}
		}
	}
}

// Optimality for |O| = 2: the chosen route must beat every valid
// permutation enumerated by hand.
func TestBestRoute_OptimalForTwoOrders(t *testing.T) {
	opt := newTestOptimizer()
	oracle := location.NewHaversine(35.0)
	start := types.Point{Lat: 25.285, Lng: 51.531}
	o1 := mkOrder("o1",
		types.Point{Lat: 25.290, Lng: 51.540},
		types.Point{Lat: 25.310, Lng: 51.560})
	o2 := mkOrder("o2",
		types.Point{Lat: 25.292, Lng: 51.541},
		types.Point{Lat: 25.270, Lng: 51.520})

	_, got := opt.BestRoute(start, []*order.Order{o1, o2}, nil)

	p1, d1 := o1.Pickup, o1.Dropoff
	p2, d2 := o2.Pickup, o2.Dropoff
	valid := [][]types.Point{
		{p1, d1, p2, d2},
		{p1, p2, d1, d2},
		{p1, p2, d2, d1},
		{p2, d2, p1, d1},
		{p2, p1, d1, d2},
		{p2, p1, d2, d1},
	}
	best := math.Inf(1)
	for _, seq := range valid {
		total := 0.0
		at := start
		for _, p := range seq {
			total += oracle.DistanceKm(at, p)
			at = p
		}
		if total < best {
			best = total
		}
	}
	if math.Abs(got-best) > 1e-9 {
		t.Errorf("optimizer distance = %f, brute force best = %f", got, best)
	}
}
