package sim

import (
	"math"
	"testing"

	"smartdispatch/internal/config"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/dispatch"
	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

var doha = types.Point{Lat: 25.285, Lng: 51.531}

func eastOf(km float64) types.Point {
	return types.Point{Lat: doha.Lat, Lng: doha.Lng + km/100.6}
}

func singleOrder() *order.Order {
	return &order.Order{
		ID:                    "O",
		Pickup:                types.Point{Lat: 25.290, Lng: 51.535},
		Dropoff:               types.Point{Lat: 25.300, Lng: 51.545},
		CreatedAt:             1020, // 17:00
		Deadline:              1065, // 17:45
		EstimatedDurationMins: 20,
		Status:                order.StatusPending,
	}
}

func runSim(t *testing.T, cfg config.Dispatch, policy dispatch.Policy, orders []*order.Order, drivers []*driver.Driver) *Result {
	t.Helper()
	s, err := New(cfg, location.NewHaversine(cfg.AvgSpeedKmh), policy, orders, drivers, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// Single order, single driver: every policy must deliver it well inside the
// window with one activated driver.
func TestRun_SingleOrderSingleDriver_AllPolicies(t *testing.T) {
	policies := []dispatch.Policy{
		dispatch.PolicyBaseline,
		dispatch.PolicySequential,
		dispatch.PolicyCombinatorial,
		dispatch.PolicyAdaptive,
	}
	for _, policy := range policies {
		t.Run(string(policy), func(t *testing.T) {
			o := singleOrder()
			d := driver.New("D", doha, driver.VehicleMotorbike, 2, 0)
			res := runSim(t, config.DefaultDispatch(), policy, []*order.Order{o}, []*driver.Driver{d})

			if res.KPI.OrdersDelivered != 1 {
				t.Fatalf("orders delivered = %d", res.KPI.OrdersDelivered)
			}
			if res.KPI.DriversActivated != 1 {
				t.Errorf("drivers activated = %d, want 1", res.KPI.DriversActivated)
			}
			if got := res.Assignments["O"]; got != "D" {
				t.Errorf("assignment = %s, want D", got)
			}
			if *o.DropoffTime >= 1050 {
				t.Errorf("dropoff at %.1f, want before 17:30", *o.DropoffTime)
			}
			stops := res.RouteLogs["D"]
			if len(stops) != 2 || stops[0].Kind != order.StopPickup || stops[1].Kind != order.StopDropoff {
				t.Errorf("unexpected route log: %v", stops)
			}
			if d.Status != driver.StatusIdle {
				t.Errorf("driver should end idle, got %s", d.Status)
			}
		})
	}
}

// Two co-located orders: the auction policies compress onto one driver,
// baseline spreads over two.
func TestRun_ColocatedOrders_FleetCompression(t *testing.T) {
	mk := func() ([]*order.Order, []*driver.Driver) {
		o1 := &order.Order{
			ID: "O1", Pickup: doha, Dropoff: eastOf(2),
			CreatedAt: 1020, Deadline: 1065, EstimatedDurationMins: 20,
			Status: order.StatusPending,
		}
		o2 := &order.Order{
			ID: "O2", Pickup: doha, Dropoff: eastOf(2.1),
			CreatedAt: 1020, Deadline: 1065, EstimatedDurationMins: 20,
			Status: order.StatusPending,
		}
		d1 := driver.New("D1", doha, driver.VehicleMotorbike, 2, 0)
		d2 := driver.New("D2", eastOf(3), driver.VehicleMotorbike, 2, 0)
		return []*order.Order{o1, o2}, []*driver.Driver{d1, d2}
	}

	activated := make(map[dispatch.Policy]int)
	for _, policy := range []dispatch.Policy{
		dispatch.PolicyBaseline, dispatch.PolicySequential, dispatch.PolicyCombinatorial,
	} {
		orders, drivers := mk()
		res := runSim(t, config.DefaultDispatch(), policy, orders, drivers)
		if res.KPI.OrdersDelivered != 2 {
			t.Fatalf("%s: delivered %d of 2", policy, res.KPI.OrdersDelivered)
		}
		activated[policy] = res.KPI.DriversActivated
	}

	if activated[dispatch.PolicyBaseline] != 2 {
		t.Errorf("baseline should activate 2 drivers, got %d", activated[dispatch.PolicyBaseline])
	}
	if activated[dispatch.PolicySequential] != 1 {
		t.Errorf("sequential should activate 1 driver, got %d", activated[dispatch.PolicySequential])
	}
	if activated[dispatch.PolicyCombinatorial] != 1 {
		t.Errorf("combinatorial should activate 1 driver, got %d", activated[dispatch.PolicyCombinatorial])
	}
	if activated[dispatch.PolicyBaseline] < activated[dispatch.PolicyCombinatorial] {
		t.Error("baseline must never activate fewer drivers than combinatorial")
	}
}

// The batching gate holds auction policies for the batch window; baseline
// dispatches immediately.
func TestRun_BatchingGateDelaysAuction(t *testing.T) {
	d := driver.New("D", types.Point{Lat: 25.290, Lng: 51.535}, driver.VehicleMotorbike, 2, 0)
	o := singleOrder()
	res := runSim(t, config.DefaultDispatch(), dispatch.PolicySequential, []*order.Order{o}, []*driver.Driver{d})
	if res.KPI.OrdersDelivered != 1 {
		t.Fatal("order not delivered")
	}
	if *o.PickupTime < 1021 {
		t.Errorf("sequential pickup at %.2f, want >= 17:01 (batch window)", *o.PickupTime)
	}

	o2 := singleOrder()
	d2 := driver.New("D", types.Point{Lat: 25.290, Lng: 51.535}, driver.VehicleMotorbike, 2, 0)
	runSim(t, config.DefaultDispatch(), dispatch.PolicyBaseline, []*order.Order{o2}, []*driver.Driver{d2})
	if *o2.PickupTime >= 1021 {
		t.Errorf("baseline pickup at %.2f, want before 17:01", *o2.PickupTime)
	}
}

// An order already brushing its deadline flushes the batch immediately.
func TestRun_UrgentOrderFlushesBatch(t *testing.T) {
	o := singleOrder()
	o.Deadline = 1026 // six minutes out, inside estimated/3 of the deadline
	d := driver.New("D", types.Point{Lat: 25.290, Lng: 51.535}, driver.VehicleMotorbike, 2, 0)
	res := runSim(t, config.DefaultDispatch(), dispatch.PolicySequential, []*order.Order{o}, []*driver.Driver{d})
	if res.KPI.OrdersDelivered != 1 {
		t.Fatal("order not delivered")
	}
	if *o.PickupTime >= 1021 {
		t.Errorf("urgent order picked up at %.2f, want immediate dispatch", *o.PickupTime)
	}
}

// Identical inputs yield identical KPI vectors.
func TestRun_Deterministic(t *testing.T) {
	mk := func() ([]*order.Order, []*driver.Driver) {
		var orders []*order.Order
		ids := []types.ID{"a", "b", "c", "d", "e"}
		for i, id := range ids {
			orders = append(orders, &order.Order{
				ID:     id,
				Pickup: eastOf(float64(i) * 0.7), Dropoff: eastOf(float64(i)*0.7 + 2),
				CreatedAt: 1020 + float64(i), Deadline: 1080 + float64(i),
				EstimatedDurationMins: 25, Status: order.StatusPending,
			})
		}
		drivers := []*driver.Driver{
			driver.New("d1", doha, driver.VehicleMotorbike, 2, 0),
			driver.New("d2", eastOf(1.5), driver.VehicleBike, 2, 0),
			driver.New("d3", eastOf(3), driver.VehicleCar, 2, 0),
		}
		return orders, drivers
	}

	o1, dr1 := mk()
	o2, dr2 := mk()
	r1 := runSim(t, config.DefaultDispatch(), dispatch.PolicyCombinatorial, o1, dr1)
	r2 := runSim(t, config.DefaultDispatch(), dispatch.PolicyCombinatorial, o2, dr2)

	if r1.KPI != r2.KPI {
		t.Errorf("KPI vectors differ:\n%+v\n%+v", r1.KPI, r2.KPI)
	}
	for id, drv := range r1.Assignments {
		if r2.Assignments[id] != drv {
			t.Errorf("assignment of %s differs: %s vs %s", id, drv, r2.Assignments[id])
		}
	}
}

// Ticking past quiescence must not change anything: a longer shift produces
// the same KPI vector.
func TestRun_QuiescentTicksAreIdempotent(t *testing.T) {
	run := func(shiftEnd int) Snapshot {
		cfg := config.DefaultDispatch()
		cfg.ShiftEndMin = shiftEnd
		o := singleOrder()
		d := driver.New("D", doha, driver.VehicleMotorbike, 2, 0)
		res := runSim(t, cfg, dispatch.PolicyCombinatorial, []*order.Order{o}, []*driver.Driver{d})
		return res.KPI
	}

	short := run(22 * 60)
	long := run(23 * 60)
	// Utilization depends on elapsed ticks; everything else must match.
	short.FleetUtilization, long.FleetUtilization = 0, 0
	if short != long {
		t.Errorf("KPIs diverge after quiescence:\n%+v\n%+v", short, long)
	}
}

// Fleet distance equals the sum of traversed segments per driver.
func TestRun_FleetDistanceMatchesSegments(t *testing.T) {
	oracle := location.NewHaversine(35.0)
	o := singleOrder()
	d := driver.New("D", doha, driver.VehicleMotorbike, 2, 0)
	res := runSim(t, config.DefaultDispatch(), dispatch.PolicyBaseline, []*order.Order{o}, []*driver.Driver{d})

	want := oracle.DistanceKm(doha, o.Pickup) + oracle.DistanceKm(o.Pickup, o.Dropoff)
	if math.Abs(res.KPI.TotalDistanceKm-want) > 1e-9 {
		t.Errorf("fleet distance = %f, want %f", res.KPI.TotalDistanceKm, want)
	}
}

// Orders that never fit the shift report as undelivered, not as a failure.
func TestRun_UnassignedAtTerminationReported(t *testing.T) {
	o := singleOrder()
	o.CreatedAt = 1500 // created after the shift ends
	d := driver.New("D", doha, driver.VehicleMotorbike, 2, 0)
	res := runSim(t, config.DefaultDispatch(), dispatch.PolicyCombinatorial, []*order.Order{o}, []*driver.Driver{d})

	if res.KPI.OrdersDelivered != 0 || res.KPI.OrdersUndelivered != 1 {
		t.Errorf("expected 0 delivered / 1 undelivered, got %d/%d",
			res.KPI.OrdersDelivered, res.KPI.OrdersUndelivered)
	}
	if res.KPI.DriversActivated != 0 {
		t.Errorf("no driver should activate, got %d", res.KPI.DriversActivated)
	}
}

// Drivers whose shift has not started are not eligible.
func TestRun_DriverAvailabilityRespected(t *testing.T) {
	o := singleOrder()
	early := driver.New("early", doha, driver.VehicleMotorbike, 2, 0)
	late := driver.New("late", types.Point{Lat: 25.290, Lng: 51.535}, driver.VehicleMotorbike, 2, 1200)
	res := runSim(t, config.DefaultDispatch(), dispatch.PolicyBaseline, []*order.Order{o}, []*driver.Driver{late, early})

	if got := res.Assignments["O"]; got != "early" {
		t.Errorf("off-shift driver must not win; got %s", got)
	}
}

func TestMinuteClock(t *testing.T) {
	tests := []struct {
		min  float64
		want string
	}{
		{1020, "17:00"},
		{1021.5, "17:01"},
		{0, "00:00"},
		{1439, "23:59"},
	}
	for _, tt := range tests {
		if got := MinuteClock(tt.min); got != tt.want {
			t.Errorf("MinuteClock(%v) = %s, want %s", tt.min, got, tt.want)
		}
	}
}
