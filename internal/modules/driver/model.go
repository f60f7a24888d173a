// README: Driver aggregate with vehicle class, capacity, and the Idle/Accruing/Delivering state machine.
package driver

import (
	"fmt"

	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

type VehicleClass string

const (
	VehicleMotorbike VehicleClass = "motorbike"
	VehicleBike      VehicleClass = "bike"
	VehicleCar       VehicleClass = "car"
)

// ParseVehicleClass maps a CSV vehicle_type cell to a class; unknown values
// are rejected at load time.
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch VehicleClass(s) {
	case VehicleMotorbike, VehicleBike, VehicleCar:
		return VehicleClass(s), nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}

type Status string

const (
	// StatusIdle: no assigned orders; eligible for fresh assignments.
	StatusIdle Status = "idle"
	// StatusAccruing: at least one pickup pending; may still take more orders
	// up to capacity, and the route may be rebuilt.
	StatusAccruing Status = "accruing"
	// StatusDelivering: every pickup done; the remaining route is frozen.
	StatusDelivering Status = "delivering"
)

// Driver is a courier in the fleet. The immutable identity fields come from
// couriers.csv; the rest is mutated tick by tick by the simulator.
type Driver struct {
	ID            types.ID
	Origin        types.Point
	VehicleClass  VehicleClass
	Capacity      int
	AvailableFrom float64

	Position         types.Point
	Status           Status
	AssignedOrders   []types.ID
	RouteStops       []order.Stop
	CurrentStopIndex int
	EtaNextStop      float64

	CompletedOrders []types.ID
	DistanceKm      float64
	everActivated   bool
}

func New(id types.ID, origin types.Point, class VehicleClass, capacity int, availableFrom float64) *Driver {
	return &Driver{
		ID:            id,
		Origin:        origin,
		VehicleClass:  class,
		Capacity:      capacity,
		AvailableFrom: availableFrom,
		Position:      origin,
		Status:        StatusIdle,
	}
}

// RemainingStops returns the not-yet-visited tail of the route.
func (d *Driver) RemainingStops() []order.Stop {
	if d.CurrentStopIndex >= len(d.RouteStops) {
		return nil
	}
	return d.RouteStops[d.CurrentStopIndex:]
}

// HasPendingPickup reports whether any pickup stop remains in the route.
func (d *Driver) HasPendingPickup() bool {
	for _, s := range d.RemainingStops() {
		if s.Kind == order.StopPickup {
			return true
		}
	}
	return false
}

// SpareCapacity is how many more orders the driver may accept.
func (d *Driver) SpareCapacity() int {
	return d.Capacity - len(d.AssignedOrders)
}

// Activated reports whether the driver has ever held an assignment this run.
func (d *Driver) Activated() bool {
	return d.everActivated
}

// MarkActivated latches the activation flag; it never resets within a run.
func (d *Driver) MarkActivated() {
	d.everActivated = true
}

// CompleteOrder moves a delivered order out of the active assignment list,
// freeing its capacity slot.
func (d *Driver) CompleteOrder(id types.ID) {
	for i, assigned := range d.AssignedOrders {
		if assigned == id {
			d.AssignedOrders = append(d.AssignedOrders[:i], d.AssignedOrders[i+1:]...)
			d.CompletedOrders = append(d.CompletedOrders, id)
			return
		}
	}
}

// FinishRoute transitions Delivering -> Idle once the route is exhausted,
// moving current work to history.
func (d *Driver) FinishRoute() {
	d.CompletedOrders = append(d.CompletedOrders, d.AssignedOrders...)
	d.AssignedOrders = nil
	d.RouteStops = nil
	d.CurrentStopIndex = 0
	d.EtaNextStop = 0
	d.Status = StatusIdle
}

// Validate checks the structural invariants the dispatch loop relies on.
// A violation is state corruption and aborts the run.
func (d *Driver) Validate(ix *order.Index) error {
	if len(d.AssignedOrders) > d.Capacity {
		return fmt.Errorf("driver %s holds %d orders over capacity %d", d.ID, len(d.AssignedOrders), d.Capacity)
	}
	pickupSeen := make(map[types.ID]bool)
	for _, s := range d.RemainingStops() {
		o, err := ix.Get(s.OrderID)
		if err != nil {
			return err
		}
		if o.DriverID == nil || *o.DriverID != d.ID {
			return fmt.Errorf("driver %s routes order %s owned by another driver", d.ID, s.OrderID)
		}
		switch s.Kind {
		case order.StopPickup:
			if d.Status == StatusDelivering {
				return fmt.Errorf("driver %s is delivering but still has pickup for %s", d.ID, s.OrderID)
			}
			pickupSeen[s.OrderID] = true
		case order.StopDropoff:
			if !o.PickedUp() && !pickupSeen[s.OrderID] {
				return fmt.Errorf("driver %s has dropoff before pickup for order %s", d.ID, s.OrderID)
			}
		}
	}
	return nil
}
