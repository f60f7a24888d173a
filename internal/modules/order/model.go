// README: Order aggregate, stop tuples, and status transition rules.
package order

import (
	"smartdispatch/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusDelivered Status = "delivered"
)

// Order is a delivery request. Times are minutes-of-day; PickupTime and
// DropoffTime are stamped by the simulator as the owning driver traverses.
type Order struct {
	ID                    types.ID
	Pickup                types.Point
	Dropoff               types.Point
	CreatedAt             float64
	Deadline              float64
	EstimatedDurationMins int
	Status                Status
	DriverID              *types.ID
	PickupTime            *float64
	DropoffTime           *float64
}

// PickedUp reports whether the order has left its pickup point. Once true the
// order may no longer change drivers.
func (o *Order) PickedUp() bool {
	return o.Status == StatusPickedUp || o.Status == StatusDelivered
}

type StopKind string

const (
	StopPickup  StopKind = "pickup"
	StopDropoff StopKind = "dropoff"
)

// Stop is one visit in a driver's route. Routes reference orders by ID only;
// the engine resolves them through the Index.
type Stop struct {
	Coord   types.Point
	Kind    StopKind
	OrderID types.ID
}

// AllowedTransitions represents the delivery state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAssigned},
	StatusAssigned: {StatusPickedUp},
	StatusPickedUp: {StatusDelivered},
}

var allowedTransitionSet = buildTransitionSet(AllowedTransitions)

func buildTransitionSet(transitions map[Status][]Status) map[Status]map[Status]struct{} {
	set := make(map[Status]map[Status]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[Status]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

// CanTransition checks if a status transition is valid.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}
