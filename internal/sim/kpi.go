// README: KPI recorder — per-tick utilization counters and the end-of-run snapshot.
package sim

import (
	"math"
	"sort"

	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

// Snapshot is the KPI vector of one finished run.
type Snapshot struct {
	OrdersTotal       int
	OrdersDelivered   int
	OrdersUndelivered int

	TotalDistanceKm    float64
	AvgDeliveryMins    float64
	MedianDeliveryMins float64
	P95DeliveryMins    float64
	MaxDeliveryMins    float64

	DriversActivated int
	OrdersPerDriver  float64
	OnTimeRate       float64
	LateOver45       int
	LateOver60       int
	FleetUtilization float64
}

// OrderLog is one order's diagnostic row.
type OrderLog struct {
	ID           types.ID
	DriverID     *types.ID
	Status       order.Status
	CreatedAt    float64
	PickupTime   *float64
	DropoffTime  *float64
	DurationMins float64
	OnTime       bool
}

func NewOrderLog(o *order.Order) OrderLog {
	l := OrderLog{
		ID:          o.ID,
		DriverID:    o.DriverID,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		PickupTime:  o.PickupTime,
		DropoffTime: o.DropoffTime,
	}
	if o.DropoffTime != nil {
		l.DurationMins = *o.DropoffTime - o.CreatedAt
		l.OnTime = l.DurationMins <= float64(o.EstimatedDurationMins)
	}
	return l
}

// Recorder accumulates the per-tick counters the snapshot cannot recover
// afterwards. It is write-only within a tick.
type Recorder struct {
	ticks     int
	busyTicks int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordTick(drivers []*driver.Driver) {
	r.ticks++
	for _, d := range drivers {
		if d.Status != driver.StatusIdle {
			r.busyTicks++
		}
	}
}

// Snapshot reduces the final order and driver state into the KPI vector.
func (r *Recorder) Snapshot(ix *order.Index, drivers []*driver.Driver) Snapshot {
	var snap Snapshot

	var durations []float64
	for _, o := range ix.All() {
		snap.OrdersTotal++
		if o.Status != order.StatusDelivered || o.DropoffTime == nil {
			snap.OrdersUndelivered++
			continue
		}
		snap.OrdersDelivered++
		dur := *o.DropoffTime - o.CreatedAt
		durations = append(durations, dur)
		if dur <= float64(o.EstimatedDurationMins) {
			snap.OnTimeRate++
		}
		if dur > 45 {
			snap.LateOver45++
		}
		if dur > 60 {
			snap.LateOver60++
		}
	}

	if snap.OrdersDelivered > 0 {
		snap.OnTimeRate /= float64(snap.OrdersDelivered)
		sort.Float64s(durations)
		var sum float64
		for _, d := range durations {
			sum += d
		}
		snap.AvgDeliveryMins = sum / float64(len(durations))
		snap.MedianDeliveryMins = percentile(durations, 0.50)
		snap.P95DeliveryMins = percentile(durations, 0.95)
		snap.MaxDeliveryMins = durations[len(durations)-1]
	}

	for _, d := range drivers {
		snap.TotalDistanceKm += d.DistanceKm
		if d.Activated() {
			snap.DriversActivated++
		}
	}
	if snap.DriversActivated > 0 {
		snap.OrdersPerDriver = float64(snap.OrdersDelivered) / float64(snap.DriversActivated)
	}
	if r.ticks > 0 && len(drivers) > 0 {
		snap.FleetUtilization = float64(r.busyTicks) / float64(r.ticks*len(drivers)) * 100.0
	}
	return snap
}

// percentile over a sorted slice, nearest-rank.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
