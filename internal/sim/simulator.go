// README: Discrete-event simulator — one-minute ticks over driver traversal, order injection, and dispatch.
package sim

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"smartdispatch/internal/config"
	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/dispatch"
	"smartdispatch/internal/modules/driver"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/types"
)

// Simulator owns all mutable run state. The dispatch engine sees the driver
// list and pending queue as read-only views and mutates only through its
// assignment call; everything else happens here, in tick order.
type Simulator struct {
	cfg    config.Dispatch
	oracle location.Oracle
	engine *dispatch.Engine
	policy dispatch.Policy
	log    *logger.Logger

	ix       *order.Index
	drivers  []*driver.Driver
	pending  []*order.Order
	toInject []*order.Order
	visited  map[types.ID][]order.Stop

	rec *Recorder
}

// Result is everything a run produces: the final assignment map, per-driver
// route logs, and the KPI snapshot.
type Result struct {
	RunID       types.ID
	Policy      dispatch.Policy
	KPI         Snapshot
	Assignments map[types.ID]types.ID
	RouteLogs   map[types.ID][]order.Stop
	Orders      []OrderLog
}

func New(cfg config.Dispatch, oracle location.Oracle, policy dispatch.Policy, orders []*order.Order, drivers []*driver.Driver, log *logger.Logger) (*Simulator, error) {
	ix := order.NewIndex()
	for _, o := range orders {
		if err := ix.Add(o); err != nil {
			return nil, err
		}
	}
	toInject := append([]*order.Order(nil), orders...)
	sort.SliceStable(toInject, func(i, j int) bool { return toInject[i].CreatedAt < toInject[j].CreatedAt })

	return &Simulator{
		cfg:      cfg,
		oracle:   oracle,
		engine:   dispatch.NewEngine(cfg, oracle, log),
		policy:   policy,
		log:      log.With("strategy", string(policy)),
		ix:       ix,
		drivers:  drivers,
		toInject: toInject,
		visited:  make(map[types.ID][]order.Stop),
		rec:      NewRecorder(),
	}, nil
}

// Run executes the tick loop until the shift ends or every order is
// delivered. Input or state-corruption errors surface to the caller; auction
// failures are absorbed into the KPIs.
func (s *Simulator) Run() (*Result, error) {
	start := float64(s.cfg.ShiftStartMin)
	end := float64(s.cfg.ShiftEndMin)

	for now := start; now <= end; now++ {
		if err := s.advanceDrivers(now); err != nil {
			s.dumpState()
			return nil, err
		}
		s.injectOrders(now)
		if s.shouldDispatch(now) {
			assigned := s.engine.Dispatch(s.policy, now, s.pending, s.drivers, s.ix)
			s.removePending(assigned)
		}
		s.rec.RecordTick(s.drivers)
		if s.allDelivered() {
			break
		}
	}

	return s.buildResult(), nil
}

// advanceDrivers replays every arrival whose ETA has passed. Position
// teleports to the stop, the order is stamped, and service time is charged
// against the next leg.
func (s *Simulator) advanceDrivers(now float64) error {
	for _, d := range s.drivers {
		if d.Status == driver.StatusIdle {
			continue
		}
		for d.CurrentStopIndex < len(d.RouteStops) && d.EtaNextStop <= now {
			if err := s.arrive(d); err != nil {
				return err
			}
		}
		if err := d.Validate(s.ix); err != nil {
			return fmt.Errorf("state corruption: %w", err)
		}
	}
	return nil
}

func (s *Simulator) arrive(d *driver.Driver) error {
	stop := d.RouteStops[d.CurrentStopIndex]
	arrivedAt := d.EtaNextStop

	d.DistanceKm += s.oracle.DistanceKm(d.Position, stop.Coord)
	d.Position = stop.Coord
	s.visited[d.ID] = append(s.visited[d.ID], stop)

	o, err := s.ix.Get(stop.OrderID)
	if err != nil {
		return fmt.Errorf("state corruption: %w", err)
	}
	switch stop.Kind {
	case order.StopPickup:
		if err := s.ix.Transition(o.ID, order.StatusPickedUp); err != nil {
			return fmt.Errorf("state corruption: %w", err)
		}
		t := arrivedAt
		o.PickupTime = &t
	case order.StopDropoff:
		if err := s.ix.Transition(o.ID, order.StatusDelivered); err != nil {
			return fmt.Errorf("state corruption: %w", err)
		}
		t := arrivedAt
		o.DropoffTime = &t
		d.CompleteOrder(o.ID)
	}

	d.CurrentStopIndex++
	if d.CurrentStopIndex < len(d.RouteStops) {
		next := d.RouteStops[d.CurrentStopIndex]
		d.EtaNextStop = arrivedAt + s.cfg.ServiceTimeMins + s.oracle.TravelTimeMins(stop.Coord, next.Coord)
		if !d.HasPendingPickup() {
			d.Status = driver.StatusDelivering
		}
	} else {
		d.FinishRoute()
	}
	s.log.Debugw("arrival", "driver", d.ID, "stop", string(stop.Kind), "order", o.ID, "at", arrivedAt)
	return nil
}

// injectOrders moves orders whose creation time has come into the pending
// queue, preserving arrival order.
func (s *Simulator) injectOrders(now float64) {
	for len(s.toInject) > 0 && s.toInject[0].CreatedAt <= now {
		s.pending = append(s.pending, s.toInject[0])
		s.toInject = s.toInject[1:]
	}
}

// shouldDispatch applies the batching gate. Baseline dispatches every tick;
// the auction policies wait for the batch window unless an order has drifted
// within a third of its estimated duration of its deadline.
func (s *Simulator) shouldDispatch(now float64) bool {
	if len(s.pending) == 0 {
		return false
	}
	if s.policy == dispatch.PolicyBaseline {
		return true
	}
	for _, o := range s.pending {
		if now-o.CreatedAt >= s.cfg.BatchWindowMins {
			return true
		}
		if o.Deadline-now <= float64(o.EstimatedDurationMins)/3.0 {
			return true
		}
	}
	return false
}

func (s *Simulator) removePending(assigned []types.ID) {
	if len(assigned) == 0 {
		return
	}
	taken := make(map[types.ID]bool, len(assigned))
	for _, id := range assigned {
		taken[id] = true
	}
	var rest []*order.Order
	for _, o := range s.pending {
		if !taken[o.ID] {
			rest = append(rest, o)
		}
	}
	s.pending = rest
}

func (s *Simulator) allDelivered() bool {
	if len(s.toInject) > 0 {
		return false
	}
	for _, o := range s.ix.All() {
		if o.Status != order.StatusDelivered {
			return false
		}
	}
	return true
}

func (s *Simulator) buildResult() *Result {
	res := &Result{
		RunID:       types.ID(uuid.NewString()),
		Policy:      s.policy,
		Assignments: make(map[types.ID]types.ID),
		RouteLogs:   make(map[types.ID][]order.Stop),
	}
	for _, o := range s.ix.All() {
		if o.DriverID != nil {
			res.Assignments[o.ID] = *o.DriverID
		}
		res.Orders = append(res.Orders, NewOrderLog(o))
	}
	for _, d := range s.drivers {
		res.RouteLogs[d.ID] = append([]order.Stop(nil), s.visited[d.ID]...)
	}
	res.KPI = s.rec.Snapshot(s.ix, s.drivers)
	return res
}

// dumpState logs every driver and order on a fatal corruption error so the
// aborted run can be diagnosed.
func (s *Simulator) dumpState() {
	for _, d := range s.drivers {
		s.log.Errorw("driver state",
			"driver", d.ID, "status", string(d.Status),
			"assigned", d.AssignedOrders, "stop_index", d.CurrentStopIndex,
			"route_len", len(d.RouteStops), "eta", d.EtaNextStop)
	}
	for _, o := range s.ix.All() {
		s.log.Errorw("order state", "order", o.ID, "status", string(o.Status), "driver", o.DriverID)
	}
}
