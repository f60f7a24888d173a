// README: Run store backed by PostgreSQL.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartdispatch/internal/modules/order"
	"smartdispatch/internal/sim"
	"smartdispatch/internal/types"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO runs (
            id, dataset, strategy,
            orders_total, orders_delivered, drivers_activated,
            total_distance_km, avg_delivery_mins, median_delivery_mins,
            p95_delivery_mins, max_delivery_mins, orders_per_driver,
            on_time_rate, late_over_45, late_over_60, fleet_utilization,
            created_at
        ) VALUES (
            $1, $2, $3,
            $4, $5, $6,
            $7, $8, $9,
            $10, $11, $12,
            $13, $14, $15, $16,
            $17
        )`,
		string(run.ID),
		run.Dataset,
		run.Strategy,
		run.KPI.OrdersTotal,
		run.KPI.OrdersDelivered,
		run.KPI.DriversActivated,
		run.KPI.TotalDistanceKm,
		run.KPI.AvgDeliveryMins,
		run.KPI.MedianDeliveryMins,
		run.KPI.P95DeliveryMins,
		run.KPI.MaxDeliveryMins,
		run.KPI.OrdersPerDriver,
		run.KPI.OnTimeRate,
		run.KPI.LateOver45,
		run.KPI.LateOver60,
		run.KPI.FleetUtilization,
		run.CreatedAt,
	)
	return err
}

func (s *Store) AppendOrderLogs(ctx context.Context, runID types.ID, logs []sim.OrderLog) error {
	for _, l := range logs {
		var driverID *string
		if l.DriverID != nil {
			v := string(*l.DriverID)
			driverID = &v
		}
		_, err := s.db.Exec(ctx, `
            INSERT INTO run_orders (
                run_id, order_id, driver_id, status,
                created_min, pickup_min, dropoff_min, duration_mins, on_time
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			string(runID),
			string(l.ID),
			driverID,
			string(l.Status),
			l.CreatedAt,
			l.PickupTime,
			l.DropoffTime,
			l.DurationMins,
			l.OnTime,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id types.ID) (*Run, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, dataset, strategy,
               orders_total, orders_delivered, drivers_activated,
               total_distance_km, avg_delivery_mins, median_delivery_mins,
               p95_delivery_mins, max_delivery_mins, orders_per_driver,
               on_time_rate, late_over_45, late_over_60, fleet_utilization,
               created_at
        FROM runs
        WHERE id = $1`, string(id),
	)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, dataset, strategy,
               orders_total, orders_delivered, drivers_activated,
               total_distance_km, avg_delivery_mins, median_delivery_mins,
               p95_delivery_mins, max_delivery_mins, orders_per_driver,
               on_time_rate, late_over_45, late_over_60, fleet_utilization,
               created_at
        FROM runs
        ORDER BY created_at DESC
        LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) ListOrderLogs(ctx context.Context, runID types.ID) ([]sim.OrderLog, error) {
	rows, err := s.db.Query(ctx, `
        SELECT order_id, driver_id, status, created_min, pickup_min, dropoff_min, duration_mins, on_time
        FROM run_orders
        WHERE run_id = $1
        ORDER BY created_min`, string(runID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []sim.OrderLog
	for rows.Next() {
		var l sim.OrderLog
		var orderID, status string
		var driverID *string
		if err := rows.Scan(&orderID, &driverID, &status, &l.CreatedAt, &l.PickupTime, &l.DropoffTime, &l.DurationMins, &l.OnTime); err != nil {
			return nil, err
		}
		l.ID = types.ID(orderID)
		if driverID != nil {
			d := types.ID(*driverID)
			l.DriverID = &d
		}
		l.Status = order.Status(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var id string
	var createdAt time.Time
	err := row.Scan(
		&id, &run.Dataset, &run.Strategy,
		&run.KPI.OrdersTotal, &run.KPI.OrdersDelivered, &run.KPI.DriversActivated,
		&run.KPI.TotalDistanceKm, &run.KPI.AvgDeliveryMins, &run.KPI.MedianDeliveryMins,
		&run.KPI.P95DeliveryMins, &run.KPI.MaxDeliveryMins, &run.KPI.OrdersPerDriver,
		&run.KPI.OnTimeRate, &run.KPI.LateOver45, &run.KPI.LateOver60, &run.KPI.FleetUtilization,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	run.ID = types.ID(id)
	run.CreatedAt = createdAt
	run.KPI.OrdersUndelivered = run.KPI.OrdersTotal - run.KPI.OrdersDelivered
	return &run, nil
}
