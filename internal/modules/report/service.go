// README: Report service — persists finished runs and serves them to the API.
package report

import (
	"context"
	"time"

	"smartdispatch/internal/sim"
	"smartdispatch/internal/types"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Persist stores a finished run with its KPI vector and per-order log.
func (s *Service) Persist(ctx context.Context, dataset string, res *sim.Result) error {
	run := &Run{
		ID:        res.RunID,
		Dataset:   dataset,
		Strategy:  string(res.Policy),
		KPI:       res.KPI,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return err
	}
	return s.store.AppendOrderLogs(ctx, run.ID, res.Orders)
}

func (s *Service) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Run, error) {
	return s.store.GetRun(ctx, id)
}

func (s *Service) OrderLogs(ctx context.Context, id types.ID) ([]sim.OrderLog, error) {
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListOrderLogs(ctx, id)
}
