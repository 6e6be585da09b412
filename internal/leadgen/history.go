package leadgen

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

// History lists the requesting operator's recent generation runs,
// most-recent-first.
func (s *Service) History(ctx context.Context, operatorID string, limit int) ([]model.GenerationRun, error) {
	op, err := s.authorize(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	runs, err := s.store.ListRuns(ctx, store.RunFilter{OperatorID: op.ID, Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "leadgen: list history")
	}
	return runs, nil
}

// WeeklyPerformance aggregates generated vs accepted lead counts per ISO
// week across all operators, for trend reporting.
func (s *Service) WeeklyPerformance(ctx context.Context, operatorID string) ([]model.WeeklyBucket, error) {
	if _, err := s.authorize(ctx, operatorID); err != nil {
		return nil, err
	}
	buckets, err := s.store.WeeklyPerformance(ctx, 12)
	if err != nil {
		return nil, eris.Wrap(err, "leadgen: weekly performance")
	}
	return buckets, nil
}
