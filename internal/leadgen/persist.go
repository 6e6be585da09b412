package leadgen

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

// PersistResult reports the outcome of one accept batch. SkippedCount
// includes both write-time duplicates and individual write failures, so the
// operator can see why the created set is smaller than their selection.
type PersistResult struct {
	Created       []model.Lead `json:"created"`
	AcceptedCount int          `json:"accepted_count"`
	SkippedCount  int          `json:"skipped_count"`
}

// PersistAccepted writes the operator-selected candidates as durable leads.
// Each candidate is processed independently: a collision found at write time
// (the authoritative check — the generation-time dedup ran against a
// possibly stale sample) or an individual write failure skips that candidate
// without aborting the batch. The call fails only on authorization, an
// unknown generation id, or when every single write failed.
func (s *Service) PersistAccepted(ctx context.Context, generationID string, candidates []model.CandidateLead, operatorID string) (*PersistResult, error) {
	op, err := s.authorize(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	run, err := s.store.GetRun(ctx, generationID)
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: persist for generation %s", generationID)
	}

	var (
		mu       sync.Mutex
		created  = make([]*model.Lead, len(candidates))
		skipped  int
		failures int
	)

	g := errgroup.Group{}
	g.SetLimit(s.opts.PersistConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			lead, status := s.persistOne(ctx, run, candidate, op)
			mu.Lock()
			defer mu.Unlock()
			switch status {
			case persistCreated:
				created[i] = lead
			case persistSkipped:
				skipped++
			case persistFailed:
				failures++
			}
			return nil
		})
	}
	_ = g.Wait() // workers report through the counters, never an error

	result := &PersistResult{SkippedCount: skipped + failures}
	for _, lead := range created {
		if lead != nil {
			result.Created = append(result.Created, *lead)
		}
	}
	result.AcceptedCount = len(result.Created)

	if failures > 0 && failures == len(candidates) {
		return nil, eris.Errorf("leadgen: all %d lead writes failed for generation %s", failures, generationID)
	}

	if result.AcceptedCount > 0 {
		if err := s.store.AddAcceptedCount(ctx, run.ID, result.AcceptedCount); err != nil {
			zap.L().Warn("leadgen: ledger accepted-count update failed",
				zap.String("generation_id", run.ID),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("persist accepted complete",
		zap.String("generation_id", run.ID),
		zap.String("operator_id", op.ID),
		zap.Int("accepted", result.AcceptedCount),
		zap.Int("skipped", result.SkippedCount),
	)

	return result, nil
}

type persistStatus int

const (
	persistCreated persistStatus = iota
	persistSkipped
	persistFailed
)

// persistOne re-checks for a collision and inserts a single lead. The
// unique indexes make a raced insert surface as ErrDuplicateLead, which is
// counted as skipped, not failed.
func (s *Service) persistOne(ctx context.Context, run *model.GenerationRun, candidate model.CandidateLead, op *model.Operator) (*model.Lead, persistStatus) {
	exists, err := s.store.LeadExists(ctx, candidate.CompanyName, candidate.ContactEmail)
	if err != nil {
		zap.L().Error("leadgen: collision check failed",
			zap.String("company", candidate.CompanyName),
			zap.Error(err),
		)
		return nil, persistFailed
	}
	if exists {
		zap.L().Info("leadgen: skipping duplicate candidate",
			zap.String("company", candidate.CompanyName),
		)
		return nil, persistSkipped
	}

	lead, err := s.store.CreateLead(ctx, buildLead(run, candidate, op))
	if errors.Is(err, store.ErrDuplicateLead) {
		// Lost a race with a concurrent accept since the check above.
		zap.L().Info("leadgen: duplicate detected at write time",
			zap.String("company", candidate.CompanyName),
		)
		return nil, persistSkipped
	}
	if err != nil {
		zap.L().Error("leadgen: lead write failed",
			zap.String("company", candidate.CompanyName),
			zap.Error(err),
		)
		return nil, persistFailed
	}
	return lead, persistCreated
}

// buildLead converts an accepted candidate into a durable lead with full
// provenance. New leads are left unassigned so they surface in the
// unassigned triage queue.
func buildLead(run *model.GenerationRun, c model.CandidateLead, op *model.Operator) model.Lead {
	return model.Lead{
		CompanyName:      c.CompanyName,
		Sector:           c.Sector,
		Location:         c.Location,
		EmployeeCount:    c.EmployeeCount,
		EstimatedRevenue: c.EstimatedRevenue,
		ContactName:      c.ContactName,
		ContactEmail:     c.ContactEmail,
		ContactPhone:     c.ContactPhone,
		SuitabilityScore: c.SuitabilityScore,
		Priority:         c.Priority,
		Website:          c.Website,
		LinkedInURL:      c.LinkedInURL,
		Description:      c.Description,
		Status:           model.LeadStatusNew,
		Source:           model.LeadSourceAIGenerated,
		GenerationMethod: run.Source,
		AssignedTo:       nil,
		Provenance: model.LeadProvenance{
			GenerationID: run.ID,
			Model:        run.Model,
			Reasoning:    c.Reasoning,
			GeneratedAt:  run.CreatedAt,
		},
		Tags:  []string{"ai-generated", strings.ToLower(run.Criteria.Sector)},
		Notes: "Accepted by " + op.Name,
	}
}
