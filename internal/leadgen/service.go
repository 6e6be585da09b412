// Package leadgen orchestrates the AI-assisted lead generation pipeline:
// authorization, corpus sampling, provider attempt, synthetic fallback,
// deduplication, persistence of accepted candidates, and the run ledger.
package leadgen

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vilaweb/leadgen-cli/internal/dedup"
	"github.com/vilaweb/leadgen-cli/internal/genai"
	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

// ErrPermissionDenied is returned when the requesting operator is missing,
// inactive, or not in the generation role allow-list. It always fires before
// any provider quota is spent.
var ErrPermissionDenied = eris.New("leadgen: permission denied")

// Provider is the generation backend the service attempts first. The
// Adapter in internal/genai is the production implementation.
type Provider interface {
	Attempt(ctx context.Context, criteria model.GenerationCriteria, modelID string, excludeNames []string) ([]model.CandidateLead, model.FailureReason)
}

// Options tunes the pipeline.
type Options struct {
	DefaultModel       string
	DefaultLocation    string
	CorpusSampleCap    int // persisted names sampled for dedup (default 500)
	PromptExclusionCap int // subset of the sample quoted to the provider (default 50)
	PersistConcurrency int // parallel lead writes per accept batch (default 4)
}

func (o Options) withDefaults() Options {
	if o.CorpusSampleCap <= 0 {
		o.CorpusSampleCap = 500
	}
	if o.PromptExclusionCap <= 0 {
		o.PromptExclusionCap = 50
	}
	if o.PersistConcurrency <= 0 {
		o.PersistConcurrency = 4
	}
	if o.DefaultLocation == "" {
		o.DefaultLocation = "Barcelona"
	}
	return o
}

// Service is the outbound API of the lead-generation core.
type Service struct {
	store    store.Store
	provider Provider
	fallback *genai.Fallback
	opts     Options
}

// NewService wires the pipeline together.
func NewService(st store.Store, provider Provider, fallback *genai.Fallback, opts Options) *Service {
	return &Service{
		store:    st,
		provider: provider,
		fallback: fallback,
		opts:     opts.withDefaults(),
	}
}

// GenerationResult is what the operator reviews after one pipeline run.
type GenerationResult struct {
	GenerationID      string                `json:"generation_id"`
	Candidates        []model.CandidateLead `json:"candidates"`
	Source            string                `json:"source"`
	Warning           string                `json:"warning,omitempty"`
	Model             string                `json:"model"`
	DuplicatesRemoved int                   `json:"duplicates_removed"`
	DroppedCompanies  []string              `json:"dropped_companies,omitempty"`
}

// Generate runs the full pipeline for one brief. The provider is attempted
// once; any classified failure switches to the synthetic fallback, which is
// surfaced only as a warning, never as an error. The only error paths are
// pre-provider (validation, authorization) and ledger writes.
func (s *Service) Generate(ctx context.Context, criteria model.GenerationCriteria, modelID, operatorID string) (*GenerationResult, error) {
	if err := criteria.Validate(s.opts.DefaultLocation); err != nil {
		return nil, err
	}
	if modelID == "" {
		modelID = s.opts.DefaultModel
	}

	op, err := s.authorize(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	excludeExisting := criteria.Filters == nil || criteria.Filters.ExcludeExisting

	var corpus map[string]bool
	var promptExclusions []string
	if excludeExisting {
		names, err := s.store.ListLeadCompanyNames(ctx, s.opts.CorpusSampleCap)
		if err != nil {
			// The sample is advisory; persistence re-checks authoritatively.
			zap.L().Warn("leadgen: corpus sample read failed", zap.Error(err))
		}
		corpus = dedup.NormalizeSet(names)
		promptExclusions = names
		if len(promptExclusions) > s.opts.PromptExclusionCap {
			promptExclusions = promptExclusions[:s.opts.PromptExclusionCap]
		}
	}

	candidates, reason := s.provider.Attempt(ctx, criteria, modelID, promptExclusions)

	warning := ""
	status := model.RunStatusCompleted
	if reason != model.FailureNone {
		candidates, warning = s.fallback.Generate(criteria, reason)
		status = model.RunStatusFallback
	}

	dd := dedup.Dedupe(candidates, corpus)

	run, err := s.store.CreateRun(ctx, model.GenerationRun{
		OperatorID:     op.ID,
		Criteria:       criteria,
		Model:          modelID,
		Source:         reason.SourceTag(),
		Status:         status,
		GeneratedCount: len(dd.Kept),
	})
	if err != nil {
		return nil, eris.Wrap(err, "leadgen: record generation run")
	}

	zap.L().Info("generation complete",
		zap.String("generation_id", run.ID),
		zap.String("operator_id", op.ID),
		zap.String("source", run.Source),
		zap.Int("candidates", len(dd.Kept)),
		zap.Int("duplicates_removed", dd.DroppedCount()),
	)

	return &GenerationResult{
		GenerationID:      run.ID,
		Candidates:        dd.Kept,
		Source:            run.Source,
		Warning:           warning,
		Model:             modelID,
		DuplicatesRemoved: dd.DroppedCount(),
		DroppedCompanies:  dd.Dropped,
	}, nil
}

// Repeat re-runs a past generation with its exact criteria snapshot and
// model, attributed to the requesting operator.
func (s *Service) Repeat(ctx context.Context, generationID, operatorID string) (*GenerationResult, error) {
	run, err := s.store.GetRun(ctx, generationID)
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: repeat %s", generationID)
	}
	return s.Generate(ctx, run.Criteria, run.Model, operatorID)
}
