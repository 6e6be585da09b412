package leadgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	mu sync.Mutex

	operators      map[string]model.Operator
	leadNames      []string
	leadNamesErr   error
	existingLeads  map[string]bool // normalized name or email → exists
	createLeadErr  error           // forced error for every CreateLead
	createdLeads   []model.Lead
	runs           map[string]model.GenerationRun
	createdRuns    []model.GenerationRun
	acceptedDeltas map[string]int
	acceptedErr    error
	weekly         []model.WeeklyBucket
}

func newMockStore() *mockStore {
	return &mockStore{
		operators:      map[string]model.Operator{},
		existingLeads:  map[string]bool{},
		runs:           map[string]model.GenerationRun{},
		acceptedDeltas: map[string]int{},
	}
}

func (m *mockStore) GetOperator(_ context.Context, id string) (*model.Operator, error) {
	op, ok := m.operators[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &op, nil
}

func (m *mockStore) CreateOperator(_ context.Context, op model.Operator) error {
	m.operators[op.ID] = op
	return nil
}

func (m *mockStore) ListLeadCompanyNames(_ context.Context, limit int) ([]string, error) {
	if m.leadNamesErr != nil {
		return nil, m.leadNamesErr
	}
	if limit > 0 && len(m.leadNames) > limit {
		return m.leadNames[:limit], nil
	}
	return m.leadNames, nil
}

func (m *mockStore) LeadExists(_ context.Context, companyName, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existingLeads[companyName] || (email != "" && m.existingLeads[email]), nil
}

func (m *mockStore) CreateLead(_ context.Context, lead model.Lead) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createLeadErr != nil {
		return nil, m.createLeadErr
	}
	if m.existingLeads[lead.CompanyName] {
		return nil, store.ErrDuplicateLead
	}
	m.existingLeads[lead.CompanyName] = true
	lead.ID = fmt.Sprintf("lead-%d", len(m.createdLeads)+1)
	m.createdLeads = append(m.createdLeads, lead)
	return &lead, nil
}

func (m *mockStore) ListLeads(_ context.Context, _ store.LeadFilter) ([]model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Lead(nil), m.createdLeads...), nil
}

func (m *mockStore) CreateRun(_ context.Context, run model.GenerationRun) (*model.GenerationRun, error) {
	run.ID = fmt.Sprintf("run-%d", len(m.createdRuns)+1)
	m.runs[run.ID] = run
	m.createdRuns = append(m.createdRuns, run)
	return &run, nil
}

func (m *mockStore) GetRun(_ context.Context, runID string) (*model.GenerationRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &run, nil
}

func (m *mockStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.GenerationRun, error) {
	var out []model.GenerationRun
	for _, run := range m.createdRuns {
		if filter.OperatorID == "" || run.OperatorID == filter.OperatorID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (m *mockStore) AddAcceptedCount(_ context.Context, runID string, delta int) error {
	if m.acceptedErr != nil {
		return m.acceptedErr
	}
	m.acceptedDeltas[runID] += delta
	return nil
}

func (m *mockStore) WeeklyPerformance(_ context.Context, _ int) ([]model.WeeklyBucket, error) {
	return m.weekly, nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// mockProvider implements Provider with canned output.
type mockProvider struct {
	candidates []model.CandidateLead
	reason     model.FailureReason
	calls      int
	gotModel   string
	gotExclude []string
}

func (m *mockProvider) Attempt(_ context.Context, _ model.GenerationCriteria, modelID string, excludeNames []string) ([]model.CandidateLead, model.FailureReason) {
	m.calls++
	m.gotModel = modelID
	m.gotExclude = excludeNames
	return m.candidates, m.reason
}
