package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrDuplicateLead is returned by CreateLead when the normalized company
// name or the contact email collides with an existing lead. The unique
// indexes in each backend make this check race-safe: a concurrent insert
// that loses the race surfaces as ErrDuplicateLead, never as a second row.
var ErrDuplicateLead = eris.New("store: duplicate lead")

// RunFilter specifies criteria for listing generation runs.
type RunFilter struct {
	OperatorID string `json:"operator_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status     model.LeadStatus `json:"status,omitempty"`
	Unassigned bool             `json:"unassigned,omitempty"`
	Limit      int              `json:"limit,omitempty"`
}

// Store defines the persistence interface for the lead-generation pipeline.
type Store interface {
	// Operators
	GetOperator(ctx context.Context, id string) (*model.Operator, error)
	CreateOperator(ctx context.Context, op model.Operator) error

	// Leads
	ListLeadCompanyNames(ctx context.Context, limit int) ([]string, error)
	LeadExists(ctx context.Context, companyName, email string) (bool, error)
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Generation run ledger
	CreateRun(ctx context.Context, run model.GenerationRun) (*model.GenerationRun, error)
	GetRun(ctx context.Context, runID string) (*model.GenerationRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.GenerationRun, error)
	AddAcceptedCount(ctx context.Context, runID string, delta int) error
	WeeklyPerformance(ctx context.Context, weeks int) ([]model.WeeklyBucket, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
