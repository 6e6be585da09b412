package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetOperator(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, email, role, active FROM operators WHERE id = \$1`).
		WithArgs("op-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "active"}).
			AddRow("op-1", "Marta", "marta@vilaweb.cat", "COMMERCIAL", true))

	op, err := s.GetOperator(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCommercial, op.Role)
	assert.True(t, op.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetOperator_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, email, role, active FROM operators WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetOperator(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LeadExists_NormalizesName(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tech solutions bcn", "info@techsolutions.cat").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.LeadExists(context.Background(), "  Tech  Solutions BCN ", "info@techsolutions.cat")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), "Nova Dades SL", "nova dades sl", "TECHNOLOGY", "Barcelona",
			25, 2000000.0, "Anna", "anna@novadades.cat", "+34 930 000 000",
			88, "HIGH", "", "", "",
			"NEW", "AI_GENERATED", "live", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "Accepted by Marta",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	lead, err := s.CreateLead(context.Background(), model.Lead{
		CompanyName:      "Nova Dades SL",
		Sector:           "TECHNOLOGY",
		Location:         "Barcelona",
		EmployeeCount:    25,
		EstimatedRevenue: 2000000,
		ContactName:      "Anna",
		ContactEmail:     "anna@novadades.cat",
		ContactPhone:     "+34 930 000 000",
		SuitabilityScore: 88,
		Priority:         model.PriorityHigh,
		Status:           model.LeadStatusNew,
		Source:           model.LeadSourceAIGenerated,
		GenerationMethod: "live",
		Notes:            "Accepted by Marta",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateLead_DuplicateKey(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	args := make([]any, 24)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(args...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_leads_company_name_norm"})

	_, err := s.CreateLead(context.Background(), model.Lead{
		CompanyName: "Nova Dades SL",
		Sector:      "TECHNOLOGY",
		Location:    "Barcelona",
	})
	assert.ErrorIs(t, err, ErrDuplicateLead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun_And_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	criteria := model.GenerationCriteria{Sector: "FINANCE", Location: "Girona", Quantity: 3}
	criteriaJSON, err := json.Marshal(criteria)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO generation_runs`).
		WithArgs(pgxmock.AnyArg(), "op-1", pgxmock.AnyArg(), "claude-sonnet-4-5-20250929", "live", "completed",
			3, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.GenerationRun{
		OperatorID:     "op-1",
		Criteria:       criteria,
		Model:          "claude-sonnet-4-5-20250929",
		Source:         "live",
		Status:         model.RunStatusCompleted,
		GeneratedCount: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	mock.ExpectQuery(`FROM generation_runs WHERE id = \$1`).
		WithArgs(run.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "operator_id", "criteria", "model", "source", "status",
			"generated_count", "accepted_count", "created_at",
		}).AddRow(run.ID, "op-1", criteriaJSON, run.Model, "live", "completed", 3, 0, run.CreatedAt))

	got, err := s.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, criteria, got.Criteria)
	assert.Equal(t, "live", got.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM generation_runs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddAcceptedCount(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE generation_runs SET accepted_count`).
		WithArgs(2, "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.AddAcceptedCount(context.Background(), "run-1", 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddAcceptedCount_MissingRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE generation_runs SET accepted_count`).
		WithArgs(1, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, s.AddAcceptedCount(context.Background(), "missing", 1), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeadCompanyNames(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT company_name FROM leads`).
		WithArgs(500).
		WillReturnRows(pgxmock.NewRows([]string{"company_name"}).
			AddRow("Acme SL").AddRow("Nova Dades SL"))

	names, err := s.ListLeadCompanyNames(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme SL", "Nova Dades SL"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WeeklyPerformance(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	week2 := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	week1 := week2.AddDate(0, 0, -7)

	mock.ExpectQuery(`date_trunc\('week', created_at\)`).
		WithArgs(12).
		WillReturnRows(pgxmock.NewRows([]string{"week_start", "generated", "accepted"}).
			AddRow(week2, 30, 12).
			AddRow(week1, 10, 4))

	buckets, err := s.WeeklyPerformance(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, week2, buckets[0].WeekStart)
	assert.Equal(t, 30, buckets[0].GeneratedCount)
	assert.Equal(t, 4, buckets[1].AcceptedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS operators`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateOperator_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO operators`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection lost"))

	err := s.CreateOperator(context.Background(), model.Operator{ID: "op-1", Name: "Marta"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create operator")
	assert.NoError(t, mock.ExpectationsWereMet())
}
