package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vilaweb/leadgen-cli/internal/db"
	"github.com/vilaweb/leadgen-cli/internal/dedup"
	"github.com/vilaweb/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot paths of the generation pipeline.
var preparedStatements = map[string]string{
	"get_operator":       `SELECT id, name, email, role, active FROM operators WHERE id = $1`,
	"lead_exists":        `SELECT EXISTS (SELECT 1 FROM leads WHERE company_name_norm = $1 OR ($2 <> '' AND contact_email = $2))`,
	"list_lead_names":    `SELECT company_name FROM leads ORDER BY created_at DESC LIMIT $1`,
	"get_run":            `SELECT id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at FROM generation_runs WHERE id = $1`,
	"add_accepted_count": `UPDATE generation_runs SET accepted_count = accepted_count + $1 WHERE id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS operators (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	company_name      TEXT NOT NULL,
	company_name_norm TEXT NOT NULL,
	sector            TEXT NOT NULL,
	location          TEXT NOT NULL,
	employee_count    INTEGER NOT NULL DEFAULT 0,
	estimated_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
	contact_name      TEXT NOT NULL DEFAULT '',
	contact_email     TEXT NOT NULL DEFAULT '',
	contact_phone     TEXT NOT NULL DEFAULT '',
	suitability_score INTEGER NOT NULL DEFAULT 0,
	priority          TEXT NOT NULL,
	website           TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'NEW',
	source            TEXT NOT NULL,
	generation_method TEXT NOT NULL DEFAULT '',
	assigned_to       TEXT REFERENCES operators(id),
	provenance        JSONB NOT NULL,
	tags              JSONB,
	notes             TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_company_name_norm ON leads(company_name_norm);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_contact_email ON leads(contact_email) WHERE contact_email <> '';
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);

CREATE TABLE IF NOT EXISTS generation_runs (
	id              TEXT PRIMARY KEY,
	operator_id     TEXT NOT NULL,
	criteria        JSONB NOT NULL,
	model           TEXT NOT NULL,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL,
	generated_count INTEGER NOT NULL DEFAULT 0,
	accepted_count  INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_generation_runs_operator ON generation_runs(operator_id);
CREATE INDEX IF NOT EXISTS idx_generation_runs_created_at ON generation_runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetOperator(ctx context.Context, id string) (*model.Operator, error) {
	var op model.Operator
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, active FROM operators WHERE id = $1`,
		id,
	).Scan(&op.ID, &op.Name, &op.Email, &op.Role, &op.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get operator %s", id)
	}
	return &op, nil
}

func (s *PostgresStore) CreateOperator(ctx context.Context, op model.Operator) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO operators (id, name, email, role, active) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = $2, email = $3, role = $4, active = $5`,
		op.ID, op.Name, op.Email, string(op.Role), op.Active,
	)
	return eris.Wrapf(err, "postgres: create operator %s", op.ID)
}

func (s *PostgresStore) ListLeadCompanyNames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT company_name FROM leads ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lead names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "postgres: list lead names iterate")
}

func (s *PostgresStore) LeadExists(ctx context.Context, companyName, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE company_name_norm = $1 OR ($2 <> '' AND contact_email = $2))`,
		dedup.Normalize(companyName), email,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: lead exists")
	}
	return exists, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	provenanceJSON, err := json.Marshal(lead.Provenance)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal provenance")
	}
	tagsJSON, err := json.Marshal(lead.Tags)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal tags")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (
			id, company_name, company_name_norm, sector, location,
			employee_count, estimated_revenue, contact_name, contact_email, contact_phone,
			suitability_score, priority, website, linkedin_url, description,
			status, source, generation_method, assigned_to, provenance, tags, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)`,
		lead.ID, lead.CompanyName, dedup.Normalize(lead.CompanyName), lead.Sector, lead.Location,
		lead.EmployeeCount, lead.EstimatedRevenue, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.SuitabilityScore, string(lead.Priority), lead.Website, lead.LinkedInURL, lead.Description,
		string(lead.Status), string(lead.Source), lead.GenerationMethod, lead.AssignedTo, provenanceJSON, tagsJSON, lead.Notes,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateLead
		}
		return nil, eris.Wrapf(err, "postgres: insert lead %s", lead.CompanyName)
	}

	return &lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, company_name, sector, location, employee_count, estimated_revenue,
		contact_name, contact_email, contact_phone, suitability_score, priority,
		website, linkedin_url, description, status, source, generation_method,
		assigned_to, provenance, tags, notes, created_at, updated_at
		FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Unassigned {
		query += ` AND assigned_to IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var provenanceJSON, tagsJSON []byte
		if err := rows.Scan(
			&l.ID, &l.CompanyName, &l.Sector, &l.Location, &l.EmployeeCount, &l.EstimatedRevenue,
			&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.SuitabilityScore, &l.Priority,
			&l.Website, &l.LinkedInURL, &l.Description, &l.Status, &l.Source, &l.GenerationMethod,
			&l.AssignedTo, &provenanceJSON, &tagsJSON, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		if err := json.Unmarshal(provenanceJSON, &l.Provenance); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal provenance")
		}
		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &l.Tags); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal tags")
			}
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.GenerationRun) (*model.GenerationRun, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.CreatedAt = time.Now().UTC()

	criteriaJSON, err := json.Marshal(run.Criteria)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal criteria")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generation_runs (id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.OperatorID, criteriaJSON, run.Model, run.Source, string(run.Status),
		run.GeneratedCount, run.AcceptedCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &run, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.GenerationRun, error) {
	var r model.GenerationRun
	var criteriaJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at
		 FROM generation_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.OperatorID, &criteriaJSON, &r.Model, &r.Source, &r.Status,
		&r.GeneratedCount, &r.AcceptedCount, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if err := json.Unmarshal(criteriaJSON, &r.Criteria); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal criteria")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.GenerationRun, error) {
	query := `SELECT id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at
		FROM generation_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.OperatorID != "" {
		query += fmt.Sprintf(` AND operator_id = $%d`, argIdx)
		args = append(args, filter.OperatorID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.GenerationRun
	for rows.Next() {
		var r model.GenerationRun
		var criteriaJSON []byte
		if err := rows.Scan(&r.ID, &r.OperatorID, &criteriaJSON, &r.Model, &r.Source, &r.Status,
			&r.GeneratedCount, &r.AcceptedCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(criteriaJSON, &r.Criteria); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal criteria")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) AddAcceptedCount(ctx context.Context, runID string, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE generation_runs SET accepted_count = accepted_count + $1 WHERE id = $2`,
		delta, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: add accepted count %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) WeeklyPerformance(ctx context.Context, weeks int) ([]model.WeeklyBucket, error) {
	if weeks <= 0 {
		weeks = 12
	}
	rows, err := s.pool.Query(ctx,
		`SELECT date_trunc('week', created_at) AS week_start,
			COALESCE(SUM(generated_count), 0),
			COALESCE(SUM(accepted_count), 0)
		 FROM generation_runs
		 GROUP BY week_start
		 ORDER BY week_start DESC
		 LIMIT $1`,
		weeks,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: weekly performance")
	}
	defer rows.Close()

	var buckets []model.WeeklyBucket
	for rows.Next() {
		var b model.WeeklyBucket
		if err := rows.Scan(&b.WeekStart, &b.GeneratedCount, &b.AcceptedCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan weekly bucket")
		}
		buckets = append(buckets, b)
	}
	return buckets, eris.Wrap(rows.Err(), "postgres: weekly performance iterate")
}
