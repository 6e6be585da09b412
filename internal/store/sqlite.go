package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vilaweb/leadgen-cli/internal/dedup"
	"github.com/vilaweb/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// single-operator development backend; production deployments use Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS operators (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	company_name      TEXT NOT NULL,
	company_name_norm TEXT NOT NULL,
	sector            TEXT NOT NULL,
	location          TEXT NOT NULL,
	employee_count    INTEGER NOT NULL DEFAULT 0,
	estimated_revenue REAL NOT NULL DEFAULT 0,
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
	provenance        TEXT NOT NULL,
	tags              TEXT,
	notes             TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_company_name_norm ON leads(company_name_norm);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_contact_email ON leads(contact_email) WHERE contact_email <> '';
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);

CREATE TABLE IF NOT EXISTS generation_runs (
	id              TEXT PRIMARY KEY,
	operator_id     TEXT NOT NULL,
	criteria        TEXT NOT NULL,
	model           TEXT NOT NULL,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL,
	generated_count INTEGER NOT NULL DEFAULT 0,
	accepted_count  INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generation_runs_operator ON generation_runs(operator_id);
CREATE INDEX IF NOT EXISTS idx_generation_runs_created_at ON generation_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOperator(ctx context.Context, id string) (*model.Operator, error) {
	var op model.Operator
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, active FROM operators WHERE id = ?`,
		id,
	).Scan(&op.ID, &op.Name, &op.Email, &op.Role, &op.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get operator %s", id)
	}
	return &op, nil
}

func (s *SQLiteStore) CreateOperator(ctx context.Context, op model.Operator) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operators (id, name, email, role, active) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email,
		 role = excluded.role, active = excluded.active`,
		op.ID, op.Name, op.Email, string(op.Role), op.Active,
	)
	return eris.Wrapf(err, "sqlite: create operator %s", op.ID)
}

func (s *SQLiteStore) ListLeadCompanyNames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name FROM leads ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lead names")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead name")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "sqlite: list lead names iterate")
}

func (s *SQLiteStore) LeadExists(ctx context.Context, companyName, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE company_name_norm = ? OR (? <> '' AND contact_email = ?))`,
		dedup.Normalize(companyName), email, email,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: lead exists")
	}
	return exists, nil
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	provenanceJSON, err := json.Marshal(lead.Provenance)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal provenance")
	}
	tagsJSON, err := json.Marshal(lead.Tags)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal tags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (
			id, company_name, company_name_norm, sector, location,
			employee_count, estimated_revenue, contact_name, contact_email, contact_phone,
			suitability_score, priority, website, linkedin_url, description,
			status, source, generation_method, assigned_to, provenance, tags, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.CompanyName, dedup.Normalize(lead.CompanyName), lead.Sector, lead.Location,
		lead.EmployeeCount, lead.EstimatedRevenue, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.SuitabilityScore, string(lead.Priority), lead.Website, lead.LinkedInURL, lead.Description,
		string(lead.Status), string(lead.Source), lead.GenerationMethod, lead.AssignedTo,
		string(provenanceJSON), string(tagsJSON), lead.Notes,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateLead
		}
		return nil, eris.Wrapf(err, "sqlite: insert lead %s", lead.CompanyName)
	}

	return &lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, company_name, sector, location, employee_count, estimated_revenue,
		contact_name, contact_email, contact_phone, suitability_score, priority,
		website, linkedin_url, description, status, source, generation_method,
		assigned_to, provenance, tags, notes, created_at, updated_at
		FROM leads WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Unassigned {
		query += ` AND assigned_to IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var provenanceJSON, tagsJSON string
		if err := rows.Scan(
			&l.ID, &l.CompanyName, &l.Sector, &l.Location, &l.EmployeeCount, &l.EstimatedRevenue,
			&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.SuitabilityScore, &l.Priority,
			&l.Website, &l.LinkedInURL, &l.Description, &l.Status, &l.Source, &l.GenerationMethod,
			&l.AssignedTo, &provenanceJSON, &tagsJSON, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		if err := json.Unmarshal([]byte(provenanceJSON), &l.Provenance); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal provenance")
		}
		if tagsJSON != "" && tagsJSON != "null" {
			if err := json.Unmarshal([]byte(tagsJSON), &l.Tags); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal tags")
			}
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.GenerationRun) (*model.GenerationRun, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.CreatedAt = time.Now().UTC()

	criteriaJSON, err := json.Marshal(run.Criteria)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal criteria")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO generation_runs (id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.OperatorID, string(criteriaJSON), run.Model, run.Source, string(run.Status),
		run.GeneratedCount, run.AcceptedCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.GenerationRun, error) {
	var r model.GenerationRun
	var criteriaJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at
		 FROM generation_runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.OperatorID, &criteriaJSON, &r.Model, &r.Source, &r.Status,
		&r.GeneratedCount, &r.AcceptedCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	if err := json.Unmarshal([]byte(criteriaJSON), &r.Criteria); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal criteria")
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.GenerationRun, error) {
	query := `SELECT id, operator_id, criteria, model, source, status, generated_count, accepted_count, created_at
		FROM generation_runs WHERE 1=1`
	args := []any{}

	if filter.OperatorID != "" {
		query += ` AND operator_id = ?`
		args = append(args, filter.OperatorID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.GenerationRun
	for rows.Next() {
		var r model.GenerationRun
		var criteriaJSON string
		if err := rows.Scan(&r.ID, &r.OperatorID, &criteriaJSON, &r.Model, &r.Source, &r.Status,
			&r.GeneratedCount, &r.AcceptedCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(criteriaJSON), &r.Criteria); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal criteria")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) AddAcceptedCount(ctx context.Context, runID string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generation_runs SET accepted_count = accepted_count + ? WHERE id = ?`,
		delta, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: add accepted count %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// WeeklyPerformance buckets runs by ISO week in Go since SQLite's strftime
// week numbering does not match ISO-8601.
func (s *SQLiteStore) WeeklyPerformance(ctx context.Context, weeks int) ([]model.WeeklyBucket, error) {
	if weeks <= 0 {
		weeks = 12
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, generated_count, accepted_count FROM generation_runs`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: weekly performance")
	}
	defer rows.Close()

	byWeek := make(map[time.Time]*model.WeeklyBucket)
	for rows.Next() {
		var createdAt time.Time
		var generated, accepted int
		if err := rows.Scan(&createdAt, &generated, &accepted); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run counts")
		}
		week := model.WeekStart(createdAt)
		b, ok := byWeek[week]
		if !ok {
			b = &model.WeeklyBucket{WeekStart: week}
			byWeek[week] = b
		}
		b.GeneratedCount += generated
		b.AcceptedCount += accepted
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: weekly performance iterate")
	}

	buckets := make([]model.WeeklyBucket, 0, len(byWeek))
	for _, b := range byWeek {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.After(buckets[j].WeekStart)
	})
	if len(buckets) > weeks {
		buckets = buckets[:weeks]
	}
	return buckets, nil
}
