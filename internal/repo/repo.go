package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hireline/internal/config"
	"hireline/internal/domain"
)

// Repo is the authoritative store. Cached client views are never ground
// truth; every persisted field value is owned here.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertCompany(ctx context.Context, c domain.Company) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO companies(id,name,created_at) VALUES (?,?,?)`,
		c.ID, c.Name, c.CreatedAt)
	return err
}

func (r Repo) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	var c domain.Company
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM companies WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) InsertCandidate(ctx context.Context, c domain.Candidate) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO candidates(id,name,email,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, nullable(c.Email), c.CreatedAt)
	return err
}

func (r Repo) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	var c domain.Candidate
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,email,created_at FROM candidates WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &email, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if email.Valid {
		c.Email = email.String
	}
	return c, err
}

func (r Repo) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,email,created_at FROM candidates ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var email sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &c.CreatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			c.Email = email.String
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) InsertJob(ctx context.Context, j domain.Job) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO jobs(id,company_id,title,created_at) VALUES (?,?,?,?)`,
		j.ID, j.CompanyID, j.Title, j.CreatedAt)
	return err
}

func (r Repo) GetJob(ctx context.Context, id string) (domain.Job, error) {
	var j domain.Job
	err := r.DB.QueryRowContext(ctx, `SELECT id,company_id,title,created_at FROM jobs WHERE id=?`, id).
		Scan(&j.ID, &j.CompanyID, &j.Title, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return j, ErrNotFound
	}
	return j, err
}

func (r Repo) ListJobs(ctx context.Context, companyID string) ([]domain.Job, error) {
	query := `SELECT id,company_id,title,created_at FROM jobs`
	args := []any{}
	if companyID != "" {
		query += ` WHERE company_id=?`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.CompanyID, &j.Title, &j.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r Repo) UpsertCompanyConfig(ctx context.Context, companyID string, cfg *config.Config) error {
	return upsertCompanyConfig(ctx, r.DB, nil, companyID, cfg)
}

func (r Repo) UpsertCompanyConfigTx(ctx context.Context, tx *sql.Tx, companyID string, cfg *config.Config) error {
	return upsertCompanyConfig(ctx, nil, tx, companyID, cfg)
}

func upsertCompanyConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, companyID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Company.ID = companyID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO company_configs(company_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(company_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, companyID, string(payload), now, now)
	return err
}

func (r Repo) GetCompanyConfig(ctx context.Context, companyID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM company_configs WHERE company_id=?`, companyID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Company.ID == "" {
		cfg.Company.ID = companyID
	}
	return &cfg, cfg.Validate()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
