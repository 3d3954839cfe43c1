package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hireline/internal/domain"
)

// ApplicationFilters shapes the list query. Keyword matches candidate name
// and job title case-insensitively as substrings.
type ApplicationFilters struct {
	CompanyID   string
	CandidateID string
	Status      domain.ApplicationStatus
	Keyword     string
	SortBy      string // submitted_at | status | candidate_name | job_title
	SortOrder   string // asc | desc
	Page        int
	PageSize    int
}

var applicationSortColumns = map[string]string{
	"submitted_at":   "a.submitted_at",
	"status":         "a.status",
	"candidate_name": "c.name",
	"job_title":      "j.title",
}

const applicationListSelect = `SELECT a.id,a.job_id,a.company_id,a.candidate_id,a.status,a.submitted_at,a.updated_at,c.name,j.title
FROM applications a
JOIN candidates c ON c.id=a.candidate_id
JOIN jobs j ON j.id=a.job_id`

func applicationListWhere(f ApplicationFilters) (string, []any) {
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "a.company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.CandidateID != "" {
		clauses = append(clauses, "a.candidate_id=?")
		args = append(args, f.CandidateID)
	}
	if f.Status != "" {
		clauses = append(clauses, "a.status=?")
		args = append(args, string(f.Status))
	}
	if f.Keyword != "" {
		kw := "%" + strings.ToLower(f.Keyword) + "%"
		clauses = append(clauses, "(LOWER(c.name) LIKE ? OR LOWER(j.title) LIKE ?)")
		args = append(args, kw, kw)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListApplications returns one page of the list projection plus the total
// row count across all pages.
func (r Repo) ListApplications(ctx context.Context, f ApplicationFilters) ([]domain.Application, int, error) {
	where, args := applicationListWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM applications a
JOIN candidates c ON c.id=a.candidate_id
JOIN jobs j ON j.id=a.job_id` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := applicationSortColumns[f.SortBy]
	if !ok {
		col = "a.submitted_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	query := fmt.Sprintf("%s%s ORDER BY %s %s, a.id %s", applicationListSelect, where, col, dir, dir)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var res []domain.Application
	for rows.Next() {
		var a domain.Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.CompanyID, &a.CandidateID, &a.Status,
			&a.SubmittedAt, &a.UpdatedAt, &a.CandidateName, &a.JobTitle); err != nil {
			return nil, 0, err
		}
		res = append(res, a)
	}
	return res, total, rows.Err()
}

// GetApplication fetches the list projection of a single application.
func (r Repo) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	row := r.DB.QueryRowContext(ctx, applicationListSelect+` WHERE a.id=?`, id)
	var a domain.Application
	err := row.Scan(&a.ID, &a.JobID, &a.CompanyID, &a.CandidateID, &a.Status,
		&a.SubmittedAt, &a.UpdatedAt, &a.CandidateName, &a.JobTitle)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// GetApplicationDetail fetches the extended projection (cover letter, resume
// URL, candidate email) absent from the list projection.
func (r Repo) GetApplicationDetail(ctx context.Context, id string) (domain.Application, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT a.id,a.job_id,a.company_id,a.candidate_id,a.status,a.submitted_at,a.updated_at,
c.name,COALESCE(c.email,''),j.title,a.cover_letter,a.resume_url
FROM applications a
JOIN candidates c ON c.id=a.candidate_id
JOIN jobs j ON j.id=a.job_id
WHERE a.id=?`, id)
	var a domain.Application
	var cover, resume sql.NullString
	err := row.Scan(&a.ID, &a.JobID, &a.CompanyID, &a.CandidateID, &a.Status,
		&a.SubmittedAt, &a.UpdatedAt, &a.CandidateName, &a.CandidateEmail, &a.JobTitle, &cover, &resume)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if cover.Valid {
		a.CoverLetter = &cover.String
	}
	if resume.Valid {
		a.ResumeURL = &resume.String
	}
	return a, err
}

func (r Repo) InsertApplication(ctx context.Context, tx *sql.Tx, a domain.Application) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO applications(id,job_id,company_id,candidate_id,status,submitted_at,updated_at,cover_letter,resume_url)
VALUES (?,?,?,?,?,?,?,?,?)`,
		a.ID, a.JobID, a.CompanyID, a.CandidateID, string(a.Status), a.SubmittedAt, a.UpdatedAt, a.CoverLetter, a.ResumeURL)
	return err
}

// UpdateApplicationStatus writes the status; submitted_at stays immutable.
func (r Repo) UpdateApplicationStatus(ctx context.Context, tx *sql.Tx, id string, status domain.ApplicationStatus, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE applications SET status=?, updated_at=? WHERE id=?`,
		string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
