package repo

import (
	"context"
	"database/sql"
	"strings"

	"hireline/internal/domain"
)

const interviewSelect = `SELECT id,application_id,job_id,company_id,candidate_id,scheduled_date,start_time,end_time,
location,meeting_link,meeting_address,interview_type,status,user_confirmed,notes,created_at,updated_at FROM interviews`

func scanInterview(scan func(dest ...any) error) (domain.Interview, error) {
	var iv domain.Interview
	var link, addr, notes sql.NullString
	var confirmed int
	err := scan(&iv.ID, &iv.ApplicationID, &iv.JobID, &iv.CompanyID, &iv.CandidateID,
		&iv.ScheduledDate, &iv.StartTime, &iv.EndTime, &iv.Location, &link, &addr,
		&iv.InterviewType, &iv.Status, &confirmed, &notes, &iv.CreatedAt, &iv.UpdatedAt)
	if err == sql.ErrNoRows {
		return iv, ErrNotFound
	}
	if err != nil {
		return iv, err
	}
	iv.UserConfirmed = confirmed != 0
	if link.Valid {
		iv.MeetingLink = &link.String
	}
	if addr.Valid {
		iv.MeetingAddr = &addr.String
	}
	if notes.Valid {
		iv.Notes = &notes.String
	}
	return iv, nil
}

func (r Repo) GetInterview(ctx context.Context, id string) (domain.Interview, error) {
	row := r.DB.QueryRowContext(ctx, interviewSelect+` WHERE id=?`, id)
	return scanInterview(row.Scan)
}

func (r Repo) InsertInterview(ctx context.Context, tx *sql.Tx, iv domain.Interview) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO interviews(id,application_id,job_id,company_id,candidate_id,
scheduled_date,start_time,end_time,location,meeting_link,meeting_address,interview_type,status,user_confirmed,notes,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		iv.ID, iv.ApplicationID, iv.JobID, iv.CompanyID, iv.CandidateID,
		iv.ScheduledDate, iv.StartTime, iv.EndTime, string(iv.Location), iv.MeetingLink, iv.MeetingAddr,
		string(iv.InterviewType), string(iv.Status), boolInt(iv.UserConfirmed), iv.Notes, iv.CreatedAt, iv.UpdatedAt)
	return err
}

// UpdateInterview overwrites every mutable field. Identity and references
// never change after creation.
func (r Repo) UpdateInterview(ctx context.Context, tx *sql.Tx, iv domain.Interview) error {
	res, err := tx.ExecContext(ctx, `UPDATE interviews SET scheduled_date=?, start_time=?, end_time=?, location=?,
meeting_link=?, meeting_address=?, interview_type=?, status=?, user_confirmed=?, notes=?, updated_at=? WHERE id=?`,
		iv.ScheduledDate, iv.StartTime, iv.EndTime, string(iv.Location),
		iv.MeetingLink, iv.MeetingAddr, string(iv.InterviewType), string(iv.Status),
		boolInt(iv.UserConfirmed), iv.Notes, iv.UpdatedAt, iv.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InterviewFilters shapes the list queries; exactly one of CompanyID and
// CandidateID is set depending on which side is asking.
type InterviewFilters struct {
	CompanyID   string
	CandidateID string
	Status      domain.InterviewStatus
}

func (r Repo) ListInterviews(ctx context.Context, f InterviewFilters) ([]domain.Interview, error) {
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.CandidateID != "" {
		clauses = append(clauses, "candidate_id=?")
		args = append(args, f.CandidateID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(f.Status))
	}
	query := interviewSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY scheduled_date ASC, start_time ASC, id ASC"
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, iv)
	}
	return res, rows.Err()
}

// ListInterviewsForApplication returns interviews backing one application.
func (r Repo) ListInterviewsForApplication(ctx context.Context, applicationID string) ([]domain.Interview, error) {
	rows, err := r.DB.QueryContext(ctx, interviewSelect+` WHERE application_id=? ORDER BY scheduled_date ASC, start_time ASC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, iv)
	}
	return res, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
