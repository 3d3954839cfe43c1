package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"hireline/internal/domain"
	"hireline/internal/events"
	"hireline/internal/guard"
	"hireline/internal/repo"
)

// SubmitOptions are parameters for creating an application.
type SubmitOptions struct {
	ID          string
	JobID       string
	CandidateID string
	CoverLetter string
	ResumeURL   string
	ActorID     string
}

// SubmitApplication creates a pending application against a job.
func (e Engine) SubmitApplication(ctx context.Context, opts SubmitOptions) (domain.Application, error) {
	if opts.JobID == "" {
		return domain.Application{}, errors.New("job is required")
	}
	if opts.CandidateID == "" {
		return domain.Application{}, errors.New("candidate is required")
	}
	job, err := e.Repo.GetJob(ctx, opts.JobID)
	if err != nil {
		return domain.Application{}, err
	}
	cand, err := e.Repo.GetCandidate(ctx, opts.CandidateID)
	if err != nil {
		return domain.Application{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.JobID+"|"+opts.CandidateID+"|"+now)).String()
	}
	a := domain.Application{
		ID:            id,
		JobID:         job.ID,
		CompanyID:     job.CompanyID,
		CandidateID:   cand.ID,
		Status:        domain.ApplicationPending,
		SubmittedAt:   now,
		UpdatedAt:     now,
		CandidateName: cand.Name,
		JobTitle:      job.Title,
		CoverLetter:   optionalString(opts.CoverLetter),
		ResumeURL:     optionalString(opts.ResumeURL),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertApplication(ctx, tx, a); err != nil {
		return domain.Application{}, err
	}
	if err := e.Events.Append(ctx, tx, "application.submitted", a.CompanyID, "application", a.ID, opts.ActorID, events.EventPayload{
		"job_id": a.JobID, "status": a.Status,
	}); err != nil {
		return domain.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, err
	}
	return a, nil
}

// SetApplicationStatus moves an application through the funnel. Legality is
// delegated entirely to the guard; which transitions the guard accepts
// depends on the configured funnel mode.
func (e Engine) SetApplicationStatus(ctx context.Context, id string, status domain.ApplicationStatus, actorID string) (domain.Application, error) {
	a, err := e.Repo.GetApplication(ctx, id)
	if err != nil {
		return a, err
	}
	if d := guard.CanSetApplicationStatus(a.Status, status, e.funnelMode()); d != nil {
		return a, d
	}
	from := a.Status
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()
	updated := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateApplicationStatus(ctx, tx, id, status, updated); err != nil {
		return a, err
	}
	if err := e.Events.Append(ctx, tx, "application.status.changed", a.CompanyID, "application", a.ID, actorID, events.EventPayload{
		"from_status": from, "to_status": status,
	}); err != nil {
		return a, err
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	a.Status = status
	a.UpdatedAt = updated
	return a, nil
}

// ViewAndPromote fetches the extended detail projection and, when the
// application is still pending, promotes it to viewed in the same operation.
// The promotion is the read-triggers-write the company review screen relies
// on, made an explicit named operation so it can be asserted on directly.
func (e Engine) ViewAndPromote(ctx context.Context, id, actorID string) (domain.Application, error) {
	a, err := e.Repo.GetApplicationDetail(ctx, id)
	if err != nil {
		return a, err
	}
	if a.Status != domain.ApplicationPending {
		return a, nil
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()
	updated := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateApplicationStatus(ctx, tx, id, domain.ApplicationViewed, updated); err != nil {
		return a, err
	}
	if err := e.Events.Append(ctx, tx, "application.viewed", a.CompanyID, "application", a.ID, actorID, events.EventPayload{
		"from_status": domain.ApplicationPending, "to_status": domain.ApplicationViewed,
	}); err != nil {
		return a, err
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	a.Status = domain.ApplicationViewed
	a.UpdatedAt = updated
	return a, nil
}

// ApplicationPage is one page of the list projection.
type ApplicationPage struct {
	Items      []domain.Application
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ListApplications runs the filter/sort/search/paginate query. Defaults:
// submission date descending, first page, configured page size.
func (e Engine) ListApplications(ctx context.Context, f repo.ApplicationFilters) (ApplicationPage, error) {
	if f.PageSize <= 0 && e.Config != nil {
		f.PageSize = e.Config.Listing.PageSize
	}
	if f.PageSize <= 0 {
		f.PageSize = 10
	}
	if e.Config != nil && e.Config.Listing.MaxPageSize > 0 && f.PageSize > e.Config.Listing.MaxPageSize {
		f.PageSize = e.Config.Listing.MaxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Status != "" && !f.Status.Valid() {
		return ApplicationPage{}, &guard.FieldError{Field: "status", Message: "unknown application status"}
	}
	items, total, err := e.Repo.ListApplications(ctx, f)
	if err != nil {
		return ApplicationPage{}, err
	}
	pages := total / f.PageSize
	if total%f.PageSize != 0 {
		pages++
	}
	return ApplicationPage{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: pages,
	}, nil
}
