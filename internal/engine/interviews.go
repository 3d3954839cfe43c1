package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"hireline/internal/domain"
	"hireline/internal/events"
	"hireline/internal/guard"
	"hireline/internal/repo"
)

// ScheduleOptions are parameters for creating an interview.
type ScheduleOptions struct {
	ApplicationID string
	ScheduledDate string
	StartTime     string
	EndTime       string
	Location      domain.Location
	MeetingLink   string
	MeetingAddr   string
	InterviewType domain.InterviewType
	Notes         string
	ActorID       string
}

func (o ScheduleOptions) slot() guard.Slot {
	return guard.Slot{
		ScheduledDate: o.ScheduledDate,
		StartTime:     o.StartTime,
		EndTime:       o.EndTime,
		Location:      o.Location,
		MeetingLink:   optionalString(o.MeetingLink),
		MeetingAddr:   optionalString(o.MeetingAddr),
	}
}

// ScheduleInterview creates a scheduled interview against an interviewing
// application. Field validation happens before any write; no entity is
// created on a rejected slot.
func (e Engine) ScheduleInterview(ctx context.Context, opts ScheduleOptions) (domain.Interview, error) {
	if opts.ApplicationID == "" {
		return domain.Interview{}, errors.New("application is required")
	}
	if !opts.InterviewType.Valid() {
		return domain.Interview{}, &guard.FieldError{Field: "interview_type", Message: "must be one of screening, technical, hr, culture, final"}
	}
	if fe := guard.ValidateSlot(opts.slot()); fe != nil {
		return domain.Interview{}, fe
	}
	app, err := e.Repo.GetApplication(ctx, opts.ApplicationID)
	if err != nil {
		return domain.Interview{}, err
	}
	if d := guard.CanSchedule(app); d != nil {
		return domain.Interview{}, d
	}
	now := e.now().UTC().Format(time.RFC3339)
	iv := domain.Interview{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		JobID:         app.JobID,
		CompanyID:     app.CompanyID,
		CandidateID:   app.CandidateID,
		ScheduledDate: opts.ScheduledDate,
		StartTime:     opts.StartTime,
		EndTime:       opts.EndTime,
		Location:      opts.Location,
		MeetingLink:   optionalString(opts.MeetingLink),
		MeetingAddr:   optionalString(opts.MeetingAddr),
		InterviewType: opts.InterviewType,
		Status:        domain.InterviewScheduled,
		UserConfirmed: false,
		Notes:         optionalString(opts.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return iv, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertInterview(ctx, tx, iv); err != nil {
		return iv, err
	}
	if err := e.Events.Append(ctx, tx, "interview.scheduled", iv.CompanyID, "interview", iv.ID, opts.ActorID, events.EventPayload{
		"application_id": iv.ApplicationID,
		"scheduled_date": iv.ScheduledDate,
		"start_time":     iv.StartTime,
		"end_time":       iv.EndTime,
		"location":       iv.Location,
	}); err != nil {
		return iv, err
	}
	if err := tx.Commit(); err != nil {
		return iv, err
	}
	return iv, nil
}

// ConfirmInterview is the candidate-side half of the completion handshake.
func (e Engine) ConfirmInterview(ctx context.Context, id, actorID string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if d := guard.CanConfirm(iv); d != nil {
		return iv, d
	}
	iv.Status = domain.InterviewConfirmed
	iv.UserConfirmed = true
	return e.saveTransition(ctx, iv, "interview.confirmed", actorID, events.EventPayload{
		"user_confirmed": true,
	})
}

// RescheduleInterview overwrites the slot, forces status rescheduled, and
// resets the candidate confirmation so the handshake starts over.
func (e Engine) RescheduleInterview(ctx context.Context, id string, opts ScheduleOptions) (domain.Interview, error) {
	if fe := guard.ValidateSlot(opts.slot()); fe != nil {
		return domain.Interview{}, fe
	}
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if d := guard.CanReschedule(iv); d != nil {
		return iv, d
	}
	prevDate, prevStart, prevEnd := iv.ScheduledDate, iv.StartTime, iv.EndTime
	iv.ScheduledDate = opts.ScheduledDate
	iv.StartTime = opts.StartTime
	iv.EndTime = opts.EndTime
	iv.Location = opts.Location
	iv.MeetingLink = optionalString(opts.MeetingLink)
	iv.MeetingAddr = optionalString(opts.MeetingAddr)
	if opts.Notes != "" {
		iv.Notes = optionalString(opts.Notes)
	}
	iv.Status = domain.InterviewRescheduled
	iv.UserConfirmed = false
	return e.saveTransition(ctx, iv, "interview.rescheduled", opts.ActorID, events.EventPayload{
		"from_date": prevDate, "from_start": prevStart, "from_end": prevEnd,
		"to_date": iv.ScheduledDate, "to_start": iv.StartTime, "to_end": iv.EndTime,
	})
}

// CancelInterview terminalizes the interview; no further action is permitted.
func (e Engine) CancelInterview(ctx context.Context, id, actorID string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if d := guard.CanCancel(iv); d != nil {
		return iv, d
	}
	iv.Status = domain.InterviewCancelled
	return e.saveTransition(ctx, iv, "interview.cancelled", actorID, nil)
}

// CompleteInterview terminalizes a confirmed interview once its end time has
// passed. The application outcome is not resolved automatically; the company
// records hired or rejected through the pipeline afterwards.
func (e Engine) CompleteInterview(ctx context.Context, id, actorID string) (domain.Interview, error) {
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return iv, err
	}
	if d := guard.CanComplete(iv, e.now().In(e.location())); d != nil {
		return iv, d
	}
	iv.Status = domain.InterviewCompleted
	return e.saveTransition(ctx, iv, "interview.completed", actorID, nil)
}

func (e Engine) saveTransition(ctx context.Context, iv domain.Interview, evtType, actorID string, payload events.EventPayload) (domain.Interview, error) {
	iv.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return iv, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateInterview(ctx, tx, iv); err != nil {
		return iv, err
	}
	if payload == nil {
		payload = events.EventPayload{}
	}
	payload["status"] = iv.Status
	if err := e.Events.Append(ctx, tx, evtType, iv.CompanyID, "interview", iv.ID, actorID, payload); err != nil {
		return iv, err
	}
	if err := tx.Commit(); err != nil {
		return iv, err
	}
	return iv, nil
}

// InterviewAgenda partitions interviews into upcoming and past. The partition
// is total: every interview lands in exactly one side. Upcoming sorts by
// scheduled date ascending, past descending.
type InterviewAgenda struct {
	Upcoming []domain.Interview
	Past     []domain.Interview
}

func (e Engine) agenda(ctx context.Context, f repo.InterviewFilters) (InterviewAgenda, error) {
	items, err := e.Repo.ListInterviews(ctx, f)
	if err != nil {
		return InterviewAgenda{}, err
	}
	now := e.now().In(e.location())
	var agenda InterviewAgenda
	for _, iv := range items {
		if guard.IsPast(iv, now) {
			agenda.Past = append(agenda.Past, iv)
		} else {
			agenda.Upcoming = append(agenda.Upcoming, iv)
		}
	}
	// repo returns ascending; past flips to most recent first
	sort.SliceStable(agenda.Past, func(i, j int) bool {
		a, b := agenda.Past[i], agenda.Past[j]
		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate > b.ScheduledDate
		}
		return a.StartTime > b.StartTime
	})
	return agenda, nil
}

// ListInterviewsForCompany returns the company agenda, optionally filtered
// by lifecycle status.
func (e Engine) ListInterviewsForCompany(ctx context.Context, companyID string, status domain.InterviewStatus) (InterviewAgenda, error) {
	if status != "" && !status.Valid() {
		return InterviewAgenda{}, &guard.FieldError{Field: "status", Message: "unknown interview status"}
	}
	return e.agenda(ctx, repo.InterviewFilters{CompanyID: companyID, Status: status})
}

// ListInterviewsForCandidate returns the candidate's full agenda.
func (e Engine) ListInterviewsForCandidate(ctx context.Context, candidateID string) (InterviewAgenda, error) {
	return e.agenda(ctx, repo.InterviewFilters{CandidateID: candidateID})
}
