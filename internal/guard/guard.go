// Package guard decides whether a proposed status transition is legal given
// current entity state and wall-clock time. Everything here is pure: no store
// access, no side effects, clock supplied by the caller.
package guard

import (
	"fmt"
	"time"

	"hireline/internal/domain"
)

// Reason distinguishes why a transition was denied so callers can render a
// precise message; "not confirmed" and "too early" are separate reasons.
type Reason string

const (
	ReasonInvalidStatus    Reason = "invalid_status"
	ReasonTerminal         Reason = "terminal"
	ReasonNotForward       Reason = "not_forward"
	ReasonAlreadyConfirmed Reason = "already_confirmed"
	ReasonNotConfirmable   Reason = "not_confirmable"
	ReasonNotConfirmed     Reason = "not_confirmed"
	ReasonTooEarly         Reason = "too_early"
	ReasonNotInterviewing  Reason = "application_not_interviewing"
)

// Denial is a guard rejection. A nil *Denial means the transition is allowed.
type Denial struct {
	Reason  Reason
	Message string
}

func (d *Denial) Error() string { return d.Message }

func deny(reason Reason, format string, args ...any) *Denial {
	return &Denial{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// FunnelMode controls application transition legality. Free mode accepts any
// non-terminal move; strict mode only moves forward through the funnel.
type FunnelMode string

const (
	FunnelFree   FunnelMode = "free"
	FunnelStrict FunnelMode = "strict"
)

func (m FunnelMode) Valid() bool { return m == FunnelFree || m == FunnelStrict }

// CanSetApplicationStatus validates an application status change. In free mode
// any of the six enumerated values is reachable from a non-terminal state; in
// strict mode the status may only move forward through the funnel, except
// rejected, which is reachable from any non-terminal state.
func CanSetApplicationStatus(current, proposed domain.ApplicationStatus, mode FunnelMode) *Denial {
	if !proposed.Valid() {
		return deny(ReasonInvalidStatus, "unknown application status %q", proposed)
	}
	if current.Terminal() {
		return deny(ReasonTerminal, "application is already %s", current)
	}
	if mode != FunnelStrict {
		return nil
	}
	if proposed == domain.ApplicationRejected {
		return nil
	}
	if proposed.FunnelRank() <= current.FunnelRank() {
		return deny(ReasonNotForward, "cannot move application backward from %s to %s", current, proposed)
	}
	return nil
}

// CanSchedule validates that a new interview may be created against app.
func CanSchedule(app domain.Application) *Denial {
	if app.Status != domain.ApplicationInterviewing {
		return deny(ReasonNotInterviewing, "application must be interviewing to schedule, currently %s", app.Status)
	}
	return nil
}

// CanConfirm validates the candidate-side confirm action.
func CanConfirm(iv domain.Interview) *Denial {
	if iv.Status.Terminal() {
		return deny(ReasonTerminal, "interview is already %s", iv.Status)
	}
	if iv.UserConfirmed {
		return deny(ReasonAlreadyConfirmed, "candidate already confirmed attendance")
	}
	if iv.Status != domain.InterviewScheduled && iv.Status != domain.InterviewRescheduled {
		return deny(ReasonNotConfirmable, "interview cannot be confirmed while %s", iv.Status)
	}
	return nil
}

// CanReschedule is allowed for any non-terminal interview.
func CanReschedule(iv domain.Interview) *Denial {
	if iv.Status.Terminal() {
		return deny(ReasonTerminal, "interview is already %s", iv.Status)
	}
	return nil
}

// CanCancel is allowed for any non-terminal interview.
func CanCancel(iv domain.Interview) *Denial {
	if iv.Status.Terminal() {
		return deny(ReasonTerminal, "interview is already %s", iv.Status)
	}
	return nil
}

// CanComplete gates completion on the two-party handshake: the candidate must
// have confirmed, and the interview's end time must have passed. The time gate
// compares against end time, not start time, and is checked before the
// handshake: an interview that is not over yet reads as too early no matter
// what else is missing.
func CanComplete(iv domain.Interview, now time.Time) *Denial {
	if iv.Status.Terminal() {
		return deny(ReasonTerminal, "interview is already %s", iv.Status)
	}
	end, err := CombineEnd(iv.ScheduledDate, iv.EndTime, now.Location())
	if err != nil {
		return deny(ReasonInvalidStatus, "interview has unparseable schedule: %v", err)
	}
	if now.Before(end) {
		return deny(ReasonTooEarly, "end time %s %s not yet reached", iv.ScheduledDate, iv.EndTime)
	}
	if !iv.UserConfirmed {
		return deny(ReasonNotConfirmed, "candidate has not confirmed attendance")
	}
	if iv.Status != domain.InterviewConfirmed && iv.Status != domain.InterviewRescheduled {
		return deny(ReasonNotConfirmable, "interview cannot be completed while %s", iv.Status)
	}
	return nil
}
