package guard

import (
	"testing"
	"time"

	"hireline/internal/domain"
)

func TestApplicationTransitionsFreeMode(t *testing.T) {
	// any enumerated target is reachable from any non-terminal state
	for _, from := range domain.ApplicationStatuses {
		for _, to := range domain.ApplicationStatuses {
			d := CanSetApplicationStatus(from, to, FunnelFree)
			if from.Terminal() {
				if d == nil || d.Reason != ReasonTerminal {
					t.Fatalf("%s -> %s: expected terminal denial, got %v", from, to, d)
				}
				continue
			}
			if d != nil {
				t.Fatalf("%s -> %s: unexpected denial %v", from, to, d)
			}
		}
	}
}

func TestApplicationTransitionsStrictMode(t *testing.T) {
	cases := []struct {
		from, to domain.ApplicationStatus
		reason   Reason // empty means allowed
	}{
		{domain.ApplicationPending, domain.ApplicationViewed, ""},
		{domain.ApplicationPending, domain.ApplicationInterviewing, ""},
		{domain.ApplicationViewed, domain.ApplicationPending, ReasonNotForward},
		{domain.ApplicationInterviewing, domain.ApplicationShortlisted, ReasonNotForward},
		{domain.ApplicationShortlisted, domain.ApplicationShortlisted, ReasonNotForward},
		{domain.ApplicationInterviewing, domain.ApplicationHired, ""},
		{domain.ApplicationPending, domain.ApplicationRejected, ""},
		{domain.ApplicationInterviewing, domain.ApplicationRejected, ""},
		{domain.ApplicationHired, domain.ApplicationPending, ReasonTerminal},
		{domain.ApplicationRejected, domain.ApplicationViewed, ReasonTerminal},
		{domain.ApplicationPending, domain.ApplicationStatus("archived"), ReasonInvalidStatus},
	}
	for _, c := range cases {
		d := CanSetApplicationStatus(c.from, c.to, FunnelStrict)
		if c.reason == "" {
			if d != nil {
				t.Fatalf("%s -> %s: unexpected denial %v", c.from, c.to, d)
			}
			continue
		}
		if d == nil || d.Reason != c.reason {
			t.Fatalf("%s -> %s: expected %s, got %v", c.from, c.to, c.reason, d)
		}
	}
}

func TestCanSchedule(t *testing.T) {
	for _, s := range domain.ApplicationStatuses {
		d := CanSchedule(domain.Application{Status: s})
		if s == domain.ApplicationInterviewing {
			if d != nil {
				t.Fatalf("interviewing: unexpected denial %v", d)
			}
		} else if d == nil || d.Reason != ReasonNotInterviewing {
			t.Fatalf("%s: expected not-interviewing denial, got %v", s, d)
		}
	}
}

func TestCanConfirm(t *testing.T) {
	iv := domain.Interview{Status: domain.InterviewScheduled}
	if d := CanConfirm(iv); d != nil {
		t.Fatalf("scheduled: unexpected denial %v", d)
	}
	iv.Status = domain.InterviewRescheduled
	if d := CanConfirm(iv); d != nil {
		t.Fatalf("rescheduled: unexpected denial %v", d)
	}
	// second confirm is denied and leaves state untouched
	iv.Status = domain.InterviewConfirmed
	iv.UserConfirmed = true
	if d := CanConfirm(iv); d == nil || d.Reason != ReasonAlreadyConfirmed {
		t.Fatalf("expected already-confirmed denial, got %v", d)
	}
	for _, s := range []domain.InterviewStatus{domain.InterviewCompleted, domain.InterviewCancelled} {
		if d := CanConfirm(domain.Interview{Status: s}); d == nil || d.Reason != ReasonTerminal {
			t.Fatalf("%s: expected terminal denial, got %v", s, d)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, s := range []domain.InterviewStatus{domain.InterviewCompleted, domain.InterviewCancelled} {
		iv := domain.Interview{Status: s, UserConfirmed: true, ScheduledDate: "2026-01-01", EndTime: "10:00"}
		for name, d := range map[string]*Denial{
			"confirm":    CanConfirm(iv),
			"reschedule": CanReschedule(iv),
			"cancel":     CanCancel(iv),
			"complete":   CanComplete(iv, now),
		} {
			if d == nil || d.Reason != ReasonTerminal {
				t.Fatalf("%s on %s: expected terminal denial, got %v", name, s, d)
			}
		}
	}
}

func TestCompleteDistinguishesDenials(t *testing.T) {
	loc := time.UTC
	iv := domain.Interview{
		Status:        domain.InterviewScheduled,
		ScheduledDate: "2026-02-10",
		StartTime:     "15:00",
		EndTime:       "17:00",
	}
	// too early beats the handshake: an unconfirmed scheduled interview at
	// 16:00 with a 17:00 end is denied for its time, not its confirmation
	if d := CanComplete(iv, time.Date(2026, 2, 10, 16, 0, 0, 0, loc)); d == nil || d.Reason != ReasonTooEarly {
		t.Fatalf("expected too-early at 16:00, got %v", d)
	}
	// still in progress right before the end
	iv.Status = domain.InterviewConfirmed
	iv.UserConfirmed = true
	if d := CanComplete(iv, time.Date(2026, 2, 10, 16, 59, 0, 0, loc)); d == nil || d.Reason != ReasonTooEarly {
		t.Fatalf("expected too-early at 16:59, got %v", d)
	}
	if d := CanComplete(iv, time.Date(2026, 2, 10, 17, 0, 0, 0, loc)); d != nil {
		t.Fatalf("expected allowed at 17:00, got %v", d)
	}
	// once the end has passed, the missing confirmation is the answer
	iv.UserConfirmed = false
	if d := CanComplete(iv, time.Date(2026, 2, 10, 18, 0, 0, 0, loc)); d == nil || d.Reason != ReasonNotConfirmed {
		t.Fatalf("expected not-confirmed at 18:00, got %v", d)
	}
	// a scheduled interview past its end still cannot jump to completed
	iv.Status = domain.InterviewScheduled
	iv.UserConfirmed = true
	if d := CanComplete(iv, time.Date(2026, 2, 11, 9, 0, 0, 0, loc)); d == nil || d.Reason != ReasonNotConfirmable {
		t.Fatalf("expected not-confirmable from scheduled, got %v", d)
	}
}

func TestValidateSlotLocationFields(t *testing.T) {
	base := Slot{
		ScheduledDate: "2026-02-10",
		StartTime:     "09:00",
		EndTime:       "10:00",
	}
	link := "https://meet.example.com/abc"
	addr := "12 Harbor St"

	online := base
	online.Location = domain.LocationOnline
	if fe := ValidateSlot(online); fe == nil || fe.Field != "meeting_link" {
		t.Fatalf("online without link: expected meeting_link error, got %v", fe)
	}
	online.MeetingLink = &link
	if fe := ValidateSlot(online); fe != nil {
		t.Fatalf("online with link: unexpected %v", fe)
	}

	onsite := base
	onsite.Location = domain.LocationOnsite
	if fe := ValidateSlot(onsite); fe == nil || fe.Field != "meeting_address" {
		t.Fatalf("onsite without address: expected meeting_address error, got %v", fe)
	}
	onsite.MeetingAddr = &addr
	if fe := ValidateSlot(onsite); fe != nil {
		t.Fatalf("onsite with address: unexpected %v", fe)
	}

	phone := base
	phone.Location = domain.LocationPhone
	if fe := ValidateSlot(phone); fe != nil {
		t.Fatalf("phone: unexpected %v", fe)
	}
}

func TestValidateSlotShape(t *testing.T) {
	s := Slot{ScheduledDate: "02/10/2026", StartTime: "09:00", EndTime: "10:00", Location: domain.LocationPhone}
	if fe := ValidateSlot(s); fe == nil || fe.Field != "scheduled_date" {
		t.Fatalf("expected scheduled_date error, got %v", fe)
	}
	s.ScheduledDate = "2026-02-10"
	s.EndTime = "08:00"
	if fe := ValidateSlot(s); fe == nil || fe.Field != "end_time" {
		t.Fatalf("expected end_time error, got %v", fe)
	}
	s.EndTime = "9am"
	if fe := ValidateSlot(s); fe == nil || fe.Field != "end_time" {
		t.Fatalf("expected end_time parse error, got %v", fe)
	}
	s.EndTime = "10:00"
	s.Location = domain.Location("virtual")
	if fe := ValidateSlot(s); fe == nil || fe.Field != "location" {
		t.Fatalf("expected location error, got %v", fe)
	}
}

func TestUpcomingPastPartition(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		date   string
		status domain.InterviewStatus
		past   bool
	}{
		{"2026-02-09", domain.InterviewScheduled, true},
		{"2026-02-10", domain.InterviewScheduled, false}, // today is upcoming
		{"2026-02-11", domain.InterviewConfirmed, false},
		{"2026-02-11", domain.InterviewCompleted, true}, // terminal always past
		{"2026-02-11", domain.InterviewCancelled, true},
		{"2026-02-09", domain.InterviewCompleted, true},
	}
	for _, c := range cases {
		iv := domain.Interview{ScheduledDate: c.date, Status: c.status}
		if got := IsPast(iv, now); got != c.past {
			t.Fatalf("%s/%s: IsPast=%v want %v", c.date, c.status, got, c.past)
		}
	}
}
