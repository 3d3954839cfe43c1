package domain

// ApplicationStatus is the review-funnel position of an application.
type ApplicationStatus string

const (
	ApplicationPending      ApplicationStatus = "pending"
	ApplicationViewed       ApplicationStatus = "viewed"
	ApplicationShortlisted  ApplicationStatus = "shortlisted"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationHired        ApplicationStatus = "hired"
	ApplicationRejected     ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every legal status value in funnel order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationViewed,
	ApplicationShortlisted,
	ApplicationInterviewing,
	ApplicationHired,
	ApplicationRejected,
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationViewed, ApplicationShortlisted,
		ApplicationInterviewing, ApplicationHired, ApplicationRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationHired || s == ApplicationRejected
}

// FunnelRank orders the forward funnel; rejected sits outside it.
func (s ApplicationStatus) FunnelRank() int {
	switch s {
	case ApplicationPending:
		return 0
	case ApplicationViewed:
		return 1
	case ApplicationShortlisted:
		return 2
	case ApplicationInterviewing:
		return 3
	case ApplicationHired:
		return 4
	default:
		return -1
	}
}

// InterviewStatus is the lifecycle state of an interview.
type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewConfirmed   InterviewStatus = "confirmed"
	InterviewRescheduled InterviewStatus = "rescheduled"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewCancelled   InterviewStatus = "cancelled"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewConfirmed, InterviewRescheduled,
		InterviewCompleted, InterviewCancelled:
		return true
	}
	return false
}

func (s InterviewStatus) Terminal() bool {
	return s == InterviewCompleted || s == InterviewCancelled
}

// Location is where an interview takes place.
type Location string

const (
	LocationOnline Location = "online"
	LocationOnsite Location = "onsite"
	LocationPhone  Location = "phone"
)

func (l Location) Valid() bool {
	return l == LocationOnline || l == LocationOnsite || l == LocationPhone
}

// InterviewType is descriptive only; it never affects transitions.
type InterviewType string

const (
	TypeScreening InterviewType = "screening"
	TypeTechnical InterviewType = "technical"
	TypeHR        InterviewType = "hr"
	TypeCulture   InterviewType = "culture"
	TypeFinal     InterviewType = "final"
)

func (t InterviewType) Valid() bool {
	switch t {
	case TypeScreening, TypeTechnical, TypeHR, TypeCulture, TypeFinal:
		return true
	}
	return false
}
