package domain

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Job struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Application is a candidate's submission against a job. Rows are never
// deleted; a finished application is terminalized (hired or rejected).
type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	CompanyID   string            `json:"company_id"`
	CandidateID string            `json:"candidate_id"`
	Status      ApplicationStatus `json:"status" enum:"pending,viewed,shortlisted,interviewing,hired,rejected"`
	SubmittedAt string            `json:"submitted_at" format:"date-time"`
	UpdatedAt   string            `json:"updated_at" format:"date-time"`

	// Denormalized from the list query join for search/sort/rendering.
	CandidateName string `json:"candidate_name,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`

	// Extended fields, present only on the detail projection.
	CandidateEmail string  `json:"candidate_email,omitempty"`
	CoverLetter    *string `json:"cover_letter,omitempty"`
	ResumeURL      *string `json:"resume_url,omitempty"`
}

// Interview is a scheduled meeting tied to one Application, with its own
// lifecycle. ScheduledDate is a calendar date (2006-01-02); StartTime and
// EndTime are same-day wall-clock values (15:04).
type Interview struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	JobID         string          `json:"job_id"`
	CompanyID     string          `json:"company_id"`
	CandidateID   string          `json:"candidate_id"`
	ScheduledDate string          `json:"scheduled_date"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	Location      Location        `json:"location" enum:"online,onsite,phone"`
	MeetingLink   *string         `json:"meeting_link,omitempty"`
	MeetingAddr   *string         `json:"meeting_address,omitempty"`
	InterviewType InterviewType   `json:"interview_type" enum:"screening,technical,hr,culture,final"`
	Status        InterviewStatus `json:"status" enum:"scheduled,confirmed,rescheduled,completed,cancelled"`
	UserConfirmed bool            `json:"user_confirmed"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     string          `json:"created_at" format:"date-time"`
	UpdatedAt     string          `json:"updated_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	CompanyID  string `json:"company_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
