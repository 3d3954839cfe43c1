package server

import (
	"hireline/internal/domain"
	"hireline/internal/engine"
)

// Request payloads

type SubmitApplicationRequest struct {
	ID          *string `json:"id,omitempty"`
	JobID       string  `json:"job_id"`
	CoverLetter *string `json:"cover_letter,omitempty"`
	ResumeURL   *string `json:"resume_url,omitempty"`
}

type SetApplicationStatusRequest struct {
	Status string `json:"status" enum:"pending,viewed,shortlisted,interviewing,hired,rejected"`
}

type ScheduleInterviewRequest struct {
	ApplicationID  string  `json:"application_id"`
	ScheduledDate  string  `json:"scheduled_date" example:"2026-03-02"`
	StartTime      string  `json:"start_time" example:"14:00"`
	EndTime        string  `json:"end_time" example:"15:00"`
	Location       string  `json:"location" enum:"online,onsite,phone"`
	MeetingLink    *string `json:"meeting_link,omitempty"`
	MeetingAddress *string `json:"meeting_address,omitempty"`
	InterviewType  string  `json:"interview_type" enum:"screening,technical,hr,culture,final"`
	Notes          *string `json:"notes,omitempty"`
}

type RescheduleInterviewRequest struct {
	ScheduledDate  string  `json:"scheduled_date" example:"2026-03-05"`
	StartTime      string  `json:"start_time" example:"10:00"`
	EndTime        string  `json:"end_time" example:"11:00"`
	Location       string  `json:"location" enum:"online,onsite,phone"`
	MeetingLink    *string `json:"meeting_link,omitempty"`
	MeetingAddress *string `json:"meeting_address,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// Response payloads. Every body carries the success flag; error responses
// carry success=false plus a message.

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ApplicationResponse struct {
	Success     bool               `json:"success"`
	Application domain.Application `json:"application"`
}

type ApplicationListResponse struct {
	Success      bool                 `json:"success"`
	Applications []domain.Application `json:"applications"`
	Total        int                  `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalPages   int                  `json:"total_pages"`
}

type InterviewResponse struct {
	Success   bool             `json:"success"`
	Interview domain.Interview `json:"interview"`
}

type InterviewAgendaResponse struct {
	Success  bool               `json:"success"`
	Upcoming []domain.Interview `json:"upcoming"`
	Past     []domain.Interview `json:"past"`
}

type EventListResponse struct {
	Success bool           `json:"success"`
	Events  []domain.Event `json:"events"`
}

type APIKeyResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	// Key is returned once at creation; only the hash is stored.
	Key       string `json:"key,omitempty"`
	CreatedAt string `json:"created_at,omitempty" format:"date-time"`
}

type APIKeyListResponse struct {
	Success bool             `json:"success"`
	Keys    []APIKeyResponse `json:"keys"`
}

func applicationResponse(a domain.Application) ApplicationResponse {
	return ApplicationResponse{Success: true, Application: a}
}

func applicationListResponse(page engine.ApplicationPage) ApplicationListResponse {
	items := page.Items
	if items == nil {
		items = []domain.Application{}
	}
	return ApplicationListResponse{
		Success:      true,
		Applications: items,
		Total:        page.Total,
		Page:         page.Page,
		PageSize:     page.PageSize,
		TotalPages:   page.TotalPages,
	}
}

func interviewResponse(iv domain.Interview) InterviewResponse {
	return InterviewResponse{Success: true, Interview: iv}
}

func agendaResponse(a engine.InterviewAgenda) InterviewAgendaResponse {
	if a.Upcoming == nil {
		a.Upcoming = []domain.Interview{}
	}
	if a.Past == nil {
		a.Past = []domain.Interview{}
	}
	return InterviewAgendaResponse{Success: true, Upcoming: a.Upcoming, Past: a.Past}
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{Success: true, ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
