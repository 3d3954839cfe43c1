package hirelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Hireline HTTP API client. Mutations are confirmed by
// the server; pair it with a Mutator for optimistic local updates.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults. The HTTP client is built here so a
// Client can be shared across goroutines without further initialization.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Timeout:    10 * time.Second,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Application mirrors the API application model.
type Application struct {
	ID             string  `json:"id"`
	JobID          string  `json:"job_id"`
	CompanyID      string  `json:"company_id"`
	CandidateID    string  `json:"candidate_id"`
	Status         string  `json:"status"`
	SubmittedAt    string  `json:"submitted_at"`
	UpdatedAt      string  `json:"updated_at"`
	CandidateName  string  `json:"candidate_name,omitempty"`
	JobTitle       string  `json:"job_title,omitempty"`
	CandidateEmail string  `json:"candidate_email,omitempty"`
	CoverLetter    *string `json:"cover_letter,omitempty"`
	ResumeURL      *string `json:"resume_url,omitempty"`
}

// Interview mirrors the API interview model.
type Interview struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"application_id"`
	JobID         string  `json:"job_id"`
	CompanyID     string  `json:"company_id"`
	CandidateID   string  `json:"candidate_id"`
	ScheduledDate string  `json:"scheduled_date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Location      string  `json:"location"`
	MeetingLink   *string `json:"meeting_link,omitempty"`
	MeetingAddr   *string `json:"meeting_address,omitempty"`
	InterviewType string  `json:"interview_type"`
	Status        string  `json:"status"`
	UserConfirmed bool    `json:"user_confirmed"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// Event is an audit log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	CompanyID  string `json:"company_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Agenda is the upcoming/past split of an interview listing.
type Agenda struct {
	Upcoming []Interview `json:"upcoming"`
	Past     []Interview `json:"past"`
}

// ApplicationPage is one page of the application listing.
type ApplicationPage struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalPages   int           `json:"total_pages"`
}

// ListFilters narrow the application listing.
type ListFilters struct {
	Status    string
	Keyword   string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// SlotRequest is the scheduling payload shared by schedule and reschedule.
type SlotRequest struct {
	ScheduledDate  string  `json:"scheduled_date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Location       string  `json:"location"`
	MeetingLink    *string `json:"meeting_link,omitempty"`
	MeetingAddress *string `json:"meeting_address,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// APIError wraps non-2xx responses. Message carries the server's envelope
// message when the body parses.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Denied reports whether the request was refused by a transition guard.
func (e *APIError) Denied() bool { return e.StatusCode == http.StatusUnprocessableEntity }

type applicationEnvelope struct {
	Success     bool        `json:"success"`
	Application Application `json:"application"`
}

type interviewEnvelope struct {
	Success   bool      `json:"success"`
	Interview Interview `json:"interview"`
}

type listEnvelope struct {
	Success bool `json:"success"`
	ApplicationPage
}

type agendaEnvelope struct {
	Success bool `json:"success"`
	Agenda
}

type eventsEnvelope struct {
	Success bool    `json:"success"`
	Events  []Event `json:"events"`
}

// SubmitApplication creates a pending application for the candidate.
func (c *Client) SubmitApplication(ctx context.Context, jobID, coverLetter, resumeURL string) (Application, error) {
	body := map[string]any{"job_id": jobID}
	if coverLetter != "" {
		body["cover_letter"] = coverLetter
	}
	if resumeURL != "" {
		body["resume_url"] = resumeURL
	}
	var resp applicationEnvelope
	err := c.do(ctx, http.MethodPost, "applications", body, &resp)
	return resp.Application, err
}

// ListApplications returns one page of the company's applications.
func (c *Client) ListApplications(ctx context.Context, f ListFilters) (ApplicationPage, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
	if f.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", f.Limit))
	}
	endpoint := "applications"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp listEnvelope
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.ApplicationPage, err
}

// GetApplication fetches the detail view. Server-side, a pending application
// is promoted to viewed by this read.
func (c *Client) GetApplication(ctx context.Context, id string) (Application, error) {
	var resp applicationEnvelope
	err := c.do(ctx, http.MethodGet, "applications/"+url.PathEscape(id)+"/detail", nil, &resp)
	return resp.Application, err
}

// SetApplicationStatus moves an application through the funnel.
func (c *Client) SetApplicationStatus(ctx context.Context, id, status string) (Application, error) {
	var resp applicationEnvelope
	err := c.do(ctx, http.MethodPatch, "applications/"+url.PathEscape(id)+"/status", map[string]any{"status": status}, &resp)
	return resp.Application, err
}

// ScheduleInterview creates an interview against an application.
func (c *Client) ScheduleInterview(ctx context.Context, applicationID, interviewType string, slot SlotRequest) (Interview, error) {
	body := map[string]any{
		"application_id": applicationID,
		"interview_type": interviewType,
		"scheduled_date": slot.ScheduledDate,
		"start_time":     slot.StartTime,
		"end_time":       slot.EndTime,
		"location":       slot.Location,
	}
	if slot.MeetingLink != nil {
		body["meeting_link"] = *slot.MeetingLink
	}
	if slot.MeetingAddress != nil {
		body["meeting_address"] = *slot.MeetingAddress
	}
	if slot.Notes != nil {
		body["notes"] = *slot.Notes
	}
	var resp interviewEnvelope
	err := c.do(ctx, http.MethodPost, "interviews/schedule", body, &resp)
	return resp.Interview, err
}

// ConfirmInterview records the candidate's attendance confirmation.
func (c *Client) ConfirmInterview(ctx context.Context, id string) (Interview, error) {
	var resp interviewEnvelope
	err := c.do(ctx, http.MethodPut, "interviews/"+url.PathEscape(id)+"/confirm", nil, &resp)
	return resp.Interview, err
}

// RescheduleInterview replaces the slot and restarts the handshake.
func (c *Client) RescheduleInterview(ctx context.Context, id string, slot SlotRequest) (Interview, error) {
	var resp interviewEnvelope
	err := c.do(ctx, http.MethodPut, "interviews/"+url.PathEscape(id)+"/reschedule", slot, &resp)
	return resp.Interview, err
}

// CancelInterview terminalizes an interview.
func (c *Client) CancelInterview(ctx context.Context, id string) (Interview, error) {
	var resp interviewEnvelope
	err := c.do(ctx, http.MethodPut, "interviews/"+url.PathEscape(id)+"/cancel", nil, &resp)
	return resp.Interview, err
}

// CompleteInterview terminalizes a confirmed interview once its end time has
// passed.
func (c *Client) CompleteInterview(ctx context.Context, id string) (Interview, error) {
	var resp interviewEnvelope
	err := c.do(ctx, http.MethodPut, "interviews/"+url.PathEscape(id)+"/complete", nil, &resp)
	return resp.Interview, err
}

// CompanyInterviews returns the company agenda.
func (c *Client) CompanyInterviews(ctx context.Context, status string) (Agenda, error) {
	endpoint := "interviews/company"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp agendaEnvelope
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Agenda, err
}

// MyInterviews returns the candidate agenda.
func (c *Client) MyInterviews(ctx context.Context) (Agenda, error) {
	var resp agendaEnvelope
	err := c.do(ctx, http.MethodGet, "interviews/user", nil, &resp)
	return resp.Agenda, err
}

// Events returns recent audit entries, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp eventsEnvelope
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Events, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	// Fall back without writing to c: a zero-value client stays usable from
	// several goroutines at once.
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	reqURL := c.base() + "/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
