package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/migrate"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("acme")
	cfg.Scheduling.Timezone = "UTC"
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2026, 2, 10, 16, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	now := e.NowUTC()
	if err := e.Repo.InsertCompany(ctx, domain.Company{ID: "acme", Name: "Acme", CreatedAt: now}); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	if err := e.Repo.InsertCandidate(ctx, domain.Candidate{ID: "cand-ada", Name: "Ada Lovelace", Email: "ada@example.com", CreatedAt: now}); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	if err := e.Repo.InsertJob(ctx, domain.Job{ID: "job-go", CompanyID: "acme", Title: "Go Engineer", CreatedAt: now}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{JWTSecret: testSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func companyHeaders(t *testing.T) map[string]string {
	t.Helper()
	token, err := IssueToken(testSecret, RoleCompany, "acme")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func candidateHeaders(t *testing.T, candidateID string) map[string]string {
	t.Helper()
	token, err := IssueToken(testSecret, RoleCandidate, candidateID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func submitApplication(t *testing.T, srv *testServer) domain.Application {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/applications", map[string]any{
		"job_id": "job-go",
	}, candidateHeaders(t, "cand-ada"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit application: %d %s", res.StatusCode, string(data))
	}
	var out ApplicationResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal application: %v", err)
	}
	return out.Application
}

func setStatus(t *testing.T, srv *testServer, appID string, status domain.ApplicationStatus) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v1/applications/"+appID+"/status", map[string]any{
		"status": status,
	}, companyHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set status %s: %d %s", status, res.StatusCode, string(data))
	}
}

func scheduleInterview(t *testing.T, srv *testServer, appID string) domain.Interview {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/interviews/schedule", map[string]any{
		"application_id": appID,
		"scheduled_date": "2026-02-10",
		"start_time":     "15:00",
		"end_time":       "17:00",
		"location":       "phone",
		"interview_type": "screening",
	}, companyHeaders(t))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("schedule interview: %d %s", res.StatusCode, string(data))
	}
	var out InterviewResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal interview: %v", err)
	}
	return out.Interview
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Success || envelope.Message == "" {
		t.Fatalf("error envelope must carry success=false and a message: %s", string(data))
	}

	// health is open
	healthRes, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if healthRes.StatusCode != http.StatusOK {
		t.Fatalf("health: %d", healthRes.StatusCode)
	}
}

func TestApplicationFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	app := submitApplication(t, srv)
	if app.Status != domain.ApplicationPending {
		t.Fatalf("expected pending, got %s", app.Status)
	}

	// reading the detail promotes pending to viewed
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications/"+app.ID+"/detail", nil, companyHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get application: %d %s", res.StatusCode, string(data))
	}
	var detail ApplicationResponse
	if err := json.Unmarshal(data, &detail); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if !detail.Success || detail.Application.Status != domain.ApplicationViewed {
		t.Fatalf("expected viewed detail, got %s", string(data))
	}
	if detail.Application.CandidateEmail != "ada@example.com" {
		t.Fatalf("detail must carry extended fields: %s", string(data))
	}

	setStatus(t, srv, app.ID, domain.ApplicationHired)

	// terminal status change is a guard denial, not a validation error
	res, data = doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v1/applications/"+app.ID+"/status", map[string]any{
		"status": "pending",
	}, companyHeaders(t))
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", res.StatusCode, string(data))
	}
}

func TestCrossCompanyDetailReadDoesNotPromote(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	app := submitApplication(t, srv)

	rival, err := IssueToken(testSecret, RoleCompany, "rival")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications/"+app.ID+"/detail", nil,
		map[string]string{"Authorization": "Bearer " + rival})
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign company, got %d %s", res.StatusCode, string(data))
	}
	// the refused read must not have promoted the application
	after, err := srv.Engine.Repo.GetApplication(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if after.Status != domain.ApplicationPending {
		t.Fatalf("foreign read mutated the application: %s", after.Status)
	}
}

func TestApplicationListEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	submitApplication(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications?keyword=ada", nil, companyHeaders(t))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", res.StatusCode, string(data))
	}
	var out ApplicationListResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !out.Success || out.Total != 1 || len(out.Applications) != 1 || out.TotalPages != 1 {
		t.Fatalf("unexpected list envelope: %s", string(data))
	}
}

func TestInterviewLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	app := submitApplication(t, srv)

	// scheduling requires the interviewing stage
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/interviews/schedule", map[string]any{
		"application_id": app.ID,
		"scheduled_date": "2026-02-10",
		"start_time":     "15:00",
		"end_time":       "17:00",
		"location":       "phone",
		"interview_type": "screening",
	}, companyHeaders(t))
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 before interviewing, got %d %s", res.StatusCode, string(data))
	}

	setStatus(t, srv, app.ID, domain.ApplicationInterviewing)
	iv := scheduleInterview(t, srv, app.ID)

	// completing before the end time is refused and nothing changes
	res, data = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/interviews/"+iv.ID+"/complete", nil, companyHeaders(t))
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 complete, got %d %s", res.StatusCode, string(data))
	}

	// candidates cannot complete; companies cannot confirm
	res, data = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/interviews/"+iv.ID+"/complete", nil, candidateHeaders(t, "cand-ada"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for candidate complete, got %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/interviews/"+iv.ID+"/confirm", nil, companyHeaders(t))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for company confirm, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/interviews/"+iv.ID+"/confirm", nil, candidateHeaders(t, "cand-ada"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %d %s", res.StatusCode, string(data))
	}
	var confirmed InterviewResponse
	if err := json.Unmarshal(data, &confirmed); err != nil {
		t.Fatalf("unmarshal confirm: %v", err)
	}
	if confirmed.Interview.Status != domain.InterviewConfirmed || !confirmed.Interview.UserConfirmed {
		t.Fatalf("unexpected confirm result: %s", string(data))
	}

	// the handler holds its own engine copy, so move the clock there too
	late := srv.Engine
	late.Now = func() time.Time { return time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC) }
	done, doneErr := late.CompleteInterview(context.Background(), iv.ID, "acme")
	if doneErr != nil || done.Status != domain.InterviewCompleted {
		t.Fatalf("complete after end time: %v %s", doneErr, done.Status)
	}
}

func TestScheduleValidationCreatesNothing(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	app := submitApplication(t, srv)
	setStatus(t, srv, app.ID, domain.ApplicationInterviewing)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/interviews/schedule", map[string]any{
		"application_id": app.ID,
		"scheduled_date": "2026-02-12",
		"start_time":     "09:00",
		"end_time":       "10:00",
		"location":       "online",
		"interview_type": "technical",
	}, companyHeaders(t))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for online without link, got %d %s", res.StatusCode, string(data))
	}

	agendaRes, agendaData := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/interviews/company", nil, companyHeaders(t))
	if agendaRes.StatusCode != http.StatusOK {
		t.Fatalf("agenda: %d %s", agendaRes.StatusCode, string(agendaData))
	}
	var agenda InterviewAgendaResponse
	if err := json.Unmarshal(agendaData, &agenda); err != nil {
		t.Fatalf("unmarshal agenda: %v", err)
	}
	if len(agenda.Upcoming)+len(agenda.Past) != 0 {
		t.Fatalf("denied schedule created an interview: %s", string(agendaData))
	}
}

func TestCandidateAgenda(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	app := submitApplication(t, srv)
	setStatus(t, srv, app.ID, domain.ApplicationInterviewing)
	scheduleInterview(t, srv, app.ID)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/interviews/user", nil, candidateHeaders(t, "cand-ada"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("candidate agenda: %d %s", res.StatusCode, string(data))
	}
	var agenda InterviewAgendaResponse
	if err := json.Unmarshal(data, &agenda); err != nil {
		t.Fatalf("unmarshal agenda: %v", err)
	}
	if len(agenda.Upcoming) != 1 || len(agenda.Past) != 0 {
		t.Fatalf("unexpected agenda: %s", string(data))
	}

	// other candidates see nothing
	otherRes, otherData := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/interviews/user", nil, candidateHeaders(t, "cand-bob"))
	if otherRes.StatusCode != http.StatusOK {
		t.Fatalf("other agenda: %d", otherRes.StatusCode)
	}
	var other InterviewAgendaResponse
	_ = json.Unmarshal(otherData, &other)
	if len(other.Upcoming)+len(other.Past) != 0 {
		t.Fatalf("cross-candidate leak: %s", string(otherData))
	}
}

func TestAPIKeyRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/apikeys", map[string]any{
		"name": "ci",
	}, companyHeaders(t))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key: %d %s", res.StatusCode, string(data))
	}
	var created APIKeyResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal key: %v", err)
	}
	if created.Key == "" {
		t.Fatalf("raw key must be returned at creation: %s", string(data))
	}

	// the raw key authenticates as the company
	listRes, listData := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications", nil, map[string]string{"X-Api-Key": created.Key})
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("api key auth: %d %s", listRes.StatusCode, string(listData))
	}

	delRes, delData := doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/v1/apikeys/"+created.ID, nil, companyHeaders(t))
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete key: %d %s", delRes.StatusCode, string(delData))
	}
	afterRes, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/applications", nil, map[string]string{"X-Api-Key": created.Key})
	if afterRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deleted key still authenticates: %d", afterRes.StatusCode)
	}
}
