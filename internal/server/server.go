package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/guard"
	"hireline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

// apiError models the error envelope: success=false plus a message.
type apiError struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

func newAPIError(status int, message string) huma.StatusError {
	return &apiError{status: status, Success: false, Message: message}
}

// New returns an HTTP handler exposing the Hireline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the success envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema validation failures are malformed requests, not
			// guard denials.
			status = http.StatusBadRequest
		}
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Hireline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerApplications(group, cfg.Engine)
	registerInterviews(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

// handleError maps engine errors onto the HTTP taxonomy. Guard denials are
// well-formed requests the state machine refuses (422); field errors are
// malformed requests (400).
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var d *guard.Denial
	if errors.As(err, &d) {
		return newAPIError(http.StatusUnprocessableEntity, d.Message)
	}
	var fe *guard.FieldError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusBadRequest, fe.Error())
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not found")
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, msg)
	}
	return newAPIError(http.StatusInternalServerError, "internal error")
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerApplications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-application",
		Method:        http.MethodPost,
		Path:          "/applications",
		Summary:       "Submit an application",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body SubmitApplicationRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		candidateID, authErr := candidateFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.JobID == "" {
			return nil, newAPIError(http.StatusBadRequest, "job_id is required")
		}
		a, err := e.SubmitApplication(ctx, engine.SubmitOptions{
			ID:          deref(input.Body.ID),
			JobID:       input.Body.JobID,
			CandidateID: candidateID,
			CoverLetter: deref(input.Body.CoverLetter),
			ResumeURL:   deref(input.Body.ResumeURL),
			ActorID:     candidateID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-applications",
		Method:      http.MethodGet,
		Path:        "/applications",
		Summary:     "List applications",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status    string `query:"status"`
		Keyword   string `query:"keyword"`
		SortBy    string `query:"sort_by"`
		SortOrder string `query:"sort_order"`
		Page      int    `query:"page" minimum:"0"`
		Limit     int    `query:"limit" minimum:"0"`
	}) (*struct {
		Body ApplicationListResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		page, err := e.ListApplications(ctx, repo.ApplicationFilters{
			CompanyID: companyID,
			Status:    domain.ApplicationStatus(input.Status),
			Keyword:   input.Keyword,
			SortBy:    input.SortBy,
			SortOrder: input.SortOrder,
			Page:      input.Page,
			PageSize:  input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationListResponse `json:"body"`
		}{Body: applicationListResponse(page)}, nil
	})

	// Retrieval is a mutation here: reading a pending application promotes
	// it to viewed before the detail is returned.
	huma.Register(api, huma.Operation{
		OperationID: "get-application",
		Method:      http.MethodGet,
		Path:        "/applications/{application_id}/detail",
		Summary:     "Application detail",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ApplicationID string `path:"application_id"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		// Ownership is settled before the promoting read; a foreign
		// application must not change state on a 404.
		current, err := e.Repo.GetApplication(ctx, input.ApplicationID)
		if err != nil || current.CompanyID != companyID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		a, err := e.ViewAndPromote(ctx, input.ApplicationID, companyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-application-status",
		Method:      http.MethodPatch,
		Path:        "/applications/{application_id}/status",
		Summary:     "Move an application through the funnel",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ApplicationID string                      `path:"application_id"`
		Body          SetApplicationStatusRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		current, err := e.Repo.GetApplication(ctx, input.ApplicationID)
		if err != nil || current.CompanyID != companyID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		a, err := e.SetApplicationStatus(ctx, input.ApplicationID, domain.ApplicationStatus(input.Body.Status), companyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(a)}, nil
	})
}

func registerInterviews(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "schedule-interview",
		Method:        http.MethodPost,
		Path:          "/interviews/schedule",
		Summary:       "Schedule an interview",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body ScheduleInterviewRequest `json:"body"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.ApplicationID == "" {
			return nil, newAPIError(http.StatusBadRequest, "application_id is required")
		}
		app, err := e.Repo.GetApplication(ctx, input.Body.ApplicationID)
		if err != nil || app.CompanyID != companyID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		iv, err := e.ScheduleInterview(ctx, engine.ScheduleOptions{
			ApplicationID: input.Body.ApplicationID,
			ScheduledDate: input.Body.ScheduledDate,
			StartTime:     input.Body.StartTime,
			EndTime:       input.Body.EndTime,
			Location:      domain.Location(input.Body.Location),
			MeetingLink:   deref(input.Body.MeetingLink),
			MeetingAddr:   deref(input.Body.MeetingAddress),
			InterviewType: domain.InterviewType(input.Body.InterviewType),
			Notes:         deref(input.Body.Notes),
			ActorID:       companyID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-interview",
		Method:      http.MethodPut,
		Path:        "/interviews/{interview_id}/confirm",
		Summary:     "Candidate confirms attendance",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		InterviewID string `path:"interview_id"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		candidateID, authErr := candidateFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		current, err := e.Repo.GetInterview(ctx, input.InterviewID)
		if err != nil || current.CandidateID != candidateID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		iv, err := e.ConfirmInterview(ctx, input.InterviewID, candidateID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reschedule-interview",
		Method:      http.MethodPut,
		Path:        "/interviews/{interview_id}/reschedule",
		Summary:     "Reschedule an interview",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		InterviewID string                     `path:"interview_id"`
		Body        RescheduleInterviewRequest `json:"body"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		current, err := e.Repo.GetInterview(ctx, input.InterviewID)
		if err != nil || current.CompanyID != companyID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		iv, err := e.RescheduleInterview(ctx, input.InterviewID, engine.ScheduleOptions{
			ScheduledDate: input.Body.ScheduledDate,
			StartTime:     input.Body.StartTime,
			EndTime:       input.Body.EndTime,
			Location:      domain.Location(input.Body.Location),
			MeetingLink:   deref(input.Body.MeetingLink),
			MeetingAddr:   deref(input.Body.MeetingAddress),
			Notes:         deref(input.Body.Notes),
			ActorID:       companyID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-interview",
		Method:      http.MethodPut,
		Path:        "/interviews/{interview_id}/cancel",
		Summary:     "Cancel an interview",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		InterviewID string `path:"interview_id"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		iv, err := interviewForCaller(ctx, e, input.InterviewID)
		if err != nil {
			return nil, err
		}
		updated, opErr := e.CancelInterview(ctx, iv.ID, actorFromContext(ctx))
		if opErr != nil {
			return nil, handleError(opErr)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-interview",
		Method:      http.MethodPut,
		Path:        "/interviews/{interview_id}/complete",
		Summary:     "Mark an interview completed",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		InterviewID string `path:"interview_id"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		current, err := e.Repo.GetInterview(ctx, input.InterviewID)
		if err != nil || current.CompanyID != companyID {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		iv, err := e.CompleteInterview(ctx, input.InterviewID, companyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "company-interviews",
		Method:      http.MethodGet,
		Path:        "/interviews/company",
		Summary:     "Company agenda, split into upcoming and past",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body InterviewAgendaResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		agenda, err := e.ListInterviewsForCompany(ctx, companyID, domain.InterviewStatus(input.Status))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewAgendaResponse `json:"body"`
		}{Body: agendaResponse(agenda)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "my-interviews",
		Method:      http.MethodGet,
		Path:        "/interviews/user",
		Summary:     "Candidate agenda, split into upcoming and past",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body InterviewAgendaResponse `json:"body"`
	}, error) {
		candidateID, authErr := candidateFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		agenda, err := e.ListInterviewsForCandidate(ctx, candidateID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewAgendaResponse `json:"body"`
		}{Body: agendaResponse(agenda)}, nil
	})
}

// interviewForCaller resolves an interview the caller may act on: companies
// own their company's interviews, candidates their own.
func interviewForCaller(ctx context.Context, e engine.Engine, id string) (domain.Interview, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return domain.Interview{}, newAPIError(http.StatusUnauthorized, "authentication required")
	}
	iv, err := e.Repo.GetInterview(ctx, id)
	if err != nil {
		return domain.Interview{}, newAPIError(http.StatusNotFound, "not found")
	}
	switch p.Role {
	case RoleCompany:
		if iv.CompanyID == p.CompanyID {
			return iv, nil
		}
	case RoleCandidate:
		if iv.CandidateID == p.CandidateID {
			return iv, nil
		}
	}
	return domain.Interview{}, newAPIError(http.StatusNotFound, "not found")
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Audit log, newest first",
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor     int64  `query:"cursor" minimum:"0"`
	}) (*struct {
		Body EventListResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListEvents(ctx, repo.EventFilters{
			CompanyID:  companyID,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			Limit:      input.Limit,
			CursorID:   input.Cursor,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Event{}
		}
		return &struct {
			Body EventListResponse `json:"body"`
		}{Body: EventListResponse{Success: true, Events: items}}, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create an API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		raw := uuid.NewString()
		key := domain.APIKey{
			ID:        uuid.NewString(),
			CompanyID: companyID,
			Name:      input.Body.Name,
			KeyHash:   repo.HashAPIKey(raw),
			CreatedAt: e.NowUTC(),
		}
		if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
			return nil, handleError(err)
		}
		out := apiKeyResponse(key)
		out.Key = raw
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body APIKeyListResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListAPIKeys(ctx, companyID)
		if err != nil {
			return nil, handleError(err)
		}
		keys := make([]APIKeyResponse, 0, len(items))
		for _, k := range items {
			keys = append(keys, apiKeyResponse(k))
		}
		return &struct {
			Body APIKeyListResponse `json:"body"`
		}{Body: APIKeyListResponse{Success: true, Keys: keys}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{key_id}",
		Summary:     "Delete an API key",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct {
		Body SuccessResponse `json:"body"`
	}, error) {
		companyID, authErr := companyFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListAPIKeys(ctx, companyID)
		if err != nil {
			return nil, handleError(err)
		}
		owned := false
		for _, k := range items {
			if k.ID == input.KeyID {
				owned = true
				break
			}
		}
		if !owned {
			return nil, newAPIError(http.StatusNotFound, "not found")
		}
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SuccessResponse `json:"body"`
		}{Body: SuccessResponse{Success: true}}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Hireline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}
