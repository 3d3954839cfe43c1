package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hireline/internal/app"
	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/repo"
	"hireline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "Hireline CLI",
	Long: `Hireline tracks recruitment workflows: applications moving through a
hiring funnel and interviews with a confirmation handshake.
- Workspace: the .hireline directory holding the database.
- Applications: pending -> viewed -> shortlisted -> interviewing -> hired/rejected.
- Interviews: scheduled -> confirmed -> completed, with reschedule and cancel;
  completion requires the candidate's confirmation and a passed end time.
- Event log: diary of changes, view with 'hl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HIRELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("company", "", "company id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("company", rootCmd.PersistentFlags().Lookup("company"))
}

func registerCommands() {
	rootCmd.AddCommand(companyCmd())
	rootCmd.AddCommand(candidateCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(applicationCmd())
	rootCmd.AddCommand(interviewCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func companyCmd() *cobra.Command {
	c := &cobra.Command{Use: "company", Short: "Manage companies"}
	c.AddCommand(companyCreateCmd())
	c.AddCommand(companyListCmd())
	c.AddCommand(companyShowCmd())
	c.AddCommand(companyConfigCmd())
	return c
}

func companyCreateCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if name == "" {
					name = id
				}
				c := domain.Company{ID: id, Name: name, CreatedAt: nowUTC()}
				if err := r.InsertCompany(ctx, c); err != nil {
					return err
				}
				if err := r.UpsertCompanyConfig(ctx, id, config.Default(id)); err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "company id")
	cmd.Flags().StringVar(&name, "name", "", "company name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func companyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCompanies(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func companyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetCompany(ctx, e.Config.Company.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
}

func companyConfigCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage company config"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show company config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	})
	cfg.AddCommand(companyConfigImportCmd())
	return cfg
}

func companyConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import company config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			companyID := cfg.Company.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if companyID == "" {
					companyID = e.Config.Company.ID
				}
				if err := e.Repo.UpsertCompanyConfig(ctx, companyID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func candidateCmd() *cobra.Command {
	c := &cobra.Command{Use: "candidate", Short: "Manage candidates"}
	var id, name, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if id == "" {
					id = uuid.NewString()
				}
				cand := domain.Candidate{ID: id, Name: name, Email: email, CreatedAt: nowUTC()}
				if err := r.InsertCandidate(ctx, cand); err != nil {
					return err
				}
				return printJSONOrTable(cand)
			})
		},
	}
	create.Flags().StringVar(&id, "id", "", "candidate id (optional)")
	create.Flags().StringVar(&name, "name", "", "candidate name")
	create.Flags().StringVar(&email, "email", "", "candidate email")
	_ = create.MarkFlagRequired("name")
	c.AddCommand(create)
	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCandidates(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	})
	return c
}

func jobCmd() *cobra.Command {
	c := &cobra.Command{Use: "job", Short: "Manage job postings"}
	var id, title string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create job posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if id == "" {
					id = uuid.NewString()
				}
				j := domain.Job{ID: id, CompanyID: e.Config.Company.ID, Title: title, CreatedAt: nowUTC()}
				if err := e.Repo.InsertJob(ctx, j); err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	create.Flags().StringVar(&id, "id", "", "job id (optional)")
	create.Flags().StringVar(&title, "title", "", "job title")
	_ = create.MarkFlagRequired("title")
	c.AddCommand(create)
	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List job postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListJobs(ctx, e.Config.Company.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	})
	return c
}

func applicationCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "application",
		Short: "Manage applications",
		Long:  "Applications move through the funnel pending -> viewed -> shortlisted -> interviewing -> hired/rejected. Viewing a pending application promotes it.",
	}
	c.AddCommand(applicationSubmitCmd())
	c.AddCommand(applicationListCmd())
	c.AddCommand(applicationViewCmd())
	c.AddCommand(applicationSetStatusCmd())
	return c
}

func applicationSubmitCmd() *cobra.Command {
	var opts engine.SubmitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.SubmitApplication(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "application id (optional)")
	cmd.Flags().StringVar(&opts.JobID, "job", "", "job id")
	cmd.Flags().StringVar(&opts.CandidateID, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&opts.CoverLetter, "cover-letter", "", "cover letter text")
	cmd.Flags().StringVar(&opts.ResumeURL, "resume-url", "", "resume URL")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func applicationListCmd() *cobra.Command {
	var f repo.ApplicationFilters
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.ApplicationStatus(status)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if f.CompanyID == "" {
					f.CompanyID = e.Config.Company.ID
				}
				page, err := e.ListApplications(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(page)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Candidate", "Job", "Status", "Submitted"})
				for _, a := range page.Items {
					tw.AppendRow(table.Row{a.ID, a.CandidateName, a.JobTitle, a.Status, a.SubmittedAt})
				}
				tw.Render()
				fmt.Printf("page %d/%d, %d total\n", page.Page, page.TotalPages, page.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Keyword, "keyword", "", "search candidate name or job title")
	cmd.Flags().StringVar(&f.SortBy, "sort-by", "", "sort column (submitted_at, status, candidate_name, job_title)")
	cmd.Flags().StringVar(&f.SortOrder, "sort-order", "", "asc or desc")
	cmd.Flags().IntVar(&f.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 0, "page size")
	return cmd
}

func applicationViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show application detail (promotes pending to viewed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.ViewAndPromote(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func applicationSetStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <id>",
		Short: "Move an application through the funnel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.SetApplicationStatus(ctx, args[0], domain.ApplicationStatus(status), viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "target status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func interviewCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "interview",
		Short: "Manage interviews",
		Long:  "Interviews are scheduled against interviewing applications. Completion requires the candidate's confirmation and a passed end time; rescheduling resets the confirmation.",
	}
	c.AddCommand(interviewScheduleCmd())
	c.AddCommand(interviewConfirmCmd())
	c.AddCommand(interviewRescheduleCmd())
	c.AddCommand(interviewCancelCmd())
	c.AddCommand(interviewCompleteCmd())
	c.AddCommand(interviewListCmd())
	return c
}

func scheduleFlags(cmd *cobra.Command, opts *engine.ScheduleOptions) {
	cmd.Flags().StringVar(&opts.ScheduledDate, "date", "", "date (2006-01-02)")
	cmd.Flags().StringVar(&opts.StartTime, "start", "", "start time (15:04)")
	cmd.Flags().StringVar(&opts.EndTime, "end", "", "end time (15:04)")
	cmd.Flags().StringVar((*string)(&opts.Location), "location", "", "online, onsite, or phone")
	cmd.Flags().StringVar(&opts.MeetingLink, "link", "", "meeting link (online)")
	cmd.Flags().StringVar(&opts.MeetingAddr, "address", "", "meeting address (onsite)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
}

func interviewScheduleCmd() *cobra.Command {
	var opts engine.ScheduleOptions
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule an interview",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.ScheduleInterview(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ApplicationID, "application", "", "application id")
	cmd.Flags().StringVar((*string)(&opts.InterviewType), "type", "screening", "screening, technical, hr, culture, or final")
	scheduleFlags(cmd, &opts)
	_ = cmd.MarkFlagRequired("application")
	return cmd
}

func interviewConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Record the candidate's confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.ConfirmInterview(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
}

func interviewRescheduleCmd() *cobra.Command {
	var opts engine.ScheduleOptions
	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Replace the slot and restart the handshake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.RescheduleInterview(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	scheduleFlags(cmd, &opts)
	return cmd
}

func interviewCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.CancelInterview(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
}

func interviewCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an interview completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.CompleteInterview(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
}

func interviewListCmd() *cobra.Command {
	var status, candidate string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interviews, split into upcoming and past",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var agenda engine.InterviewAgenda
				var err error
				if candidate != "" {
					agenda, err = e.ListInterviewsForCandidate(ctx, candidate)
				} else {
					agenda, err = e.ListInterviewsForCompany(ctx, e.Config.Company.ID, domain.InterviewStatus(status))
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(agenda)
				}
				renderAgendaTable("UPCOMING", agenda.Upcoming)
				renderAgendaTable("PAST", agenda.Past)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&candidate, "candidate", "", "list one candidate's interviews instead")
	return cmd
}

func renderAgendaTable(title string, items []domain.Interview) {
	fmt.Println(title)
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Date", "Start", "End", "Type", "Location", "Status", "Confirmed"})
	for _, iv := range items {
		tw.AppendRow(table.Row{iv.ID, iv.ScheduledDate, iv.StartTime, iv.EndTime, iv.InterviewType, iv.Location, iv.Status, iv.UserConfirmed})
	}
	tw.Render()
}

func apikeyCmd() *cobra.Command {
	c := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the active company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				raw := uuid.NewString()
				key := domain.APIKey{
					ID:        uuid.NewString(),
					CompanyID: e.Config.Company.ID,
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: nowUTC(),
				}
				if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				// The raw key is shown once and never stored.
				fmt.Printf("id: %s\nkey: %s\n", key.ID, raw)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "key name")
	c.AddCommand(create)
	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAPIKeys(ctx, e.Config.Company.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	})
	return c
}

func tokenCmd() *cobra.Command {
	var role, subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("HIRELINE_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("HIRELINE_JWT_SECRET is required")
			}
			token, err := server.IssueToken(secret, role, subject)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", server.RoleCompany, "company or candidate")
	cmd.Flags().StringVar(&subject, "subject", "", "company or candidate id")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func logCmd() *cobra.Command {
	c := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	var n int
	var entityKind, entityID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.ListEvents(ctx, repo.EventFilters{
					CompanyID:  e.Config.Company.ID,
					EntityKind: entityKind,
					EntityID:   entityID,
					Limit:      n,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind (application, interview)")
	tail.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	c.AddCommand(tail)
	return c
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveCompanyAndConfig(cmd.Context(), viper.GetString("company"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("HIRELINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("HIRELINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Hireline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveCompanyAndConfig(ctx, viper.GetString("company"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
