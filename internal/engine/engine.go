// Package engine owns the application pipeline and the interview scheduler.
// Every mutation runs in one transaction together with its audit event, and
// every transition is checked against the pure guards before any write.
package engine

import (
	"database/sql"
	"time"

	"hireline/internal/config"
	"hireline/internal/events"
	"hireline/internal/guard"
	"hireline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// NowUTC is the engine clock as an RFC3339 timestamp.
func (e Engine) NowUTC() string {
	return e.now().UTC().Format(time.RFC3339)
}

// location resolves the configured scheduling timezone; interview dates and
// wall-clock times are interpreted in it.
func (e Engine) location() *time.Location {
	if e.Config != nil {
		if loc, err := e.Config.Location(); err == nil {
			return loc
		}
	}
	return time.Local
}

func (e Engine) funnelMode() guard.FunnelMode {
	if e.Config != nil && e.Config.Pipeline.Funnel == string(guard.FunnelStrict) {
		return guard.FunnelStrict
	}
	return guard.FunnelFree
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
