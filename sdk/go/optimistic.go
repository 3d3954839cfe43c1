package hirelinesdk

import (
	"context"
	"errors"
	"sync"
)

// ErrMutationInFlight is returned when an optimistic mutation is attempted on
// an entity that already has an unresolved one.
var ErrMutationInFlight = errors.New("mutation already in flight for entity")

// Notifier receives user-facing outcomes of optimistic mutations. A UI plugs
// its toast system in here.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Cache is the client-owned view state. The mutator is its only writer
// during a mutation; reads are safe from any goroutine.
type Cache struct {
	mu           sync.RWMutex
	applications []Application
	details      map[string]Application
	interviews   map[string]Interview
}

func NewCache() *Cache {
	return &Cache{
		details:    map[string]Application{},
		interviews: map[string]Interview{},
	}
}

// SetApplications replaces the list view, e.g. after a fresh fetch.
func (c *Cache) SetApplications(items []Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applications = append([]Application(nil), items...)
}

// Applications returns a copy of the list view.
func (c *Cache) Applications() []Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Application(nil), c.applications...)
}

// PutDetail stores the detail view of one application.
func (c *Cache) PutDetail(a Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[a.ID] = a
}

// Detail returns the detail view of one application.
func (c *Cache) Detail(id string) (Application, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.details[id]
	return a, ok
}

// PutInterview stores one interview.
func (c *Cache) PutInterview(iv Interview) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interviews[iv.ID] = iv
}

// Interview returns one cached interview.
func (c *Cache) Interview(id string) (Interview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	iv, ok := c.interviews[id]
	return iv, ok
}

// applicationSnapshot captures every view holding the application so a failed
// mutation restores them exactly.
type applicationSnapshot struct {
	list      []Application
	detail    Application
	hasDetail bool
}

func (c *Cache) snapshotApplication(id string) applicationSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := applicationSnapshot{list: append([]Application(nil), c.applications...)}
	snap.detail, snap.hasDetail = c.details[id]
	return snap
}

func (c *Cache) restoreApplication(id string, snap applicationSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applications = snap.list
	if snap.hasDetail {
		c.details[id] = snap.detail
	} else {
		delete(c.details, id)
	}
}

// applyApplication overwrites the application in both the list and detail
// views.
func (c *Cache) applyApplication(a Application) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.applications {
		if c.applications[i].ID == a.ID {
			// The list projection drops detail-only fields.
			entry := a
			entry.CandidateEmail = ""
			entry.CoverLetter = nil
			entry.ResumeURL = nil
			c.applications[i] = entry
			break
		}
	}
	if existing, ok := c.details[a.ID]; ok {
		merged := a
		if merged.CandidateEmail == "" {
			merged.CandidateEmail = existing.CandidateEmail
		}
		if merged.CoverLetter == nil {
			merged.CoverLetter = existing.CoverLetter
		}
		if merged.ResumeURL == nil {
			merged.ResumeURL = existing.ResumeURL
		}
		c.details[a.ID] = merged
	}
}

type interviewSnapshot struct {
	interview Interview
	cached    bool
}

func (c *Cache) snapshotInterview(id string) interviewSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	iv, ok := c.interviews[id]
	return interviewSnapshot{interview: iv, cached: ok}
}

func (c *Cache) restoreInterview(id string, snap interviewSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.cached {
		c.interviews[id] = snap.interview
	} else {
		delete(c.interviews, id)
	}
}

// remote is the server surface the mutator needs; *Client satisfies it.
type remote interface {
	SetApplicationStatus(ctx context.Context, id, status string) (Application, error)
	ConfirmInterview(ctx context.Context, id string) (Interview, error)
	RescheduleInterview(ctx context.Context, id string, slot SlotRequest) (Interview, error)
	CancelInterview(ctx context.Context, id string) (Interview, error)
	CompleteInterview(ctx context.Context, id string) (Interview, error)
}

// Mutator applies mutations to the cache immediately, then settles them
// against the server: the server result replaces the optimistic value on
// success, and the pre-mutation snapshot is restored on any failure. At most
// one mutation per entity may be unresolved at a time.
type Mutator struct {
	Remote   remote
	Cache    *Cache
	Notifier Notifier

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMutator(client *Client, cache *Cache, notifier Notifier) *Mutator {
	if cache == nil {
		cache = NewCache()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Mutator{
		Remote:   client,
		Cache:    cache,
		Notifier: notifier,
		inflight: map[string]struct{}{},
	}
}

// acquire takes the per-entity latch. The latch admits a mutation only when
// the previous one has settled; it never queues.
func (m *Mutator) acquire(key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight == nil {
		m.inflight = map[string]struct{}{}
	}
	if _, busy := m.inflight[key]; busy {
		return nil, ErrMutationInFlight
	}
	m.inflight[key] = struct{}{}
	return func() {
		m.mu.Lock()
		delete(m.inflight, key)
		m.mu.Unlock()
	}, nil
}

// SetApplicationStatus optimistically moves an application through the
// funnel.
func (m *Mutator) SetApplicationStatus(ctx context.Context, id, status string) (Application, error) {
	release, err := m.acquire("application:" + id)
	if err != nil {
		return Application{}, err
	}
	defer release()

	snap := m.Cache.snapshotApplication(id)
	optimistic := snap.detail
	if !snap.hasDetail {
		for _, a := range snap.list {
			if a.ID == id {
				optimistic = a
				break
			}
		}
	}
	optimistic.ID = id
	optimistic.Status = status
	m.Cache.applyApplication(optimistic)

	settled, err := m.Remote.SetApplicationStatus(ctx, id, status)
	if err != nil {
		m.Cache.restoreApplication(id, snap)
		m.Notifier.Error("could not update application status: " + err.Error())
		return Application{}, err
	}
	if settled.ID != id {
		// Response for a different entity; keep the snapshot state.
		m.Cache.restoreApplication(id, snap)
		m.Notifier.Error("could not update application status: mismatched response")
		return Application{}, errors.New("mismatched response entity")
	}
	m.Cache.applyApplication(settled)
	m.Notifier.Success("application moved to " + settled.Status)
	return settled, nil
}

// ConfirmInterview optimistically records the candidate confirmation.
func (m *Mutator) ConfirmInterview(ctx context.Context, id string) (Interview, error) {
	return m.mutateInterview(ctx, id, "interview confirmed",
		func(iv *Interview) {
			iv.Status = "confirmed"
			iv.UserConfirmed = true
		},
		func(ctx context.Context) (Interview, error) { return m.Remote.ConfirmInterview(ctx, id) })
}

// RescheduleInterview optimistically replaces the slot and resets the
// confirmation handshake.
func (m *Mutator) RescheduleInterview(ctx context.Context, id string, slot SlotRequest) (Interview, error) {
	return m.mutateInterview(ctx, id, "interview rescheduled",
		func(iv *Interview) {
			iv.ScheduledDate = slot.ScheduledDate
			iv.StartTime = slot.StartTime
			iv.EndTime = slot.EndTime
			iv.Location = slot.Location
			iv.MeetingLink = slot.MeetingLink
			iv.MeetingAddr = slot.MeetingAddress
			iv.Status = "rescheduled"
			iv.UserConfirmed = false
		},
		func(ctx context.Context) (Interview, error) { return m.Remote.RescheduleInterview(ctx, id, slot) })
}

// CancelInterview optimistically terminalizes the interview.
func (m *Mutator) CancelInterview(ctx context.Context, id string) (Interview, error) {
	return m.mutateInterview(ctx, id, "interview cancelled",
		func(iv *Interview) { iv.Status = "cancelled" },
		func(ctx context.Context) (Interview, error) { return m.Remote.CancelInterview(ctx, id) })
}

// CompleteInterview optimistically terminalizes the interview. The server
// still gates completion on the confirmation handshake and the end time, so
// premature calls roll back.
func (m *Mutator) CompleteInterview(ctx context.Context, id string) (Interview, error) {
	return m.mutateInterview(ctx, id, "interview completed",
		func(iv *Interview) { iv.Status = "completed" },
		func(ctx context.Context) (Interview, error) { return m.Remote.CompleteInterview(ctx, id) })
}

func (m *Mutator) mutateInterview(ctx context.Context, id, successMsg string, apply func(*Interview), call func(context.Context) (Interview, error)) (Interview, error) {
	release, err := m.acquire("interview:" + id)
	if err != nil {
		return Interview{}, err
	}
	defer release()

	snap := m.Cache.snapshotInterview(id)
	optimistic := snap.interview
	optimistic.ID = id
	apply(&optimistic)
	m.Cache.PutInterview(optimistic)

	settled, err := call(ctx)
	if err != nil {
		m.Cache.restoreInterview(id, snap)
		m.Notifier.Error("interview update failed: " + err.Error())
		return Interview{}, err
	}
	if settled.ID != id {
		m.Cache.restoreInterview(id, snap)
		m.Notifier.Error("interview update failed: mismatched response")
		return Interview{}, errors.New("mismatched response entity")
	}
	m.Cache.PutInterview(settled)
	m.Notifier.Success(successMsg)
	return settled, nil
}
