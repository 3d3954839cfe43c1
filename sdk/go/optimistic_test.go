package hirelinesdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu sync.Mutex

	setStatus  func(id, status string) (Application, error)
	confirm    func(id string) (Interview, error)
	reschedule func(id string, slot SlotRequest) (Interview, error)
	cancel     func(id string) (Interview, error)
	complete   func(id string) (Interview, error)

	calls []string
}

func (f *fakeRemote) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeRemote) SetApplicationStatus(_ context.Context, id, status string) (Application, error) {
	f.record("setStatus")
	return f.setStatus(id, status)
}

func (f *fakeRemote) ConfirmInterview(_ context.Context, id string) (Interview, error) {
	f.record("confirm")
	return f.confirm(id)
}

func (f *fakeRemote) RescheduleInterview(_ context.Context, id string, slot SlotRequest) (Interview, error) {
	f.record("reschedule")
	return f.reschedule(id, slot)
}

func (f *fakeRemote) CancelInterview(_ context.Context, id string) (Interview, error) {
	f.record("cancel")
	return f.cancel(id)
}

func (f *fakeRemote) CompleteInterview(_ context.Context, id string) (Interview, error) {
	f.record("complete")
	return f.complete(id)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	n.successes = append(n.successes, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

func newMutatorWith(remote *fakeRemote) (*Mutator, *Cache, *recordingNotifier) {
	cache := NewCache()
	notifier := &recordingNotifier{}
	m := NewMutator(nil, cache, notifier)
	m.Remote = remote
	return m, cache, notifier
}

func sampleApplication() Application {
	letter := "Dear team"
	return Application{
		ID:             "app-1",
		JobID:          "job-go",
		CompanyID:      "acme",
		CandidateID:    "cand-ada",
		Status:         "shortlisted",
		SubmittedAt:    "2026-02-01T10:00:00Z",
		UpdatedAt:      "2026-02-02T10:00:00Z",
		CandidateName:  "Ada Lovelace",
		JobTitle:       "Go Engineer",
		CandidateEmail: "ada@example.com",
		CoverLetter:    &letter,
	}
}

func sampleInterview() Interview {
	link := "https://meet.example.com/x"
	return Interview{
		ID:            "iv-1",
		ApplicationID: "app-1",
		JobID:         "job-go",
		CompanyID:     "acme",
		CandidateID:   "cand-ada",
		ScheduledDate: "2026-03-02",
		StartTime:     "14:00",
		EndTime:       "15:00",
		Location:      "online",
		MeetingLink:   &link,
		InterviewType: "technical",
		Status:        "scheduled",
	}
}

func TestSetStatusCommitsServerValue(t *testing.T) {
	remote := &fakeRemote{
		setStatus: func(id, status string) (Application, error) {
			a := sampleApplication()
			a.Status = status
			a.UpdatedAt = "2026-02-03T10:00:00Z"
			return a, nil
		},
	}
	m, cache, notifier := newMutatorWith(remote)
	cache.SetApplications([]Application{sampleApplication()})
	cache.PutDetail(sampleApplication())

	settled, err := m.SetApplicationStatus(context.Background(), "app-1", "interviewing")
	require.NoError(t, err)
	assert.Equal(t, "interviewing", settled.Status)

	list := cache.Applications()
	require.Len(t, list, 1)
	assert.Equal(t, "interviewing", list[0].Status)
	assert.Equal(t, "2026-02-03T10:00:00Z", list[0].UpdatedAt)

	detail, ok := cache.Detail("app-1")
	require.True(t, ok)
	assert.Equal(t, "interviewing", detail.Status)
	assert.Equal(t, "ada@example.com", detail.CandidateEmail)
	require.Len(t, notifier.successes, 1)
	assert.Empty(t, notifier.errors)
}

func TestSetStatusRollsBackOnDenial(t *testing.T) {
	remote := &fakeRemote{
		setStatus: func(id, status string) (Application, error) {
			return Application{}, &APIError{StatusCode: http.StatusUnprocessableEntity, Message: "application is terminal"}
		},
	}
	m, cache, notifier := newMutatorWith(remote)
	before := sampleApplication()
	before.Status = "hired"
	cache.SetApplications([]Application{before})
	cache.PutDetail(before)

	_, err := m.SetApplicationStatus(context.Background(), "app-1", "pending")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Denied())

	// rollback restores both views exactly
	list := cache.Applications()
	require.Len(t, list, 1)
	assert.Equal(t, before, list[0])
	detail, ok := cache.Detail("app-1")
	require.True(t, ok)
	assert.Equal(t, before, detail)
	require.Len(t, notifier.errors, 1)
	assert.Empty(t, notifier.successes)
}

func TestSetStatusRollsBackOnNetworkError(t *testing.T) {
	remote := &fakeRemote{
		setStatus: func(id, status string) (Application, error) {
			return Application{}, errors.New("connection refused")
		},
	}
	m, cache, _ := newMutatorWith(remote)
	before := sampleApplication()
	cache.SetApplications([]Application{before})

	_, err := m.SetApplicationStatus(context.Background(), "app-1", "interviewing")
	require.Error(t, err)
	list := cache.Applications()
	require.Len(t, list, 1)
	assert.Equal(t, before, list[0])
}

func TestMismatchedResponseDiscarded(t *testing.T) {
	remote := &fakeRemote{
		setStatus: func(id, status string) (Application, error) {
			other := sampleApplication()
			other.ID = "app-2"
			return other, nil
		},
	}
	m, cache, _ := newMutatorWith(remote)
	before := sampleApplication()
	cache.SetApplications([]Application{before})

	_, err := m.SetApplicationStatus(context.Background(), "app-1", "interviewing")
	require.Error(t, err)
	list := cache.Applications()
	require.Len(t, list, 1)
	assert.Equal(t, before, list[0])
}

func TestInFlightLatch(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	firstCall := true
	remote := &fakeRemote{
		setStatus: func(id, status string) (Application, error) {
			if firstCall {
				firstCall = false
				close(started)
				<-unblock
			}
			a := sampleApplication()
			a.Status = status
			return a, nil
		},
		cancel: func(id string) (Interview, error) {
			iv := sampleInterview()
			iv.ID = id
			iv.Status = "cancelled"
			return iv, nil
		},
	}
	m, cache, _ := newMutatorWith(remote)
	cache.SetApplications([]Application{sampleApplication()})

	done := make(chan error, 1)
	go func() {
		_, err := m.SetApplicationStatus(context.Background(), "app-1", "interviewing")
		done <- err
	}()
	<-started

	// the second mutation on the same entity is refused, not queued
	_, err := m.SetApplicationStatus(context.Background(), "app-1", "rejected")
	assert.ErrorIs(t, err, ErrMutationInFlight)

	// other entities are unaffected
	_, err = m.CancelInterview(context.Background(), "iv-9")
	assert.NotErrorIs(t, err, ErrMutationInFlight)

	close(unblock)
	require.NoError(t, <-done)

	// settled entities admit new mutations
	_, err = m.SetApplicationStatus(context.Background(), "app-1", "rejected")
	require.NoError(t, err)
}

func TestConfirmOptimisticThenSettle(t *testing.T) {
	remote := &fakeRemote{
		confirm: func(id string) (Interview, error) {
			iv := sampleInterview()
			iv.Status = "confirmed"
			iv.UserConfirmed = true
			iv.UpdatedAt = "2026-03-01T09:00:00Z"
			return iv, nil
		},
	}
	m, cache, _ := newMutatorWith(remote)
	cache.PutInterview(sampleInterview())

	settled, err := m.ConfirmInterview(context.Background(), "iv-1")
	require.NoError(t, err)
	assert.True(t, settled.UserConfirmed)

	got, ok := cache.Interview("iv-1")
	require.True(t, ok)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, "2026-03-01T09:00:00Z", got.UpdatedAt)
}

func TestCompleteRollsBackWhenRefused(t *testing.T) {
	remote := &fakeRemote{
		complete: func(id string) (Interview, error) {
			return Interview{}, &APIError{StatusCode: http.StatusUnprocessableEntity, Message: "interview has not ended yet"}
		},
	}
	m, cache, notifier := newMutatorWith(remote)
	before := sampleInterview()
	before.Status = "confirmed"
	before.UserConfirmed = true
	cache.PutInterview(before)

	_, err := m.CompleteInterview(context.Background(), "iv-1")
	require.Error(t, err)

	got, ok := cache.Interview("iv-1")
	require.True(t, ok)
	assert.Equal(t, before, got)
	require.Len(t, notifier.errors, 1)
}

func TestRescheduleAppliesAndResetsHandshake(t *testing.T) {
	var sent SlotRequest
	remote := &fakeRemote{
		reschedule: func(id string, slot SlotRequest) (Interview, error) {
			sent = slot
			iv := sampleInterview()
			iv.ScheduledDate = slot.ScheduledDate
			iv.StartTime = slot.StartTime
			iv.EndTime = slot.EndTime
			iv.Location = slot.Location
			iv.MeetingLink = slot.MeetingLink
			iv.Status = "rescheduled"
			iv.UserConfirmed = false
			return iv, nil
		},
	}
	m, cache, _ := newMutatorWith(remote)
	before := sampleInterview()
	before.Status = "confirmed"
	before.UserConfirmed = true
	cache.PutInterview(before)

	link := "https://meet.example.com/y"
	slot := SlotRequest{
		ScheduledDate: "2026-03-05",
		StartTime:     "10:00",
		EndTime:       "11:00",
		Location:      "online",
		MeetingLink:   &link,
	}
	settled, err := m.RescheduleInterview(context.Background(), "iv-1", slot)
	require.NoError(t, err)
	assert.Equal(t, slot, sent)
	assert.Equal(t, "rescheduled", settled.Status)
	assert.False(t, settled.UserConfirmed)

	got, _ := cache.Interview("iv-1")
	assert.Equal(t, "2026-03-05", got.ScheduledDate)
	assert.False(t, got.UserConfirmed)
}

func TestMutatorWorksWithoutCachedEntity(t *testing.T) {
	remote := &fakeRemote{
		cancel: func(id string) (Interview, error) {
			iv := sampleInterview()
			iv.ID = id
			iv.Status = "cancelled"
			return iv, nil
		},
	}
	m, cache, _ := newMutatorWith(remote)

	settled, err := m.CancelInterview(context.Background(), "iv-1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", settled.Status)
	got, ok := cache.Interview("iv-1")
	require.True(t, ok)
	assert.Equal(t, settled, got)
}
