package research

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"govcon/research/internal/models"
	"govcon/research/internal/repositories"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var serviceNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeSolicitations map[string]models.Solicitation

func (f fakeSolicitations) GetByID(_ context.Context, id string) (models.Solicitation, error) {
	s, ok := f[id]
	if !ok {
		return models.Solicitation{}, repositories.ErrNotFound
	}
	return s, nil
}

// memoryJobs mirrors the guarded transitions of the postgres job store.
type memoryJobs struct {
	mu   sync.Mutex
	jobs []models.ResearchJob
}

func (m *memoryJobs) Start(_ context.Context, job models.ResearchJob) (models.ResearchJob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.SolicitationID == job.SolicitationID && j.Status.Active() {
			return j, false, nil
		}
	}
	m.jobs = append(m.jobs, job)
	return job, true, nil
}

func (m *memoryJobs) Latest(_ context.Context, solicitationID string) (models.ResearchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].SolicitationID == solicitationID {
			return m.jobs[i], nil
		}
	}
	return models.ResearchJob{}, repositories.ErrNotFound
}

func (m *memoryJobs) update(id string, from []models.JobStatus, apply func(*models.ResearchJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID != id {
			continue
		}
		for _, s := range from {
			if m.jobs[i].Status == s {
				apply(&m.jobs[i])
				return nil
			}
		}
	}
	return repositories.ErrNotFound
}

func (m *memoryJobs) MarkRunning(_ context.Context, id string, at time.Time) error {
	return m.update(id, []models.JobStatus{models.JobPending}, func(j *models.ResearchJob) {
		j.Status = models.JobRunning
		j.StartedAt = &at
	})
}

func (m *memoryJobs) Complete(_ context.Context, id string, result models.ResearchResult, at time.Time) error {
	return m.update(id, []models.JobStatus{models.JobPending, models.JobRunning}, func(j *models.ResearchJob) {
		j.Status = models.JobCompleted
		j.Result = &result
		j.FinishedAt = &at
	})
}

func (m *memoryJobs) Fail(_ context.Context, id, reason string, at time.Time) error {
	return m.update(id, []models.JobStatus{models.JobPending, models.JobRunning}, func(j *models.ResearchJob) {
		j.Status = models.JobFailed
		j.Error = reason
		j.FinishedAt = &at
	})
}

func (m *memoryJobs) FailStale(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.jobs {
		if m.jobs[i].Status.Active() && m.jobs[i].CreatedAt.Before(cutoff) {
			m.jobs[i].Status = models.JobFailed
			m.jobs[i].Error = reason
			n++
		}
	}
	return n, nil
}

type fakeRunner struct {
	release chan struct{}
	err     error
	panic   bool
}

func (f *fakeRunner) Run(ctx context.Context, sol models.Solicitation) (models.ResearchResult, error) {
	if f.release != nil {
		<-f.release
	}
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return models.ResearchResult{}, f.err
	}
	return models.ResearchResult{SolicitationID: sol.ID, Status: "completed", Currency: "USD"}, nil
}

func (f *fakeRunner) Quote(result models.ResearchResult) models.Quote {
	return models.Quote{ID: "quote-1", SolicitationID: result.SolicitationID}
}

func newTestService(t *testing.T, runner *fakeRunner) (*Service, *memoryJobs) {
	t.Helper()
	jobs := &memoryJobs{}
	ids := 0
	svc := NewService(fakeSolicitations{"RFQ-1": {ID: "RFQ-1", Title: "Servers"}}, jobs, runner, ServiceConfig{
		StaleAfter: 30 * time.Minute,
		Now:        func() time.Time { return serviceNow },
		NewID: func() string {
			ids++
			return fmt.Sprintf("job-%d", ids)
		},
	}, zaptest.NewLogger(t))
	return svc, jobs
}

func TestStart_RunsToCompletion(t *testing.T) {
	svc, _ := newTestService(t, &fakeRunner{})
	ctx := context.Background()

	_, err := svc.Latest(ctx, "RFQ-1")
	require.ErrorIs(t, err, ErrResearchNotFound)

	job, err := svc.Start(ctx, "1", "RFQ-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.JobPending, job.Status)
	svc.Wait()

	got, err := svc.Latest(ctx, "RFQ-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "RFQ-1", got.Result.SolicitationID)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, "quote-1", svc.Quote(*got.Result).ID)
}

func TestStart_ReturnsActiveJob(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	svc, _ := newTestService(t, runner)
	ctx := context.Background()

	first, err := svc.Start(ctx, "1", "RFQ-1")
	require.NoError(t, err)
	second, err := svc.Start(ctx, "2", "RFQ-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	close(runner.release)
	svc.Wait()

	third, err := svc.Start(ctx, "1", "RFQ-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	svc.Wait()
}

func TestStart_SurvivesCancelledRequest(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	svc, _ := newTestService(t, runner)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := svc.Start(ctx, "1", "RFQ-1")
	require.NoError(t, err)
	cancel()
	close(runner.release)
	svc.Wait()

	got, err := svc.Latest(context.Background(), "RFQ-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
}

func TestStart_UnknownSolicitation(t *testing.T) {
	svc, jobs := newTestService(t, &fakeRunner{})

	_, err := svc.Start(context.Background(), "1", "missing")

	assert.ErrorIs(t, err, ErrSolicitationNotFound)
	assert.Empty(t, jobs.jobs)
}

func TestStart_FailuresMarkJobFailed(t *testing.T) {
	cases := []struct {
		name   string
		runner *fakeRunner
		reason string
	}{
		{"error", &fakeRunner{err: errors.New("failed to source candidates: boom")}, "failed to source candidates: boom"},
		{"panic", &fakeRunner{panic: true}, "research panicked: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t, tc.runner)

			_, err := svc.Start(context.Background(), "1", "RFQ-1")
			require.NoError(t, err)
			svc.Wait()

			got, err := svc.Latest(context.Background(), "RFQ-1")
			require.NoError(t, err)
			assert.Equal(t, models.JobFailed, got.Status)
			assert.Equal(t, tc.reason, got.Error)
			assert.Nil(t, got.Result)
		})
	}
}

func TestReapStale(t *testing.T) {
	svc, jobs := newTestService(t, &fakeRunner{})
	jobs.jobs = []models.ResearchJob{
		{ID: "old", SolicitationID: "RFQ-1", Status: models.JobRunning, CreatedAt: serviceNow.Add(-time.Hour)},
		{ID: "fresh", SolicitationID: "RFQ-2", Status: models.JobRunning, CreatedAt: serviceNow.Add(-time.Minute)},
		{ID: "done", SolicitationID: "RFQ-3", Status: models.JobCompleted, CreatedAt: serviceNow.Add(-time.Hour)},
	}

	n, err := svc.ReapStale(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.JobFailed, jobs.jobs[0].Status)
	assert.Equal(t, staleReason, jobs.jobs[0].Error)
	assert.Equal(t, models.JobRunning, jobs.jobs[1].Status)
	assert.Equal(t, models.JobCompleted, jobs.jobs[2].Status)
}

func TestNewReaper(t *testing.T) {
	svc, _ := newTestService(t, &fakeRunner{})

	_, err := NewReaper(svc, "not a schedule")
	assert.Error(t, err)

	r, err := NewReaper(svc, "@every 5m")
	require.NoError(t, err)
	r.Start()
	r.Stop()
}
