package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// fakeInstanceRepo holds a single instance and can simulate optimistic
// concurrency losses.
type fakeInstanceRepo struct {
	instance  *domain.SLAInstance
	conflicts int
	updates   int
}

func (f *fakeInstanceRepo) Create(_ context.Context, instance *domain.SLAInstance) error {
	clone := *instance
	clone.Version = 1
	f.instance = &clone
	instance.Version = 1
	return nil
}

func (f *fakeInstanceRepo) Update(_ context.Context, instance *domain.SLAInstance) error {
	if f.instance == nil {
		return pgx.ErrNoRows
	}
	if f.conflicts > 0 {
		f.conflicts--
		// A concurrent writer got there first.
		f.instance.Version++
		return repository.ErrVersionConflict
	}
	if instance.Version != f.instance.Version {
		return repository.ErrVersionConflict
	}
	f.updates++
	clone := *instance
	clone.Version++
	f.instance = &clone
	instance.Version = clone.Version
	return nil
}

func (f *fakeInstanceRepo) GetByID(_ context.Context, _, id string) (*domain.SLAInstance, error) {
	if f.instance == nil || f.instance.ID != id {
		return nil, pgx.ErrNoRows
	}
	clone := *f.instance
	return &clone, nil
}

func (f *fakeInstanceRepo) GetCurrentByTicket(_ context.Context, _, ticketID string) (*domain.SLAInstance, error) {
	if f.instance == nil || f.instance.TicketID != ticketID || f.instance.Terminal() {
		return nil, pgx.ErrNoRows
	}
	clone := *f.instance
	return &clone, nil
}

func (f *fakeInstanceRepo) GetLatestByTicket(_ context.Context, _, ticketID string) (*domain.SLAInstance, error) {
	if f.instance == nil || f.instance.TicketID != ticketID {
		return nil, pgx.ErrNoRows
	}
	clone := *f.instance
	return &clone, nil
}

func (f *fakeInstanceRepo) ListOverdue(_ context.Context, now time.Time, _ int) ([]domain.SLAInstance, error) {
	if f.instance == nil || f.instance.Status != domain.InstanceStatusActive {
		return nil, nil
	}
	if len(f.instance.OverdueBreaches(now)) == 0 {
		return nil, nil
	}
	return []domain.SLAInstance{*f.instance}, nil
}

type capturingDispatcher struct {
	published []events.Event
}

func (c *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	c.published = append(c.published, event)
	return nil
}

func (c *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func activeInstance() *domain.SLAInstance {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &domain.SLAInstance{
		ID:               "inst-1",
		TenantID:         "t1",
		PolicyID:         "pol-1",
		TicketID:         "tick-1",
		Status:           domain.InstanceStatusActive,
		FirstResponseDue: now.Add(30 * time.Minute),
		ResolutionDue:    now.Add(2 * time.Hour),
		Version:          1,
	}
}

func newLifecycleFixture(instance *domain.SLAInstance) (*LifecycleService, *fakeInstanceRepo, *capturingDispatcher) {
	repo := &fakeInstanceRepo{instance: instance}
	dispatcher := &capturingDispatcher{}
	return NewLifecycleService(repo, dispatcher, nil), repo, dispatcher
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de.Code
}

func TestFirstResponseSetsOnce(t *testing.T) {
	svc, repo, dispatcher := newLifecycleFixture(activeInstance())
	at := time.Date(2026, 3, 10, 9, 10, 0, 0, time.UTC)

	updated, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventFirstResponse, &at)
	require.NoError(t, err)
	require.NotNil(t, updated.FirstResponseAt)
	assert.Equal(t, at, *updated.FirstResponseAt)
	assert.Equal(t, domain.InstanceStatusActive, updated.Status)
	assert.Equal(t, 1, repo.updates)

	// A repeated milestone is a no-op and keeps the original timestamp.
	later := at.Add(time.Hour)
	again, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventFirstResponse, &later)
	require.NoError(t, err)
	assert.Equal(t, at, *again.FirstResponseAt)
	assert.Equal(t, 1, repo.updates)
	assert.Empty(t, dispatcher.published)
}

func TestResolutionCompletesInstance(t *testing.T) {
	svc, repo, dispatcher := newLifecycleFixture(activeInstance())
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	updated, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", EventResolution, &at)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceStatusCompleted, updated.Status)
	require.NotNil(t, updated.ResolutionAt)
	assert.Equal(t, at, *updated.ResolutionAt)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventSLACompleted, dispatcher.published[0].Type)

	// Re-resolving a completed instance changes nothing.
	again, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", EventResolution, &at)
	require.NoError(t, err)
	assert.Equal(t, at, *again.ResolutionAt)
	assert.Equal(t, 1, repo.updates)
	assert.Len(t, dispatcher.published, 1)
}

func TestPauseResumeAccumulatesMinutes(t *testing.T) {
	svc, _, dispatcher := newLifecycleFixture(activeInstance())
	pausedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	resumedAt := pausedAt.Add(45 * time.Minute)

	paused, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventPause, &pausedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceStatusPaused, paused.Status)
	require.NotNil(t, paused.PausedAt)

	resumed, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventResume, &resumedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceStatusActive, resumed.Status)
	assert.Nil(t, resumed.PausedAt)
	assert.Equal(t, 45, resumed.PausedMinutes)

	require.Len(t, dispatcher.published, 2)
	assert.Equal(t, events.EventSLAPaused, dispatcher.published[0].Type)
	assert.Equal(t, events.EventSLAResumed, dispatcher.published[1].Type)

	pausedPayload, ok := dispatcher.published[0].Payload.(events.SLAStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.InstanceStatusActive, pausedPayload.OldStatus)
	assert.Equal(t, domain.InstanceStatusPaused, pausedPayload.NewStatus)

	resumedPayload, ok := dispatcher.published[1].Payload.(events.SLAStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.InstanceStatusPaused, resumedPayload.OldStatus)
	assert.Equal(t, domain.InstanceStatusActive, resumedPayload.NewStatus)
}

func TestPauseResumeRejectedWhileBreached(t *testing.T) {
	for _, event := range []LifecycleEvent{EventPause, EventResume} {
		t.Run(string(event), func(t *testing.T) {
			instance := activeInstance()
			instance.Status = domain.InstanceStatusBreached
			svc, repo, _ := newLifecycleFixture(instance)

			_, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", event, nil)
			require.Error(t, err)
			assert.Equal(t, "CONFLICT", domainCode(t, err))
			assert.Equal(t, 0, repo.updates)
			assert.Equal(t, domain.InstanceStatusBreached, repo.instance.Status)
		})
	}
}

func TestResolutionAllowedWhileBreached(t *testing.T) {
	instance := activeInstance()
	instance.Status = domain.InstanceStatusBreached
	svc, _, _ := newLifecycleFixture(instance)
	at := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	resolved, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", EventResolution, &at)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceStatusCompleted, resolved.Status)
}

func TestPauseIsIdempotent(t *testing.T) {
	svc, repo, _ := newLifecycleFixture(activeInstance())
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventPause, &at)
	require.NoError(t, err)

	later := at.Add(10 * time.Minute)
	paused, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventPause, &later)
	require.NoError(t, err)
	assert.Equal(t, at, *paused.PausedAt)
	assert.Equal(t, 1, repo.updates)
}

func TestCancelAfterCompletionConflicts(t *testing.T) {
	instance := activeInstance()
	instance.Status = domain.InstanceStatusCompleted
	svc, _, _ := newLifecycleFixture(instance)

	_, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", EventCancel, nil)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestPauseOnTerminalInstanceConflicts(t *testing.T) {
	instance := activeInstance()
	instance.Status = domain.InstanceStatusCancelled
	svc, _, _ := newLifecycleFixture(instance)

	_, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", EventPause, nil)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestUnknownEventRejected(t *testing.T) {
	svc, _, _ := newLifecycleFixture(activeInstance())

	_, err := svc.ApplyByInstance(context.Background(), "t1", "inst-1", LifecycleEvent("reopened"), nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestApplyRetriesOnVersionConflict(t *testing.T) {
	repo := &fakeInstanceRepo{instance: activeInstance(), conflicts: 1}
	svc := NewLifecycleService(repo, &capturingDispatcher{}, nil)
	at := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)

	updated, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventFirstResponse, &at)
	require.NoError(t, err)
	require.NotNil(t, updated.FirstResponseAt)
	assert.Equal(t, 1, repo.updates)
}

func TestApplyGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := &fakeInstanceRepo{instance: activeInstance(), conflicts: maxApplyAttempts}
	svc := NewLifecycleService(repo, &capturingDispatcher{}, nil)

	_, err := svc.ApplyByTicket(context.Background(), "t1", "tick-1", EventResolution, nil)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
	assert.Equal(t, 0, repo.updates)
}

func TestApplyUnknownInstanceNotFound(t *testing.T) {
	svc, _, _ := newLifecycleFixture(nil)

	_, err := svc.ApplyByInstance(context.Background(), "t1", "missing", EventPause, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}
