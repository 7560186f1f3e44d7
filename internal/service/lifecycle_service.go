package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// LifecycleEvent names a ticket lifecycle milestone fed into the SLA
// instance state machine.
type LifecycleEvent string

const (
	EventFirstResponse LifecycleEvent = "first_response"
	EventResolution    LifecycleEvent = "resolution"
	EventPause         LifecycleEvent = "pause"
	EventResume        LifecycleEvent = "resume"
	EventCancel        LifecycleEvent = "cancel"
)

// maxApplyAttempts bounds retries when a concurrent writer (typically the
// breach scanner) wins the version check first.
const maxApplyAttempts = 3

// LifecycleService applies ticket lifecycle events to SLA instances.
type LifecycleService struct {
	instances  repository.InstanceRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewLifecycleService creates the service.
func NewLifecycleService(instances repository.InstanceRepository, dispatcher events.Dispatcher, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{instances: instances, dispatcher: dispatcher, logger: logger}
}

// ApplyByTicket resolves the ticket's current non-terminal instance and
// applies the event to it.
func (s *LifecycleService) ApplyByTicket(ctx context.Context, tenantID, ticketID string, event LifecycleEvent, at *time.Time) (*domain.SLAInstance, error) {
	return s.apply(ctx, event, at, func() (*domain.SLAInstance, error) {
		return s.instances.GetCurrentByTicket(ctx, tenantID, ticketID)
	})
}

// ApplyByInstance applies the event directly to the given instance.
func (s *LifecycleService) ApplyByInstance(ctx context.Context, tenantID, instanceID string, event LifecycleEvent, at *time.Time) (*domain.SLAInstance, error) {
	return s.apply(ctx, event, at, func() (*domain.SLAInstance, error) {
		return s.instances.GetByID(ctx, tenantID, instanceID)
	})
}

func (s *LifecycleService) apply(ctx context.Context, event LifecycleEvent, at *time.Time, load func() (*domain.SLAInstance, error)) (*domain.SLAInstance, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		instance, err := load()
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("sla instance", nil)
			}
			return nil, apperrors.MapError(err)
		}

		oldStatus := instance.Status
		eventType, changed, err := transition(instance, event, timestampOr(at))
		if err != nil {
			return nil, err
		}
		if !changed {
			return instance, nil
		}

		if err := s.instances.Update(ctx, instance); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				s.logger.Debug("lifecycle write lost version race; retrying",
					zap.String("instance_id", instance.ID),
					zap.String("event", string(event)))
				continue
			}
			return nil, apperrors.MapError(err)
		}

		if eventType != "" {
			s.publish(ctx, eventType, instance, oldStatus)
		}
		return instance, nil
	}
	return nil, apperrors.NewConflict("concurrent update on sla instance", nil)
}

// transition mutates the instance for the event. The returned event type is
// empty when no event should be published; changed is false when the event
// was an idempotent no-op.
func transition(instance *domain.SLAInstance, event LifecycleEvent, at time.Time) (events.EventType, bool, error) {
	switch event {
	case EventFirstResponse:
		// Once set, the milestone is never cleared; a repeat is harmless.
		if instance.FirstResponseAt != nil {
			return "", false, nil
		}
		instance.FirstResponseAt = &at
		return "", true, nil

	case EventResolution:
		if instance.ResolutionAt != nil && instance.Status == domain.InstanceStatusCompleted {
			return "", false, nil
		}
		if instance.ResolutionAt == nil {
			instance.ResolutionAt = &at
		}
		instance.Status = domain.InstanceStatusCompleted
		return events.EventSLACompleted, true, nil

	case EventPause:
		// A breached instance stays breached: resuming it would re-arm the
		// sweep and reset escalation, so only ACTIVE<->PAUSED may flip.
		if instance.Terminal() || instance.Status == domain.InstanceStatusBreached {
			return "", false, errInvalidState(instance, event)
		}
		if instance.Status == domain.InstanceStatusPaused {
			return "", false, nil
		}
		instance.Status = domain.InstanceStatusPaused
		instance.PausedAt = &at
		return events.EventSLAPaused, true, nil

	case EventResume:
		if instance.Terminal() || instance.Status == domain.InstanceStatusBreached {
			return "", false, errInvalidState(instance, event)
		}
		if instance.Status == domain.InstanceStatusActive {
			return "", false, nil
		}
		// Accumulated pause time is informational only; due timestamps are
		// not shifted.
		if instance.PausedAt != nil {
			instance.PausedMinutes += int(at.Sub(*instance.PausedAt).Minutes())
			instance.PausedAt = nil
		}
		instance.Status = domain.InstanceStatusActive
		return events.EventSLAResumed, true, nil

	case EventCancel:
		if instance.Status == domain.InstanceStatusCancelled {
			return "", false, nil
		}
		if instance.Status == domain.InstanceStatusCompleted {
			return "", false, errInvalidState(instance, event)
		}
		instance.Status = domain.InstanceStatusCancelled
		return events.EventSLACancelled, true, nil

	default:
		return "", false, apperrors.NewValidationError("unknown lifecycle event", map[string]any{"event": string(event)})
	}
}

func errInvalidState(instance *domain.SLAInstance, event LifecycleEvent) error {
	return apperrors.NewConflict("lifecycle event not allowed for instance status", map[string]any{
		"instance_id": instance.ID,
		"status":      string(instance.Status),
		"event":       string(event),
	})
}

func (s *LifecycleService) publish(ctx context.Context, eventType events.EventType, instance *domain.SLAInstance, oldStatus domain.InstanceStatus) {
	if s.dispatcher == nil {
		return
	}
	var payload any
	switch eventType {
	case events.EventSLACompleted:
		resolvedAt := time.Now()
		if instance.ResolutionAt != nil {
			resolvedAt = *instance.ResolutionAt
		}
		payload = events.SLACompletedPayload{ResolvedAt: resolvedAt}
	default:
		payload = events.SLAStatusChangedPayload{OldStatus: oldStatus, NewStatus: instance.Status}
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   instance.TenantID,
		TicketID:   instance.TicketID,
		InstanceID: instance.ID,
		Timestamp:  time.Now(),
		Payload:    payload,
	})
}

func timestampOr(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return time.Now().UTC()
}
