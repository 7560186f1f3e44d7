package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// Clock supplies the current instant; injected so tests can advance virtual
// time.
type Clock func() time.Time

// BreachScanner periodically transitions overdue ACTIVE instances to
// BREACHED. A single scanner runs per process and covers all tenants.
type BreachScanner struct {
	instances  repository.InstanceRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	batchLimit int
	clock      Clock

	// Non-reentrant guard: a sweep outliving the tick period must not
	// overlap the next one.
	busy atomic.Bool
}

// ScannerDependencies bundles scanner collaborators.
type ScannerDependencies struct {
	InstanceRepo repository.InstanceRepository
	TicketRepo   repository.TicketRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Interval     time.Duration
	BatchLimit   int
	Clock        Clock
}

// NewBreachScanner creates the scanner.
func NewBreachScanner(deps ScannerDependencies) *BreachScanner {
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreachScanner{
		instances:  deps.InstanceRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		interval:   interval,
		batchLimit: deps.BatchLimit,
		clock:      clock,
	}
}

// Start runs the periodic sweep until the context is cancelled.
func (s *BreachScanner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("breach scanner started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("breach scanner stopped")
				return
			case <-ticker.C:
				// The sweep is idempotent with respect to "now"; a failed
				// tick is simply retried on the next one.
				_, _ = s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs a single sweep and returns the instances transitioned to
// BREACHED in this invocation. Safe to invoke on demand; a sweep already in
// flight makes it a no-op.
func (s *BreachScanner) RunOnce(ctx context.Context) ([]domain.SLAInstance, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("sweep already in progress; skipping")
		return nil, nil
	}
	defer s.busy.Store(false)

	now := s.clock()
	if s.metrics != nil {
		s.metrics.SweepsTotal.Inc()
	}

	overdue, err := s.instances.ListOverdue(ctx, now, s.batchLimit)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SweepFailures.Inc()
		}
		s.logger.Error("overdue query failed; aborting sweep", zap.Error(err))
		return nil, err
	}

	var transitioned []domain.SLAInstance
	for i := range overdue {
		instance := overdue[i]
		breaches := instance.OverdueBreaches(now)
		if len(breaches) == 0 {
			continue
		}

		instance.EscalationLevel++
		instance.BreachCount += len(breaches)
		instance.Status = domain.InstanceStatusBreached
		instance.Notifications = append(instance.Notifications, domain.BreachRecord{
			Timestamp:   now,
			Breaches:    breaches,
			EscalatedTo: instance.EscalationLevel,
		})

		if err := s.instances.Update(ctx, &instance); err != nil {
			switch {
			case errors.Is(err, repository.ErrVersionConflict):
				// A lifecycle event won the race; the instance is
				// re-evaluated next tick if still overdue.
				s.logger.Debug("breach write lost version race",
					zap.String("instance_id", instance.ID))
			case errors.Is(err, pgx.ErrNoRows):
				s.logger.Debug("instance vanished mid-sweep",
					zap.String("instance_id", instance.ID))
			default:
				s.logger.Error("breach transition failed",
					zap.Error(err), zap.String("instance_id", instance.ID))
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.BreachesTotal.Inc()
		}
		s.logger.Info("sla instance breached",
			zap.String("tenant_id", instance.TenantID),
			zap.String("ticket_id", instance.TicketID),
			zap.Int("escalation_level", instance.EscalationLevel),
			zap.Int("breach_count", instance.BreachCount))

		transitioned = append(transitioned, instance)
		s.publishBreach(ctx, instance, breaches)
	}
	return transitioned, nil
}

// publishBreach emits the breach event for the notifier and broadcaster.
// Everything here is fire-and-forget relative to the committed transition.
func (s *BreachScanner) publishBreach(ctx context.Context, instance domain.SLAInstance, breaches []domain.BreachKind) {
	if s.dispatcher == nil {
		return
	}

	var assignee *string
	ticket, err := s.tickets.GetByID(ctx, instance.TenantID, instance.TicketID)
	if err != nil {
		s.logger.Debug("ticket lookup for breach event failed",
			zap.Error(err), zap.String("ticket_id", instance.TicketID))
	} else {
		assignee = ticket.AssigneeAgentID
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventSLABreached,
		TenantID:   instance.TenantID,
		TicketID:   instance.TicketID,
		InstanceID: instance.ID,
		Timestamp:  s.clock(),
		Payload: events.SLABreachedPayload{
			Breaches:        breaches,
			EscalationLevel: instance.EscalationLevel,
			BreachCount:     instance.BreachCount,
			AssigneeAgentID: assignee,
		},
	})
}
