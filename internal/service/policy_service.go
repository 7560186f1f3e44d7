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
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// PolicyService manages tenant SLA policies and creates instances for
// newly opened tickets.
type PolicyService struct {
	policies   repository.PolicyRepository
	instances  repository.InstanceRepository
	tickets    repository.TicketRepository
	customers  repository.CustomerRepository
	calendar   *sla.Calendar
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PolicyDependencies bundles repositories and collaborators.
type PolicyDependencies struct {
	PolicyRepo   repository.PolicyRepository
	InstanceRepo repository.InstanceRepository
	TicketRepo   repository.TicketRepository
	CustomerRepo repository.CustomerRepository
	Calendar     *sla.Calendar
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewPolicyService creates the service.
func NewPolicyService(deps PolicyDependencies) *PolicyService {
	calendar := deps.Calendar
	if calendar == nil {
		calendar = sla.NewCalendar()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{
		policies:   deps.PolicyRepo,
		instances:  deps.InstanceRepo,
		tickets:    deps.TicketRepo,
		customers:  deps.CustomerRepo,
		calendar:   calendar,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreatePolicy validates and stores a new tenant policy.
func (s *PolicyService) CreatePolicy(ctx context.Context, tenantID string, policy *domain.SLAPolicy) (*domain.SLAPolicy, error) {
	policy.TenantID = tenantID
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// GetPolicy fetches a tenant policy by id.
func (s *PolicyService) GetPolicy(ctx context.Context, tenantID, id string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", map[string]any{"policy_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// UpdatePolicy overwrites the stored policy.
func (s *PolicyService) UpdatePolicy(ctx context.Context, tenantID string, policy *domain.SLAPolicy) (*domain.SLAPolicy, error) {
	policy.TenantID = tenantID
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}
	if err := s.policies.Update(ctx, policy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", map[string]any{"policy_id": policy.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetPolicy(ctx, tenantID, policy.ID)
}

// DeletePolicy removes a tenant policy.
func (s *PolicyService) DeletePolicy(ctx context.Context, tenantID, id string) error {
	if err := s.policies.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sla policy", map[string]any{"policy_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListPolicies lists tenant policies with pagination and priority filter.
func (s *PolicyService) ListPolicies(ctx context.Context, tenantID string, filter repository.PolicyFilter) ([]domain.SLAPolicy, error) {
	policies, err := s.policies.List(ctx, tenantID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// EnsureInstance resolves the applicable policy for a ticket and creates its
// SLA instance. When the tenant has no active policy the ticket simply has no
// SLA coverage: the result is (nil, nil), not an error.
func (s *PolicyService) EnsureInstance(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error) {
	ticket, err := s.tickets.GetByID(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	// Customer lookup only enriches condition matching; its absence is not
	// an error.
	var customer *domain.Customer
	if ticket.CustomerID != nil {
		customer, err = s.customers.GetByID(ctx, tenantID, *ticket.CustomerID)
		if err != nil {
			s.logger.Debug("customer lookup failed", zap.Error(err), zap.String("ticket_id", ticketID))
			customer = nil
		}
	}

	policies, err := s.policies.ListActive(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	policy := sla.MatchPolicy(ticket.Snapshot(customer), policies)
	if policy == nil {
		s.logger.Debug("no active sla policy for tenant; ticket has no coverage",
			zap.String("tenant_id", tenantID), zap.String("ticket_id", ticketID))
		return nil, nil
	}

	now := time.Now().UTC()
	instance := &domain.SLAInstance{
		TenantID: tenantID,
		PolicyID: policy.ID,
		TicketID: ticket.ID,
		Status:   domain.InstanceStatusActive,
		FirstResponseDue: s.calendar.DueAt(now,
			sla.Target{Time: policy.ResponseTimeMinutes, Unit: sla.UnitMinutes},
			policy.BusinessHours, policy.Holidays),
		ResolutionDue: s.calendar.DueAt(now,
			sla.Target{Time: policy.ResolutionTimeMinutes, Unit: sla.UnitMinutes},
			policy.BusinessHours, policy.Holidays),
	}
	if err := s.instances.Create(ctx, instance); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventSLAInstanceCreated, instance, events.SLAInstanceCreatedPayload{
		PolicyID:         policy.ID,
		FirstResponseDue: instance.FirstResponseDue,
		ResolutionDue:    instance.ResolutionDue,
	})
	return instance, nil
}

// GetInstanceForTicket returns the ticket's authoritative instance.
func (s *PolicyService) GetInstanceForTicket(ctx context.Context, tenantID, ticketID string) (*domain.SLAInstance, error) {
	instance, err := s.instances.GetLatestByTicket(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla instance", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return instance, nil
}

func (s *PolicyService) publish(ctx context.Context, eventType events.EventType, instance *domain.SLAInstance, payload any) {
	if s.dispatcher == nil {
		return
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

func validatePolicy(policy *domain.SLAPolicy) error {
	if policy.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if policy.ResponseTimeMinutes <= 0 || policy.ResolutionTimeMinutes <= 0 {
		return apperrors.NewValidationError("response and resolution targets must be positive minutes", nil)
	}
	for _, cond := range policy.Conditions {
		if cond.Field == "" || cond.Operator == "" {
			return apperrors.NewValidationError("condition field and operator required", nil)
		}
	}
	return nil
}
