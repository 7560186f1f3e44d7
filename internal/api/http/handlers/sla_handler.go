package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/worker"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// SLAHandler serves the lifecycle event sink, the on-demand breach check and
// instance reads.
type SLAHandler struct {
	policies  *service.PolicyService
	lifecycle *service.LifecycleService
	scanner   *worker.BreachScanner
}

// NewSLAHandler constructs handler.
func NewSLAHandler(policies *service.PolicyService, lifecycle *service.LifecycleService, scanner *worker.BreachScanner) *SLAHandler {
	return &SLAHandler{policies: policies, lifecycle: lifecycle, scanner: scanner}
}

// PostEvent POST /sla/events.
func (h *SLAHandler) PostEvent(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	var req dto.LifecycleEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Type == "" {
		return apperrors.NewValidationError("type required", nil)
	}
	if req.TicketID == "" && req.InstanceID == "" {
		return apperrors.NewValidationError("ticket_id or instance_id required", nil)
	}

	event := service.LifecycleEvent(req.Type)
	var (
		instance *domain.SLAInstance
		err      error
	)
	if req.InstanceID != "" {
		instance, err = h.lifecycle.ApplyByInstance(c.Context(), tenantID, req.InstanceID, event, req.Timestamp)
	} else {
		instance, err = h.lifecycle.ApplyByTicket(c.Context(), tenantID, req.TicketID, event, req.Timestamp)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": instanceResponse(instance)})
}

// Check POST /sla/check. Idempotent; returns the caller's instances
// transitioned to BREACHED by this invocation. The sweep itself covers all
// tenants, but only the caller's slice of the result leaves the process.
func (h *SLAHandler) Check(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	transitioned, err := h.scanner.RunOnce(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.InstanceResponse, 0, len(transitioned))
	for i := range transitioned {
		if transitioned[i].TenantID != tenantID {
			continue
		}
		items = append(items, instanceResponse(&transitioned[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicketInstance GET /sla/tickets/:ticketId/instance.
func (h *SLAHandler) GetTicketInstance(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	instance, err := h.policies.GetInstanceForTicket(c.Context(), tenantID, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": instanceResponse(instance)})
}

// CreateTicketInstance POST /sla/tickets/:ticketId/instance.
func (h *SLAHandler) CreateTicketInstance(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	instance, err := h.policies.EnsureInstance(c.Context(), tenantID, c.Params("ticketId"))
	if err != nil {
		return err
	}
	if instance == nil {
		// No active policy for the tenant: the ticket has no SLA coverage.
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": instanceResponse(instance)})
}

func instanceResponse(instance *domain.SLAInstance) dto.InstanceResponse {
	return dto.InstanceResponse{
		ID:               instance.ID,
		PolicyID:         instance.PolicyID,
		TicketID:         instance.TicketID,
		Status:           instance.Status,
		FirstResponseDue: instance.FirstResponseDue,
		ResolutionDue:    instance.ResolutionDue,
		FirstResponseAt:  instance.FirstResponseAt,
		ResolutionAt:     instance.ResolutionAt,
		PausedMinutes:    instance.PausedMinutes,
		BreachCount:      instance.BreachCount,
		EscalationLevel:  instance.EscalationLevel,
		Notifications:    instance.Notifications,
		CreatedAt:        instance.CreatedAt,
		UpdatedAt:        instance.UpdatedAt,
	}
}
