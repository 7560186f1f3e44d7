package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// PoliciesHandler manages tenant SLA policy endpoints.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// Create POST /sla/policies.
func (h *PoliciesHandler) Create(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	policy := policyFromRequest(&req)
	created, err := h.service.CreatePolicy(c.Context(), tenantID, policy)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": policyResponse(created)})
}

// List GET /sla/policies.
func (h *PoliciesHandler) List(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	filter := parsePolicyQuery(c)
	policies, err := h.service.ListPolicies(c.Context(), tenantID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, policyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /sla/policies/:id.
func (h *PoliciesHandler) Get(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	policy, err := h.service.GetPolicy(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(policy)})
}

// Update PUT /sla/policies/:id.
func (h *PoliciesHandler) Update(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	policy := policyFromRequest(&req)
	policy.ID = c.Params("id")
	updated, err := h.service.UpdatePolicy(c.Context(), tenantID, policy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(updated)})
}

// Delete DELETE /sla/policies/:id.
func (h *PoliciesHandler) Delete(c *fiber.Ctx) error {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant required")
	}
	if err := h.service.DeletePolicy(c.Context(), tenantID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parsePolicyQuery(c *fiber.Ctx) repository.PolicyFilter {
	filter := repository.PolicyFilter{}
	if priority := c.Query("priority"); priority != "" {
		filter.Priority = &priority
	}
	if active := c.Query("is_active"); active != "" {
		if parsed, err := strconv.ParseBool(active); err == nil {
			filter.IsActive = &parsed
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func policyFromRequest(req *dto.PolicyRequest) *domain.SLAPolicy {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return &domain.SLAPolicy{
		Name:                  req.Name,
		Priority:              req.Priority,
		Conditions:            req.Conditions,
		ResponseTimeMinutes:   req.ResponseTimeMinutes,
		ResolutionTimeMinutes: req.ResolutionTimeMinutes,
		BusinessHours:         req.BusinessHours,
		Holidays:              req.Holidays,
		EscalationRules:       req.EscalationRules,
		Notifications:         req.Notifications,
		IsActive:              isActive,
	}
}

func policyResponse(policy *domain.SLAPolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:                    policy.ID,
		Name:                  policy.Name,
		Priority:              policy.Priority,
		Conditions:            policy.Conditions,
		ResponseTimeMinutes:   policy.ResponseTimeMinutes,
		ResolutionTimeMinutes: policy.ResolutionTimeMinutes,
		BusinessHours:         policy.BusinessHours,
		Holidays:              policy.Holidays,
		EscalationRules:       policy.EscalationRules,
		Notifications:         policy.Notifications,
		IsActive:              policy.IsActive,
		CreatedAt:             policy.CreatedAt,
		UpdatedAt:             policy.UpdatedAt,
	}
}
