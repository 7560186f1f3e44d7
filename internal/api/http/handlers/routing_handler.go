package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/routing"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// RoutingHandler serves agent assignment recommendations.
type RoutingHandler struct {
	recommender  *routing.Recommender
	defaultLimit int
}

// NewRoutingHandler constructs handler.
func NewRoutingHandler(recommender *routing.Recommender, defaultLimit int) *RoutingHandler {
	if defaultLimit <= 0 {
		defaultLimit = 3
	}
	return &RoutingHandler{recommender: recommender, defaultLimit: defaultLimit}
}

// Suggest POST /routing/suggest.
func (h *RoutingHandler) Suggest(c *fiber.Ctx) error {
	rc, err := h.parseContext(c)
	if err != nil {
		return err
	}
	agentID, err := h.recommender.SuggestAgent(c.Context(), rc)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestResponse{AgentID: agentID}})
}

// Suggestions POST /routing/suggestions.
func (h *RoutingHandler) Suggestions(c *fiber.Ctx) error {
	rc, err := h.parseContext(c)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), h.defaultLimit)
	suggestions, err := h.recommender.GetRoutingSuggestions(c.Context(), rc, limit)
	if err != nil {
		return err
	}
	if suggestions == nil {
		suggestions = []domain.RoutingSuggestion{}
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionsResponse{Suggestions: suggestions}})
}

func (h *RoutingHandler) parseContext(c *fiber.Ctx) (domain.RoutingContext, error) {
	tenantID, ok := auth.TenantFromContext(c)
	if !ok {
		return domain.RoutingContext{}, apperrors.NewUnauthorized("tenant required")
	}
	var req dto.RoutingRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.RoutingContext{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return domain.RoutingContext{
		TenantID:       tenantID,
		CustomerID:     req.CustomerID,
		TeamID:         req.TeamID,
		Priority:       domain.TicketPriority(req.Priority),
		RequiredSkills: req.RequiredSkills,
		Subject:        req.Subject,
		Description:    req.Description,
		ChannelType:    req.ChannelType,
		LanguageHint:   req.LanguageHint,
	}, nil
}
