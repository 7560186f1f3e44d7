package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// NotificationService requests notifications when an SLA breaches or
// escalates. Delivery is best-effort: failures are logged, counted, and
// never propagated back to the breach transition.
type NotificationService struct {
	dispatcher events.Dispatcher
	agents     repository.AgentRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, agents repository.AgentRepository, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		agents:     agents,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to breach events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleBreach)
}

func (n *NotificationService) handleBreach(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLABreachedPayload)
	if !ok {
		n.logger.Warn("unexpected breach payload type", zap.String("event_id", event.ID))
		return nil
	}

	n.logger.Info("SLABreached",
		zap.String("tenant_id", event.TenantID),
		zap.String("ticket_id", event.TicketID),
		zap.Int("escalation_level", payload.EscalationLevel))

	// An unassigned ticket has nobody to notify directly; the tenant
	// broadcast still goes out via the broadcaster.
	if payload.AssigneeAgentID == nil {
		return nil
	}

	agent, err := n.agents.GetByID(ctx, event.TenantID, *payload.AssigneeAgentID)
	if err != nil {
		n.recordFailure()
		n.logger.Warn("assignee lookup for breach notification failed",
			zap.Error(err), zap.String("agent_id", *payload.AssigneeAgentID))
		return nil
	}

	n.sendEmailNotificationStub(ctx, event, agent.Email)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(recipient) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", recipient),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) recordFailure() {
	if n.metrics != nil {
		n.metrics.NotificationFailures.Inc()
	}
}
