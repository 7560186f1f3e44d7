package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
)

// Broadcaster relays dispatcher events onto tenant-scoped Redis channels so
// realtime consumers (websocket gateways, dashboards) can subscribe per
// tenant. Publish failures are logged and swallowed.
type Broadcaster struct {
	redis   *persistence.Redis
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewBroadcaster creates the broadcaster.
func NewBroadcaster(redis *persistence.Redis, logger *zap.Logger, metrics *observability.Metrics) *Broadcaster {
	return &Broadcaster{redis: redis, logger: logger, metrics: metrics}
}

// Register subscribes the broadcaster to every SLA event type.
func (b *Broadcaster) Register(dispatcher Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range []EventType{
		EventSLAInstanceCreated,
		EventSLABreached,
		EventSLACompleted,
		EventSLAPaused,
		EventSLAResumed,
		EventSLACancelled,
	} {
		dispatcher.Subscribe(eventType, b.relay)
	}
}

// ChannelFor returns the tenant-scoped channel name.
func ChannelFor(tenantID string) string {
	return fmt.Sprintf("sla:events:%s", tenantID)
}

func (b *Broadcaster) relay(ctx context.Context, event Event) error {
	if b.redis == nil || b.redis.Client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("broadcast marshal failed", zap.Error(err), zap.String("event_id", event.ID))
		return nil
	}
	if err := b.redis.Client.Publish(ctx, ChannelFor(event.TenantID), payload).Err(); err != nil {
		if b.metrics != nil {
			b.metrics.BroadcastFailures.Inc()
		}
		b.logger.Warn("broadcast publish failed",
			zap.Error(err),
			zap.String("tenant_id", event.TenantID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}
