package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

// Publisher delivers a serialized event to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService announces ticket events on a pub/sub channel so that
// students learn when their ticket is resolved.
type NotificationService struct {
	publisher Publisher
	logger    *zap.Logger
	channel   string
}

// NewNotificationService creates the service. A nil publisher only logs.
func NewNotificationService(publisher Publisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		logger:    logger,
		channel:   cfg.Channel,
	}
}

// Forward logs the event and publishes it as JSON. Delivery failures are
// logged, not returned: a lost notification never fails the ticket operation.
func (n *NotificationService) Forward(ctx context.Context, event events.Event) {
	n.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("owner_id", event.OwnerID),
		zap.String("actor_id", event.Actor.UserID))

	if n.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("encode ticket event", zap.Error(err), zap.String("ticket_id", event.TicketID))
		return
	}
	if err := n.publisher.Publish(ctx, n.channel, payload); err != nil {
		if errors.Is(err, persistence.ErrRedisDisabled) {
			n.logger.Debug("notifications disabled; event not published", zap.String("ticket_id", event.TicketID))
			return
		}
		n.logger.Warn("publish ticket event",
			zap.Error(err),
			zap.String("channel", n.channel),
			zap.String("ticket_id", event.TicketID))
	}
}
