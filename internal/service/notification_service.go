package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/events"
)

// EventPublisher forwards events to an external broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for provisioning outcomes.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProvisioningSucceeded, n.handleSucceeded)
	n.dispatcher.Subscribe(events.EventProvisioningFailed, n.handleFailed)
}

func (n *NotificationService) handleSucceeded(ctx context.Context, event events.Event) error {
	n.logger.Info("ProvisioningSucceeded", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn("ProvisioningFailed", zap.String("run_id", event.RunID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	if err := n.publisher.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("publish %s for run %s: %w", event.Type, event.RunID, err)
	}
	n.logger.Debug("event forwarded", zap.String("run_id", event.RunID), zap.String("event_type", string(event.Type)))
	return nil
}
