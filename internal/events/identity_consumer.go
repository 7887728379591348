package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/application"
	"github.com/PulseFit-Club/service-scheduling/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// UserDeactivatedEvent is the identity-service payload for a closed account.
type UserDeactivatedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// IdentityEventConsumer listens to identity events and releases seats held
// by deactivated accounts.
type IdentityEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.BookingService
	logger   *zap.Logger
}

// NewIdentityEventConsumer creates a new IdentityEventConsumer.
func NewIdentityEventConsumer(
	brokers []string,
	groupID string,
	service *application.BookingService,
	logger *zap.Logger,
) *IdentityEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicIdentityEvents, logger)
	return &IdentityEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming identity events. This blocks until the context is cancelled.
func (c *IdentityEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *IdentityEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *IdentityEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from identity topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case UserDeactivated:
		return c.handleUserDeactivated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled identity event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *IdentityEventConsumer) handleUserDeactivated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt UserDeactivatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse UserDeactivatedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("releasing seats for deactivated user",
		zap.String("user_id", evt.UserID.String()),
	)

	if err := c.service.CancelAllForClient(ctx, evt.UserID, "account deactivated"); err != nil {
		c.logger.Error("failed to cancel bookings for deactivated user",
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
