package events

import (
	"context"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEvent is the payload carried by scheduling audit events.
type AuditEvent struct {
	ActorID    uuid.UUID              `json:"actor_id"`
	ResourceID uuid.UUID              `json:"resource_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// AuditPublisher emits audit events to the scheduling topic. Emission is
// fire-and-forget: a failed publish is logged and never fails the operation
// that triggered it.
type AuditPublisher struct {
	producer *kafka.Producer
	source   string
	logger   *zap.Logger
}

// NewAuditPublisher creates an AuditPublisher for the given source service name.
func NewAuditPublisher(producer *kafka.Producer, source string, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{
		producer: producer,
		source:   source,
		logger:   logger,
	}
}

// Emit publishes one audit event recording who did what to which resource.
func (p *AuditPublisher) Emit(ctx context.Context, eventType string, actorID, resourceID uuid.UUID, metadata map[string]interface{}) {
	evt := AuditEvent{
		ActorID:    actorID,
		ResourceID: resourceID,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent(p.source, eventType, evt)
	if err != nil {
		p.logger.Error("failed to create audit event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := p.producer.PublishKeyed(ctx, TopicSchedulingEvents, resourceID.String(), cloudEvent); err != nil {
		p.logger.Error("failed to publish audit event",
			zap.String("event_type", eventType),
			zap.String("resource_id", resourceID.String()),
			zap.Error(err),
		)
	}
}
