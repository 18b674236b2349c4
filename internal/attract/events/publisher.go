package events

import (
	"context"

	"github.com/morich/attract-backend/pkg/logger"
	"github.com/morich/attract-backend/pkg/messaging"
)

// Source names this service in published events
const Source = "attract-service"

// Publisher sends one event. *messaging.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ScriptEventPublisher publishes script generation events
type ScriptEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewScriptEventPublisher declares the attract exchange and returns a publisher on it
func NewScriptEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ScriptEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttractEvents, Source, log)
	if err != nil {
		return nil, err
	}

	return NewScriptEventPublisherWith(publisher, log), nil
}

// NewScriptEventPublisherWith wraps an existing publisher
func NewScriptEventPublisherWith(publisher Publisher, log *logger.Logger) *ScriptEventPublisher {
	return &ScriptEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishScriptGenerated publishes a script generated event
func (p *ScriptEventPublisher) PublishScriptGenerated(ctx context.Context, data messaging.ScriptGeneratedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventScriptGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("session_id", data.SessionID).Msg("failed to publish script generated event")
	}
}

// PublishScriptFailed publishes a script failed event
func (p *ScriptEventPublisher) PublishScriptFailed(ctx context.Context, data messaging.ScriptFailedEvent) {
	if err := p.publisher.Publish(ctx, messaging.EventScriptFailed, data); err != nil {
		p.logger.Error().Err(err).Str("session_id", data.SessionID).Msg("failed to publish script failed event")
	}
}
