package services

import (
	"context"

	"stackit/internal/amqp"
	applog "stackit/internal/log"
)

// Publisher announces collection changes. *amqp.Client implements it.
type Publisher interface {
	PublishChange(ctx context.Context, eventType amqp.EventType, id int64) error
}

// recordWrite logs a successful write and publishes it best-effort: a broker
// failure is logged and swallowed.
func recordWrite(ctx context.Context, p Publisher, component, collection string, eventType amqp.EventType, id int64) {
	logger := applog.FromContext(ctx)
	applog.NewStructuredLogger(logger).LogWrite(ctx, component, string(eventType), collection, id)

	if p == nil {
		return
	}
	if err := p.PublishChange(ctx, eventType, id); err != nil {
		logger.WarnContext(ctx, "Failed to publish change event",
			applog.FieldEventType, string(eventType),
			applog.FieldRecordID, id,
			applog.FieldError, err.Error())
	}
}
