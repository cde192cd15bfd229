package messaging

import (
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// AuditLogger writes one structured log line per domain event.
type AuditLogger struct {
	log *logger.Logger
}

// NewAuditLogger creates an AuditLogger.
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogger{log: log.With(logger.Component("audit"))}
}

// Register subscribes the audit logger to every event on bus.
func (a *AuditLogger) Register(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(a.Handle)
}

// Handle implements shared.EventHandler.
func (a *AuditLogger) Handle(event shared.Event) error {
	fields := []logger.Field{
		logger.String("event_type", string(event.EventType())),
		logger.String("aggregate_id", event.AggregateID()),
		logger.Time("occurred_at", event.OccurredAt()),
	}
	for k, v := range event.Payload() {
		fields = append(fields, logger.Any(k, v))
	}
	a.log.Info("domain event", fields...)
	return nil
}
