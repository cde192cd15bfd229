// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
	"github.com/mentorship-hub/mentorship-engine/pkg/retry"
	"github.com/mentorship-hub/mentorship-engine/pkg/timeutil"
)

// DefaultRetryBackoff is the pause before the single retry of a transient
// storage failure.
const DefaultRetryBackoff = 50 * time.Millisecond

// Options carries the collaborators shared by every command handler.
// Zero values are replaced with working defaults.
type Options struct {
	Publisher shared.EventPublisher
	Retrier   *retry.Retrier
	Clock     timeutil.Clock
	Logger    *logger.Logger
}

func (o Options) withDefaults(component string) Options {
	if o.Publisher == nil {
		o.Publisher = shared.NopPublisher{}
	}
	if o.Retrier == nil {
		o.Retrier = retry.StorageRetrier(shared.IsRetryable, DefaultRetryBackoff)
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	o.Logger = o.Logger.With(logger.Component(component))
	return o
}

// base holds the collaborators and the helpers built on them.
type base struct {
	Options
}

// publish hands an event to the bus. Delivery problems are logged and never
// fail the command; the state change is already persisted.
func (b *base) publish(event shared.Event) {
	if err := b.Publisher.Publish(event); err != nil {
		b.Logger.Error("event publish failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

// write runs a storage mutation under the transient-error retry policy.
func (b *base) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return b.Retrier.Do(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if shared.IsRetryable(err) {
			b.Logger.Warn("transient storage error", logger.Operation(op), logger.Err(err))
		}
		return err
	})
}

// rejected logs an operation refused by a domain rule and returns err.
func (b *base) rejected(op string, err error, fields ...logger.Field) error {
	fields = append(fields, logger.Operation(op), logger.Err(err))
	if shared.IsRetryable(err) {
		b.Logger.Error("operation failed", fields...)
	} else {
		b.Logger.Warn("operation rejected", fields...)
	}
	return err
}

func forbidden(domain, op, message string) error {
	return shared.NewDomainError(domain, op, shared.ErrForbidden, message)
}
