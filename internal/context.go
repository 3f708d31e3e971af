package internal

import (
	"context"
	"time"
)

const (
	// DefaultClassifierTimeout bounds one classification when none is configured.
	DefaultClassifierTimeout = 20 * time.Second
	// SlotWriteTimeout bounds one durable slot write.
	SlotWriteTimeout = 10 * time.Second
)

// WithTimeout bounds ctx by duration, or by DefaultClassifierTimeout when
// duration is not positive.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultClassifierTimeout
	}
	return context.WithTimeout(ctx, duration)
}

// Detached keeps the values of ctx but not its cancellation, bounded by
// duration. Writes that must outlive the request use it.
func Detached(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), duration)
}
