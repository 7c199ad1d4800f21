package ppal

import (
	"context"
	"time"
)

// Invocation captures one tool invocation outcome.
type Invocation struct {
	Tool      string
	RequestID string
	Duration  time.Duration
	Success   bool
	// ErrorKind is empty on success.
	ErrorKind Kind
}

// Observer receives one Invocation per tool call, with the caller's context.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveInvoke(ctx context.Context, invocation Invocation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(context.Context, Invocation)

// ObserveInvoke calls f.
func (f ObserverFunc) ObserveInvoke(ctx context.Context, invocation Invocation) {
	if f != nil {
		f(ctx, invocation)
	}
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(context.Context, Invocation) {}
