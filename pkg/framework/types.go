package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
// Producers (tickers, edge watchers, bus receivers) and the
// dispatcher are all Runnables.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RunnableAdder provides specific logic to add runnables to a Runner.
type RunnableAdder interface {
	AddToRunner(*Runner)
}
