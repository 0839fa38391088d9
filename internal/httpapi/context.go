package httpapi

import (
	"context"
)

// serverBaseCtx is canceled when the process begins shutting down. Handlers
// join it with the request context so in-flight predictions stop waiting.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context used by handlers.
// A nil ctx resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context done as soon as either parent is done.
// Callers must invoke cancel to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
		case <-b.Done():
		case <-ctx.Done():
		}
		cancel()
	}()
	return ctx, cancel
}
