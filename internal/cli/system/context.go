package system

import "context"

// cmdContext is the root context for one-shot commands; interrupts are
// handled by the serve command itself.
func cmdContext() context.Context {
	return context.Background()
}
