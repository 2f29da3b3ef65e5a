package tenant

import (
	"context"
	"time"

	"github.com/vk/tenantgridgo/internal/ctxlog"
)

// timed wraps one remote call with start/finish logging and duration
// measurement. Composed at every call site instead of baked into the
// transport, so individual calls can still opt out (none currently do).
func timed(ctx context.Context, label string, fn func() error) error {
	logger := ctxlog.FromContext(ctx).With("call", label)
	logger.Debug("Remote call starting.")

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn("Remote call failed.", "duration", elapsed, "error", err)
		return err
	}
	logger.Debug("Remote call finished.", "duration", elapsed)
	return nil
}
