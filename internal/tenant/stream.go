package tenant

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/tenantgridgo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// streamNamespace is the socket.io namespace the tenant emits per-run
// deploy events on.
const streamNamespace = "/deploys"

// connectTimeout bounds how long OpenProgressStream waits for the initial
// handshake before giving up.
const connectTimeout = 15 * time.Second

// ProgressStream relays the tenant's live deploy events to the logger for
// the duration of a run. The stream is best-effort: a tenant without
// socket.io support, a dropped connection, or any other stream fault never
// fails the deploy itself.
type ProgressStream struct {
	io *socket.Socket
}

// OpenProgressStream connects to the tenant's deploy event namespace and
// subscribes to events for runID. The returned stream keeps relaying events
// until Close is called or ctx is cancelled.
func OpenProgressStream(ctx context.Context, creds Credentials, runID string) (*ProgressStream, error) {
	logger := ctxlog.FromContext(ctx).With("stream", streamNamespace)
	logger.Debug("Connecting deploy progress stream...")

	parsedURL, err := url.Parse(creds.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetExtraHeaders(map[string][]string{
		"Authorization":    {"Bearer " + creds.Token},
		"X-Tenant-Account": {creds.Account},
	})

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(streamNamespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Progress stream connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		connectChan <- err
	})

	io.On(types.EventName("deploy:log"), func(args ...any) {
		if len(args) > 0 {
			logger.Info("Tenant deploy log.", "message", fmt.Sprintf("%v", args[0]))
		}
	})
	io.On(types.EventName("deploy:status"), func(args ...any) {
		if len(args) > 0 {
			logger.Info("Tenant deploy status.", "status", fmt.Sprintf("%v", args[0]))
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("progress stream connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for progress stream connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out waiting for progress stream connection")
	}

	io.Emit("subscribe", map[string]any{"run_id": runID})
	logger.Info("📡 Subscribed to deploy progress stream.", "run_id", runID)

	return &ProgressStream{io: io}, nil
}

// Close unsubscribes and disconnects the stream.
func (s *ProgressStream) Close() {
	if s == nil || s.io == nil {
		return
	}
	s.io.Disconnect()
}
