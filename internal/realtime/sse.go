package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shoplist-service/internal/auth"
	"shoplist-service/internal/models"

	"github.com/google/uuid"
)

// sseChannel is bound 1:1 to one streaming HTTP response.
type sseChannel struct {
	id     string
	listID uint
	userID uint
	queue  *sendQueue
}

func newSSEChannel(listID, userID uint, bufferSize int) *sseChannel {
	return &sseChannel{
		id:     uuid.New().String(),
		listID: listID,
		userID: userID,
		queue:  newSendQueue(bufferSize),
	}
}

func (c *sseChannel) ID() string                 { return c.id }
func (c *sseChannel) Write(payload []byte) error { return c.queue.push(payload) }
func (c *sseChannel) Closed() bool               { return c.queue.isClosed() }
func (c *sseChannel) Done() <-chan struct{}      { return c.queue.done }

func (c *sseChannel) Close() error {
	c.queue.close()
	return nil
}

type SSEConfig struct {
	SendBufferSize int
	// KeepAlive is the interval between comment frames; zero disables them.
	KeepAlive time.Duration
}

// SSETransport serves one list subscription per HTTP request and writes
// events as "data: <json>\n\n" records.
type SSETransport struct {
	registry *Registry
	auth     auth.Authenticator
	access   AccessChecker
	cfg      SSEConfig
	logger   *slog.Logger
}

func NewSSETransport(registry *Registry, authenticator auth.Authenticator, access AccessChecker, cfg SSEConfig, logger *slog.Logger) *SSETransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSETransport{
		registry: registry,
		auth:     authenticator,
		access:   access,
		cfg:      cfg,
		logger:   logger,
	}
}

// Serve authenticates and authorizes the request, then streams events for
// listID until the client goes away or the channel is pruned. Every rejection
// happens before the registry is touched.
func (t *SSETransport) Serve(w http.ResponseWriter, r *http.Request, listID uint) {
	ctx := r.Context()

	token := auth.TokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", auth.ErrMissingCredential.Error())
		return
	}
	userID, err := t.auth.Authenticate(ctx, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", auth.ErrInvalidCredential.Error())
		return
	}

	allowed, err := t.access.CanView(ctx, userID, listID)
	if err != nil {
		t.logger.Error("Failed to check list access", "userID", userID, "listID", listID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to open stream", "")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "Forbidden", "no access to this list")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Failed to open stream", "streaming unsupported")
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ch := newSSEChannel(listID, userID, t.cfg.SendBufferSize)
	t.registry.Register(listID, ch)
	defer func() {
		_ = ch.Close()
		t.registry.Unregister(listID, ch)
		t.logger.Info("SSE stream closed", "channelID", ch.id, "userID", userID, "listID", listID)
	}()

	connected, err := json.Marshal(NewListConnected(listID))
	if err != nil {
		t.logger.Error("Failed to marshal connected event", "error", err)
		return
	}
	if err := writeSSEFrame(w, connected); err != nil {
		return
	}
	flusher.Flush()

	t.logger.Info("SSE stream opened", "channelID", ch.id, "userID", userID, "listID", listID)
	t.pump(ctx, w, flusher, ch)
}

func (t *SSETransport) pump(ctx context.Context, w io.Writer, flusher http.Flusher, ch *sseChannel) {
	var keepAlive <-chan time.Time
	if t.cfg.KeepAlive > 0 {
		ticker := time.NewTicker(t.cfg.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.Done():
			return
		case payload := <-ch.queue.ch:
			if err := writeSSEFrame(w, payload); err != nil {
				t.logger.Debug("SSE write failed", "channelID", ch.id, "error", err)
				return
			}
			flusher.Flush()
		case <-keepAlive:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				t.logger.Debug("SSE keepalive failed", "channelID", ch.id, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEFrame(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Code: status, Message: message, Details: details})
}
