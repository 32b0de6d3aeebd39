package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/findshroom/findshroom-server/internal/http/response"
)

// Authenticator resolves the viewer of a stream request. A returned error
// is written to the client as-is through response.HandleError.
type Authenticator func(r *http.Request) (Viewer, error)

// Handler handles SSE connections at GET /api/v1/stream.
type Handler struct {
	manager      *Manager
	authenticate Authenticator
	logger       *slog.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, authenticate Authenticator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		manager:      manager,
		authenticate: authenticate,
		logger:       logger,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	viewer, err := h.authenticate(r)
	if err != nil {
		response.HandleError(w, err, h.logger)
		return
	}

	// Check if request context is already canceled (early client disconnect).
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)

	client, err := h.manager.Connect(viewer)
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		response.HandleError(w, err, h.logger)
		return
	}
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := h.sendEvent(w, rc, NewConnectedEvent(client.ID)); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	h.stream(r.Context(), w, rc, client, clientLogger)
}

func (h *Handler) stream(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, client *Client, logger *slog.Logger) {
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				logger.Info("client closed by manager")
				return
			}
			if err := h.sendEvent(w, rc, event); err != nil {
				// Client disconnect is normal, not an error condition.
				logger.Info("client disconnected during send")
				return
			}

		case <-client.Done:
			logger.Info("client closed by manager")
			return

		case <-ctx.Done():
			logger.Info("client context canceled")
			return
		}
	}
}

// sendEvent writes one event in SSE wire format and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful write.
	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
