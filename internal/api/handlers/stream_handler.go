package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
)

// DefaultHeartbeatInterval keeps idle notification streams open through proxies
const DefaultHeartbeatInterval = 30 * time.Second

// StreamHandler pushes a session's notifications over Server-Sent Events
type StreamHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(eventBus providers.EventBus, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &StreamHandler{eventBus: eventBus, heartbeat: heartbeat}
}

// StreamNotifications handles GET /api/stream/notifications. Each event is
// named after the notification kind: toast, alert, checkout.open or
// dashboard.refreshed.
func (h *StreamHandler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)
	channel := providers.GetNotificationChannel(sid)

	events, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to notifications")
		respondWithError(w, http.StatusServiceUnavailable, "notifications are unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sendEvent(w, "connected", map[string]interface{}{"timestamp": time.Now()})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("notification stream closed by client")
			return
		case <-ticker.C:
			sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now()})
			flusher.Flush()
		case n, open := <-events:
			if !open {
				return
			}
			if n == nil {
				continue
			}
			sendEvent(w, string(n.Kind), n)
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
