package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/vigil/internal/events"
)

const socketWriteWait = 10 * time.Second

// EventsSocketHandler streams bus events to clients over a websocket.
// It carries the same payloads as the SSE stream for clients that
// prefer a bidirectional transport.
type EventsSocketHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsSocketHandler creates a new websocket events handler
func NewEventsSocketHandler(bus *events.Bus, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		bus: bus,
		log: log.With().Str("component", "events_socket").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws requests.
// An optional ?types=a,b,c query narrows the stream to those event types.
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subscribed := subscribedTypes(r.URL.Query().Get("types"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	h.log.Info().
		Int("types", len(subscribed)).
		Msg("Client connected to websocket stream")

	// Buffered so a slow client drops events instead of blocking publishers
	eventChan := make(chan *events.Event, 100)

	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	for _, eventType := range subscribed {
		h.bus.Subscribe(eventType, handler)
	}

	// CloseRead discards inbound frames and cancels the context when
	// the client disconnects
	ctx := conn.CloseRead(r.Context())

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from websocket stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			payload := map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			}
			if err := h.write(ctx, conn, payload); err != nil {
				h.log.Debug().Err(err).Msg("WebSocket write failed, closing")
				return
			}

		case <-heartbeat.C:
			payload := map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			}
			if err := h.write(ctx, conn, payload); err != nil {
				h.log.Debug().Err(err).Msg("WebSocket heartbeat failed, closing")
				return
			}
		}
	}
}

func (h *EventsSocketHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, socketWriteWait)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v)
}
