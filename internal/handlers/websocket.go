package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
)

// WebSocketHandler streams job events to connected clients.
// Each connection gets its own bus subscription; a per-connection mutex
// serializes writes because gorilla connections allow one writer at a time.
type WebSocketHandler struct {
	bus      interfaces.EventBus
	upgrader websocket.Upgrader
	logger   arbor.ILogger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(bus interfaces.EventBus, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local development
			},
		},
		logger: logger,
	}
}

// HandleJobSocket streams events for one job
// GET /ws/job/{id}
func (h *WebSocketHandler) HandleJobSocket(w http.ResponseWriter, r *http.Request) {
	jobID := pathSegment(r.URL.Path, 2)
	if jobID == "" {
		http.Error(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	h.serve(w, r, jobID, func() (<-chan interfaces.Event, func()) {
		return h.bus.SubscribeJob(jobID)
	})
}

// HandleGlobalSocket streams all events
// GET /ws/global
func (h *WebSocketHandler) HandleGlobalSocket(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "", func() (<-chan interfaces.Event, func()) {
		return h.bus.SubscribeGlobal()
	})
}

// serve upgrades the connection and pumps bus events until either side closes
func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, jobID string, subscribe func() (<-chan interfaces.Event, func())) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	events, unsubscribe := subscribe()
	var writeMu sync.Mutex
	closed := make(chan struct{})

	h.logger.Debug().
		Str("job_id", jobID).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket client connected")

	// Writer: forward bus events until the subscription or connection ends
	go func() {
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				writeMu.Lock()
				err := conn.WriteJSON(event)
				writeMu.Unlock()
				if err != nil {
					h.logger.Debug().Err(err).Str("job_id", jobID).Msg("WebSocket write failed")
					return
				}
			case <-closed:
				return
			}
		}
	}()

	// Read loop keeps the connection alive and detects client close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket closed unexpectedly")
			}
			break
		}
	}

	close(closed)
	unsubscribe()
	conn.Close()

	h.logger.Debug().
		Str("job_id", jobID).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket client disconnected")
}
