package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// WebSocket configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// feedClient is one WebSocket subscriber. An empty listID receives
// events for every list.
type feedClient struct {
	conn   *websocket.Conn
	listID string
	send   chan model.ListEvent
	cancel context.CancelFunc
}

func (c *feedClient) wants(event model.ListEvent) bool {
	return c.listID == "" || c.listID == event.ListID
}

// FeedHandler streams list change events to WebSocket clients.
type FeedHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*feedClient]struct{}
}

// NewFeedHandler creates a new FeedHandler instance.
func NewFeedHandler(logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Mobile clients send no stable Origin
			},
		},
		logger:  logger,
		clients: make(map[*feedClient]struct{}),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *FeedHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)
}

// HandleWebSocket upgrades the request and subscribes the connection.
// The optional listId query parameter restricts events to one list.
//
//nolint:contextcheck // intentional: WebSocket connections outlive the HTTP request context
func (h *FeedHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	// The request context ends when this handler returns; the
	// subscription lives until the connection closes.
	ctx, cancel := context.WithCancel(context.Background())

	client := &feedClient{
		conn:   conn,
		listID: r.URL.Query().Get("listId"),
		send:   make(chan model.ListEvent, sendBuffer),
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("feed client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("list_id", client.listID),
	)

	go h.writePump(ctx, client)
	go h.readPump(ctx, client)
}

// Publish queues event for every interested client. Clients whose
// buffer is full are disconnected rather than blocking the publisher.
func (h *FeedHandler) Publish(event model.ListEvent) {
	h.mu.RLock()
	var slow []*feedClient
	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- event:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow feed client", zap.String("remote_addr", client.conn.RemoteAddr().String()))
		client.cancel()
	}
}

// ClientCount returns the number of connected clients.
func (h *FeedHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// readPump handles incoming messages from the WebSocket connection.
// Clients may send {"type":"ping"} and receive a pong event.
func (h *FeedHandler) readPump(ctx context.Context, client *feedClient) {
	conn := client.conn
	defer func() {
		client.cancel()
		h.removeClient(client)
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var in model.ListEvent
		if err := json.Unmarshal(message, &in); err != nil || in.Type != model.EventPing {
			h.queue(client, model.NewListEvent(model.EventError, "", nil))
			continue
		}

		h.queue(client, model.NewListEvent(model.EventPong, "", nil))
	}
}

// writePump is the only writer of a connection.
func (h *FeedHandler) writePump(ctx context.Context, client *feedClient) {
	conn := client.conn
	pingTicker := time.NewTicker(pingPeriod)

	defer func() {
		pingTicker.Stop()
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(conn)
			return
		case event := <-client.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("failed to send event", zap.Error(err))
				client.cancel()
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				client.cancel()
				return
			}
		}
	}
}

// queue sends an event to a single client without blocking.
func (h *FeedHandler) queue(client *feedClient, event model.ListEvent) {
	select {
	case client.send <- event:
	default:
	}
}

// sendPing sends a ping message to the connection.
func (h *FeedHandler) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *FeedHandler) sendCloseMessage(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *FeedHandler) removeClient(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		h.logger.Info("feed client disconnected", zap.String("remote_addr", client.conn.RemoteAddr().String()))
	}
}

// CloseAllConnections closes all active WebSocket connections.
func (h *FeedHandler) CloseAllConnections() {
	h.mu.Lock()
	clients := make([]*feedClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	// Cancelling makes each writePump send a close frame and close its
	// connection, which in turn ends the readPump.
	for _, client := range clients {
		client.cancel()
	}

	// Give writePump goroutines time to send close messages
	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
	}
	h.mu.Unlock()

	h.logger.Info("all feed connections closed")
}
