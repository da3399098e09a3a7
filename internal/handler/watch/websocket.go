package watch

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	watchservice "github.com/zhouzirui/persons-api/internal/service/watch"
	"github.com/zhouzirui/persons-api/pkg/utils"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Handler streams person change events over WebSocket and SSE.
type Handler struct {
	hub          *watchservice.Hub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// New 创建变更订阅处理器
func New(hub *watchservice.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
	}
}

// RegisterRoutes 注册订阅路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persons/watch", h.handleWebSocket)
	r.Get("/persons/events", h.handleEventStream)
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "change feed disabled")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[watch] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()
	log.Printf("[watch] websocket subscriber %s connected", sub.ID)

	// The client never sends data; reading is only how close frames arrive.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Printf("[watch] websocket subscriber %s disconnected", sub.ID)
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[watch] write to %s failed: %v", sub.ID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
