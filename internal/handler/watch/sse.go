package watch

import (
	"log"
	"net/http"
	"time"

	"github.com/zhouzirui/persons-api/pkg/utils"
)

// handleEventStream serves the same feed as Server-Sent Events for clients
// that cannot speak WebSocket.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "change feed disabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.hub.Subscribe()
	defer sub.Close()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	log.Printf("[watch] sse subscriber %s connected", sub.ID)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[watch] sse subscriber %s disconnected", sub.ID)
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, msg.ID, string(msg.Type), msg); err != nil {
				log.Printf("[watch] sse write to %s failed: %v", sub.ID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
