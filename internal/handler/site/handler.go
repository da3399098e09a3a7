package site

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persons-api/pkg/utils"
)

// DefaultGreeting is shown on the landing page when none is configured.
const DefaultGreeting = "Hi!"

// Handler serves the landing page and the health check.
type Handler struct {
	greeting string
	now      func() time.Time
}

// New 创建站点处理器
func New(greeting string) *Handler {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Handler{
		greeting: greeting,
		now:      time.Now,
	}
}

// RegisterRoutes 注册站点路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleLanding)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleLanding(w http.ResponseWriter, _ *http.Request) {
	body := fmt.Sprintf("Go-Chi %s <br> Current UTC time: %s",
		html.EscapeString(h.greeting), h.now().UTC().Format(time.RFC3339))
	utils.RespondText(w, http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondText(w, http.StatusOK, "text/plain; charset=utf-8", "OK")
}
