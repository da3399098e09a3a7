package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persons-api/internal/handler/person"
	"github.com/zhouzirui/persons-api/internal/handler/site"
	"github.com/zhouzirui/persons-api/internal/handler/watch"
	middlewarePkg "github.com/zhouzirui/persons-api/internal/middleware"
	personModel "github.com/zhouzirui/persons-api/internal/model/person"
	watchService "github.com/zhouzirui/persons-api/internal/service/watch"
	"github.com/zhouzirui/persons-api/pkg/utils"
)

// Options carries the presentation settings of the router.
type Options struct {
	Greeting      string
	AllowedOrigin string
}

// NewRouter wires HTTP routes to core services. hub and metrics are optional.
func NewRouter(persons personModel.Store, hub *watchService.Hub, metrics *middlewarePkg.Metrics, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.AllowedOrigin))
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	site.New(opts.Greeting).RegisterRoutes(r)

	personHandler := person.New(persons)
	watchHandler := watch.New(hub)

	r.Route("/api", func(api chi.Router) {
		personHandler.RegisterRoutes(api)
		watchHandler.RegisterRoutes(api)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
