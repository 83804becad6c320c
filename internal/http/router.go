package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookshelf/internal/auth"
	"bookshelf/internal/events"
	"bookshelf/internal/handlers"
	"bookshelf/internal/service"
	"bookshelf/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	BookService service.BookService
	Auth        *auth.Authenticator
	Hub         *events.Hub
	// VectorStore is nil when similar books are disabled.
	VectorStore    vectorstore.VectorStore
	CollectionName string
	// AllowedOrigins lists the origins allowed to call the API from a browser.
	AllowedOrigins []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.AllowedOrigins))

	authHandler := handlers.NewAuthHandler(deps.Auth)
	healthHandler := handlers.NewHealthHandler(deps.BookService, deps.VectorStore, deps.CollectionName)
	bookHandler := handlers.NewBookHandler(deps.BookService)
	pageHandler := handlers.NewPageHandler(deps.BookService)
	eventsHandler := handlers.NewEventsHandler(deps.Hub)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Middleware)

			r.Route("/books", func(r chi.Router) {
				r.Get("/", bookHandler.List)
				r.Post("/", bookHandler.Add)
				r.Get("/search", bookHandler.Search)
				r.Get("/latest-id", bookHandler.LatestID)
				r.Post("/metadata", bookHandler.Metadata)
				r.Get("/{id}", bookHandler.Get)
				r.Delete("/{id}", bookHandler.Delete)
				r.Put("/{id}/status", bookHandler.ChangeStatus)
				r.Get("/{id}/similar", bookHandler.Similar)
			})
			r.Method(http.MethodGet, "/events", eventsHandler)
		})
	})

	r.With(deps.Auth.Middleware).Method(http.MethodGet, "/books/{id}", pageHandler)

	return r
}
