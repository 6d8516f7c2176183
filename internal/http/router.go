package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notevault-ai/internal/handlers"
	"notevault-ai/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Users       storage.UserStore
	Notes       storage.NoteStore
	Processor   handlers.NoteProcessor
	Reindexer   handlers.Reindexer
	Coordinator handlers.Searcher
	Insights    handlers.InsightGenerator
	Index       handlers.IndexPinger
	Collection  string
}

// NewRouter creates the HTTP router with all API routes wired.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	noteHandler := handlers.NewNoteHandler(deps.Users, deps.Notes, deps.Processor)
	searchHandler := handlers.NewSearchHandler(deps.Coordinator)
	insightHandler := handlers.NewInsightHandler(deps.Insights)
	telegramHandler := handlers.NewTelegramHandler(deps.Users, deps.Notes, deps.Processor)
	exportHandler := handlers.NewExportHandler(deps.Notes)
	reindexHandler := handlers.NewReindexHandler(deps.Reindexer)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.Collection)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/notes/text", noteHandler.Create)
		r.Get("/notes", noteHandler.List)
		r.Get("/notes/{id}", noteHandler.Get)
		r.Patch("/notes/{id}", noteHandler.Patch)
		r.Delete("/notes/{id}", noteHandler.Delete)
		r.Method(http.MethodGet, "/notes/{id}/export", exportHandler)

		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/insights", insightHandler)
		r.Method(http.MethodPost, "/telegram/webhook", telegramHandler)
		r.Method(http.MethodPost, "/admin/reindex", reindexHandler)
	})

	r.Method(http.MethodGet, "/health", healthHandler)

	return r
}
