package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"geoguru/internal/handlers"
	"geoguru/internal/session"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sessions  session.Store
	Auth      *handlers.AuthHandler
	Revision  *handlers.RevisionHandler
	Settings  *handlers.SettingsHandler
	AI        *handlers.AIHandler
	Documents *handlers.DocumentsHandler
	TTS       *handlers.TTSHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/auth/login", deps.Auth.Login)
		r.Post("/auth/logout", deps.Auth.Logout)

		r.Get("/topics", deps.Revision.ListTopics)
		r.Get("/topics/{id}", deps.Revision.GetTopic)
		r.Get("/topics/{id}/flashcards", deps.Revision.Flashcards)
		r.Get("/topics/{id}/quiz", deps.Revision.Quiz)
		r.Get("/topics/{id}/test-yourself", deps.Revision.TestYourself)
		r.Get("/progress", handlers.Progress)

		// Everything below needs a logged-in user.
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Sessions))

			r.Get("/ai/settings", deps.Settings.Get)
			r.Put("/ai/settings", deps.Settings.Update)
			r.Post("/ai/validate-key", deps.Settings.ValidateKey)
			r.Get("/ai/models/{provider}", deps.Settings.Models)
			r.Post("/ai/chat", deps.AI.Chat)
			r.Post("/ai/generate-questions", deps.AI.GenerateQuestions)

			r.Post("/documents", deps.Documents.Upload)
			r.Get("/documents", deps.Documents.List)
			r.Delete("/documents/{id}", deps.Documents.Delete)
			r.Post("/documents/ask", deps.Documents.Ask)

			r.Get("/tts/voices", deps.TTS.Voices)
			r.Post("/tts/generate", deps.TTS.Generate)
			r.Post("/tts/validate-key", deps.TTS.ValidateKey)
		})
	})

	return r
}
