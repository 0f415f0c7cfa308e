package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sessionhandler "github.com/d1ced/insurance-bot/internal/handler/session"
	sessionmodel "github.com/d1ced/insurance-bot/internal/model/session"
)

// NewRouter wires the ops HTTP surface: health probe and read-only session
// inspection. The bot itself talks to Telegram, not to this listener.
func NewRouter(store sessionmodel.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	sessionHandler := sessionhandler.New(store)
	r.Route("/api", func(api chi.Router) {
		sessionHandler.RegisterRoutes(api)
	})

	return r
}
