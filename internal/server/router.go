package server

import (
	"net/http"

	"ap-video-web/internal/server/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter は、ミドルウェアとルーティングを統合した http.Handler を構築します。
func NewRouter(h *handlers.Handler) http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r)
	setupRoutes(r, h)

	return r
}

func setupCommonMiddleware(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
}

func setupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/healthz", h.Healthz)

	// --- Web UI ---
	r.Get("/", h.Index)
	r.Post("/generate", h.HandleSubmit)
	r.Post("/reset", h.HandleReset)
	r.Get("/video", h.ServeVideo)

	// --- 状態の取得 ---
	r.Get("/status", h.Status)
	r.Get("/events", h.Events)
}
