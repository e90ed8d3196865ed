package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/medassist/backend/internal/handler/catalog"
	"github.com/zhouzirui/medassist/backend/internal/handler/chat"
	"github.com/zhouzirui/medassist/backend/internal/handler/stream"
	"github.com/zhouzirui/medassist/backend/internal/handler/ws"
	"github.com/zhouzirui/medassist/backend/pkg/utils"

	middlewarePkg "github.com/zhouzirui/medassist/backend/internal/middleware"
	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
	consultService "github.com/zhouzirui/medassist/backend/internal/service/consult"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, consultSvc *consultService.Service, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.NewCORS(allowedOrigin))

	catalogHandler := catalog.New()
	chatHandler := chat.New(chatSvc, consultSvc)
	streamHandler := stream.New(chatSvc, consultSvc)
	wsHandler := ws.New(chatSvc, consultSvc, originChecker(allowedOrigin))

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		catalogHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

// originChecker mirrors the CORS policy for WebSocket upgrades.
func originChecker(allowedOrigin string) func(r *http.Request) bool {
	if allowedOrigin == "" || allowedOrigin == "*" {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}
}
