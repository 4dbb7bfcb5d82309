/*
Package handler provides the HTTP handlers and routing setup for the ops surface of the chat server.

This file defines the main Router, applying middleware like logging, CORS and recovery before
delegating to the health, room/user, admin and WebSocket gateway handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"roomchat/internal/pkg/auth/jwt"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "roomchat"

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS and the WebSocket origin check from AppConfig, and guards the admin routes with an operator token.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no Origin.
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": ServiceName,
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/rooms", HandleListRooms(deps))
		api.Get("/rooms/{name}", HandleGetRoom(deps))
		api.Get("/users", HandleListUsers(deps))

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(jwt.RequireAdmin(deps.Config.AdminJWTSecret))
			admin.Post("/announce", HandleAnnounce(deps))
			admin.Post("/kick", HandleKick(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r
}
