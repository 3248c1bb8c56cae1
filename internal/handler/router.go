package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/deepseek-chat/internal/config"
	"github.com/zhouzirui/deepseek-chat/internal/handler/chat"
	"github.com/zhouzirui/deepseek-chat/internal/handler/web"
)

// NewRouter wires HTTP routes to the relay.
func NewRouter(serverCfg config.ServerConfig, relay chat.Relayer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	web.New().RegisterRoutes(r)

	chatHandler := chat.New(relay, serverCfg.MaxBodyBytes)
	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	return r
}
