package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adikhanov/orion/backend/internal/config"
	chathandler "github.com/adikhanov/orion/backend/internal/handler/chat"
	"github.com/adikhanov/orion/backend/internal/handler/stream"
	"github.com/adikhanov/orion/backend/internal/handler/ws"
	middlewarePkg "github.com/adikhanov/orion/backend/internal/middleware"
	"github.com/adikhanov/orion/backend/internal/model/tool"
	"github.com/adikhanov/orion/backend/internal/service/ai"
	chatservice "github.com/adikhanov/orion/backend/internal/service/chat"
	"github.com/adikhanov/orion/backend/internal/service/tools"
	"github.com/adikhanov/orion/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. aiSvc and registry may be
// nil when the corresponding configuration is absent.
func NewRouter(chatSvc *chatservice.Service, aiSvc *ai.Service, registry *tools.Registry, httpCfg config.HTTPConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(httpCfg.AllowedOrigins))

	var assistant chathandler.Assistant
	if aiSvc != nil {
		assistant = aiSvc
	}

	chatHandler := chathandler.New(chatSvc, assistant)

	// Core wire contract: POST /chat {"message"} -> {"reply"}.
	chatHandler.RegisterChatRoute(r)

	var streamHandler *stream.Handler
	if aiSvc != nil {
		streamHandler = stream.New(aiSvc, chatSvc)
	}

	var wsAssistant ws.Assistant
	if aiSvc != nil {
		wsAssistant = aiSvc
	}
	wsHandler := ws.New(wsAssistant, chatSvc)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/tools", func(w http.ResponseWriter, r *http.Request) {
			if registry == nil {
				utils.RespondJSON(w, http.StatusOK, []tool.Tool{})
				return
			}
			utils.RespondJSON(w, http.StatusOK, registry.List())
		})

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := strings.TrimSpace(r.URL.Query().Get("message"))

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
