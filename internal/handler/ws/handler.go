package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/adikhanov/orion/backend/internal/model/chat"
	"github.com/adikhanov/orion/backend/internal/service/ai"
	chatservice "github.com/adikhanov/orion/backend/internal/service/chat"
	"github.com/adikhanov/orion/backend/pkg/utils"
)

// Assistant produces the reply for a user message.
type Assistant interface {
	Respond(ctx context.Context, sessionID string, history []chat.Message, userMessage string) (string, error)
}

// Handler serves the websocket chat transport.
type Handler struct {
	assistant Assistant
	chatSvc   *chatservice.Service
	upgrader  websocket.Upgrader
}

// New creates a websocket handler.
func New(assistant Assistant, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		assistant: assistant,
		chatSvc:   chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type chatPayload struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		switch inbound.Type {
		case "chat":
			h.handleChatMessage(r.Context(), conn, sessionID, inbound.Data)
		default:
			h.writeError(conn, sessionID, "unsupported message type")
		}
	}
}

func (h *Handler) handleChatMessage(ctx context.Context, conn *websocket.Conn, sessionID string, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.writeError(conn, sessionID, "invalid chat payload")
		return
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		h.writeError(conn, sessionID, "message text is required")
		return
	}

	if h.assistant == nil {
		h.writeError(conn, sessionID, "assistant unavailable")
		return
	}

	history, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.writeError(conn, sessionID, "session not found")
		return
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   text,
	}); err != nil {
		h.writeError(conn, sessionID, "failed to save message")
		return
	}

	reply, err := h.assistant.Respond(ctx, sessionID, history, text)
	if err != nil {
		log.Printf("[ws] generation failed for session=%s: %v", sessionID, err)
		reply = ai.FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		reply = ai.FallbackReply
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   reply,
	}); err != nil {
		log.Printf("[ws] failed to save assistant message: %v", err)
	}

	h.write(conn, outgoingMessage{
		Type:      "reply",
		SessionID: sessionID,
		Data:      chatPayload{Text: reply},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Handler) writeError(conn *websocket.Conn, sessionID, message string) {
	h.write(conn, outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Handler) write(conn *websocket.Conn, message outgoingMessage) {
	if err := conn.WriteJSON(message); err != nil {
		log.Printf("[ws] write failed for session=%s: %v", message.SessionID, err)
	}
}
