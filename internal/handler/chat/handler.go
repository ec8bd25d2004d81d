package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/adikhanov/orion/backend/internal/model/chat"
	"github.com/adikhanov/orion/backend/internal/service/ai"
	chatservice "github.com/adikhanov/orion/backend/internal/service/chat"
	"github.com/adikhanov/orion/backend/pkg/utils"
)

// Assistant produces the reply for a user message.
type Assistant interface {
	Respond(ctx context.Context, sessionID string, history []chat.Message, userMessage string) (string, error)
}

// Handler serves the chat contract and the session/transcript endpoints.
type Handler struct {
	chatSvc   *chatservice.Service
	assistant Assistant

	// The bare /chat contract carries no session id; those messages share a
	// lazily created default session.
	mu             sync.Mutex
	defaultSession string
}

// New creates the chat handler. assistant may be nil when no model is
// configured; /chat then answers 503.
func New(chatSvc *chatservice.Service, assistant Assistant) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		assistant: assistant,
	}
}

// RegisterChatRoute mounts the core POST /chat contract.
func (h *Handler) RegisterChatRoute(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// RegisterRoutes mounts the session management endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// handleChat appends the user entry, generates exactly one reply entry and
// returns it. Generation failures collapse into the fixed fallback reply.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if h.assistant == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}

	ctx := r.Context()

	sessionID := payload.SessionID
	if sessionID == "" {
		id, err := h.defaultSessionID(ctx)
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		sessionID = id
	} else if _, err := h.chatSvc.GetSession(ctx, sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	history, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   message,
	}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	reply, err := h.assistant.Respond(ctx, sessionID, history, message)
	if err != nil {
		log.Printf("[chat] generation failed for session=%s: %v", sessionID, err)
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
		log.Printf("[chat] failed to save assistant message: %v", err)
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Reply: reply, SessionID: sessionID})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

// defaultSessionID returns the shared session for bare /chat requests,
// creating it on first use.
func (h *Handler) defaultSessionID(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.defaultSession != "" {
		return h.defaultSession, nil
	}

	session, err := h.chatSvc.CreateSession(ctx)
	if err != nil {
		return "", err
	}

	h.defaultSession = session.ID
	return h.defaultSession, nil
}
