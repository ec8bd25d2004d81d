package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/adikhanov/orion/backend/internal/model/chat"
	"github.com/adikhanov/orion/backend/internal/service/ai"
	chatservice "github.com/adikhanov/orion/backend/internal/service/chat"
	"github.com/adikhanov/orion/backend/pkg/utils"
)

// Handler streams assistant replies over Server-Sent Events.
type Handler struct {
	aiService *ai.Service
	chatSvc   *chatservice.Service
}

// New creates a stream handler.
func New(aiSvc *ai.Service, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		aiService: aiSvc,
		chatSvc:   chatSvc,
	}
}

// StreamResponse is a single SSE frame.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest generates a reply for the session and streams it out.
// The user and assistant entries are persisted to the transcript; on
// generation failure the fixed fallback reply is stored so every accepted
// send still appends exactly one assistant entry.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	if _, err := h.chatSvc.GetSession(ctx, sessionID); err != nil {
		h.sendSSEError(w, flusher, "session not found")
		return err
	}

	history, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, "failed to load transcript")
		return err
	}

	// The client may have persisted the user message via REST already; avoid
	// duplicating it.
	if !hasMatchingUserMessage(history, sessionID, userMessage) {
		userMsg := chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderUser,
			Content:   userMessage,
		}
		if saved, err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
			log.Printf("[stream] failed to save user message: %v", err)
		} else {
			history = append(history, saved)
		}
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	// The current user message goes to the model as the query, not as part
	// of the history.
	promptHistory := history
	if hasMatchingUserMessage(history, sessionID, userMessage) {
		promptHistory = history[:len(history)-1]
	}

	reply, err := h.dispatchResponse(ctx, w, flusher, sessionID, promptHistory, userMessage)
	if err != nil {
		log.Printf("[stream] generation failed for session=%s: %v", sessionID, err)
		h.sendSSEError(w, flusher, "generation failed")
		reply = ai.FallbackReply
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   reply,
		})
	}

	if _, err := h.chatSvc.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   reply,
	}); err != nil {
		log.Printf("[stream] failed to save assistant message: %v", err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

// dispatchResponse picks streaming or one-shot generation depending on
// configuration.
func (h *Handler) dispatchResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, history []chat.Message, userMessage string) (string, error) {
	if h.aiService.StreamingEnabled() {
		return h.streamResponse(ctx, w, flusher, sessionID, history, userMessage)
	}

	reply, err := h.aiService.Respond(ctx, sessionID, history, userMessage)
	if err != nil {
		return "", err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply,
	})

	return reply, nil
}

func (h *Handler) streamResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, history []chat.Message, userMessage string) (string, error) {
	stream, err := h.aiService.StreamResponse(ctx, history, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response.Content, nil
}

// hasMatchingUserMessage reports whether the transcript already ends with
// this exact user message.
func hasMatchingUserMessage(messages []chat.Message, sessionID, content string) bool {
	if len(messages) == 0 {
		return false
	}

	last := messages[len(messages)-1]
	if last.SessionID != sessionID {
		return false
	}
	if last.Sender != chat.SenderUser {
		return false
	}
	return last.Content == content
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
