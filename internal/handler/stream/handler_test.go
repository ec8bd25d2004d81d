package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adikhanov/orion/backend/internal/model/chat"
	chatservice "github.com/adikhanov/orion/backend/internal/service/chat"
)

func TestHasMatchingUserMessage(t *testing.T) {
	messages := []chat.Message{
		{SessionID: "s1", Sender: chat.SenderUser, Content: "hello"},
	}

	if !hasMatchingUserMessage(messages, "s1", "hello") {
		t.Fatal("expected match for identical trailing user message")
	}
	if hasMatchingUserMessage(messages, "s1", "different") {
		t.Fatal("expected no match for different content")
	}
	if hasMatchingUserMessage(messages, "other", "hello") {
		t.Fatal("expected no match for different session")
	}
	if hasMatchingUserMessage(nil, "s1", "hello") {
		t.Fatal("expected no match for empty transcript")
	}

	assistantLast := append(messages, chat.Message{
		SessionID: "s1", Sender: chat.SenderAssistant, Content: "hello",
	})
	if hasMatchingUserMessage(assistantLast, "s1", "hello") {
		t.Fatal("expected no match when last entry is from the assistant")
	}
}

func TestHandleStreamRequestUnknownSession(t *testing.T) {
	chatSvc := chatservice.NewService()
	handler := New(nil, chatSvc)

	resp := httptest.NewRecorder()
	err := handler.HandleStreamRequest(context.Background(), resp, "missing", "hello")
	if err == nil {
		t.Fatal("expected error for unknown session")
	}

	if !strings.Contains(resp.Body.String(), `"error"`) {
		t.Fatalf("expected error frame in SSE output, got: %s", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}
}
