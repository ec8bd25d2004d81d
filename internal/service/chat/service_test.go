package chat_test

import (
	"context"
	"testing"

	model "github.com/adikhanov/orion/backend/internal/model/chat"
	chat "github.com/adikhanov/orion/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestSaveMessageAppendsInOrder(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAssistant
		}
		if _, err := svc.SaveMessage(ctx, model.Message{
			SessionID: session.ID,
			Sender:    sender,
			Content:   content,
		}); err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}

	if len(transcript) != len(contents) {
		t.Fatalf("expected %d entries, got %d", len(contents), len(transcript))
	}
	for i, content := range contents {
		if transcript[i].Content != content {
			t.Fatalf("entry %d: got %q want %q", i, transcript[i].Content, content)
		}
		if transcript[i].ID == "" {
			t.Fatalf("entry %d: missing ID", i)
		}
		if transcript[i].CreatedAt.IsZero() {
			t.Fatalf("entry %d: missing timestamp", i)
		}
	}
}

func TestSaveMessageRejectsUnknownSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, err := svc.SaveMessage(ctx, model.Message{
		SessionID: "missing",
		Sender:    model.SenderUser,
		Content:   "hello",
	})
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestSaveMessageRejectsInvalidInput(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if _, err := svc.SaveMessage(ctx, model.Message{
		SessionID: session.ID,
		Sender:    model.SenderUser,
	}); err == nil {
		t.Fatal("expected error for empty content")
	}

	if _, err := svc.SaveMessage(ctx, model.Message{
		SessionID: session.ID,
		Sender:    "narrator",
		Content:   "hello",
	}); err == nil {
		t.Fatal("expected error for invalid sender")
	}
}

func TestLoadTranscriptReturnsCopy(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if _, err := svc.SaveMessage(ctx, model.Message{
		SessionID: session.ID,
		Sender:    model.SenderUser,
		Content:   "original",
	}); err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}

	first, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	first[0].Content = "mutated"

	second, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if second[0].Content != "original" {
		t.Fatalf("stored entry mutated: got %q", second[0].Content)
	}
}
