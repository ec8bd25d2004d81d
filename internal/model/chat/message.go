package chat

import "time"

// Sender labels form a closed set: every transcript entry is attributed
// either to the local user or to the assistant.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is a single transcript entry. Entries are append-only and ordered
// by insertion.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
