package chat

import "time"

// Session captures a transient anonymous conversation. Transcripts live only
// as long as the process; there is no persistence layer.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
