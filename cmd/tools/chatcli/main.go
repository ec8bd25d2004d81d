// Command chatcli is an interactive terminal client for the Orion backend.
// It reads lines from stdin, forwards them to POST /chat and prints the
// reply. Any transport or decoding failure collapses into the same fixed
// fallback message the backend uses.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/adikhanov/orion/backend/internal/service/ai"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "backend base URL")
	session := flag.String("session", "", "session ID, empty uses the server default session")
	timeout := flag.Duration("timeout", 120*time.Second, "request timeout")
	flag.Parse()

	c := &client{
		baseURL:   strings.TrimRight(*addr, "/"),
		sessionID: *session,
		http:      &http.Client{Timeout: *timeout},
	}

	fmt.Println("Orion chat client. Type 'quit' or 'exit' to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			// Whitespace-only input is never sent.
			continue
		}
		if isExitCommand(input) {
			return
		}

		reply := c.sendOrFallback(context.Background(), input)
		fmt.Printf("Orion: %s\n", reply)
	}
}

// isExitCommand matches quit/exit in any letter case.
func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit":
		return true
	}
	return false
}

type client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// sendOrFallback returns the server reply, or the fixed fallback message on
// any failure.
func (c *client) sendOrFallback(ctx context.Context, message string) string {
	reply, err := c.send(ctx, message)
	if err != nil {
		return ai.FallbackReply
	}
	return reply
}

func (c *client) send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(chatRequest{Message: message, SessionID: c.sessionID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	// Stick to the session the server picked so the conversation continues.
	if decoded.SessionID != "" {
		c.sessionID = decoded.SessionID
	}

	return decoded.Reply, nil
}
