package ai

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/adikhanov/orion/backend/internal/config"
	"github.com/adikhanov/orion/backend/internal/model/chat"
	"github.com/adikhanov/orion/backend/internal/model/tool"
)

// FallbackReply is the fixed user-visible message every generation failure
// collapses into. No provider or tool error text ever reaches the client.
const FallbackReply = "Sorry, something went wrong."

// ToolRunner executes named tools on behalf of the assistant.
type ToolRunner interface {
	List() []tool.Tool
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Service runs the chat model with the registered tool loop.
type Service struct {
	chatModel model.ChatModel
	runner    ToolRunner
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]

	// mu serializes generation: a send issued while another is outstanding
	// waits instead of racing it.
	mu sync.Mutex
}

// NewService creates the assistant service. runner may be nil when no tool
// spec is configured.
func NewService(ctx context.Context, runner ToolRunner, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		runner:    runner,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled indicates whether SSE streaming output is switched on.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Respond generates the assistant reply for a user message. When the model
// answers with a tool call, the tool is executed and the model is invoked a
// second time with the result to produce the natural-language reply.
func (s *Service) Respond(ctx context.Context, sessionID string, history []chat.Message, userMessage string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := s.buildChainInput(history, userMessage)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	call, ok := ExtractCall(response.Content)
	if !ok || s.runner == nil {
		log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(response.Content))
		return response.Content, nil
	}

	log.Printf("[ai] calling tool %s for session=%s", call.Name, sessionID)

	result, err := s.runner.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		// The model gets the failure as a tool result and explains it.
		result = fmt.Sprintf("Error calling tool %s: %v", call.Name, err)
	}

	input["query"] = followUpQuery(userMessage, call, result)

	final, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run follow-up chain: %w", err)
	}

	log.Printf("[ai] generated tool-backed response for session=%s, tool=%s, length=%d", sessionID, call.Name, len(final.Content))
	return final.Content, nil
}

// StreamResponse streams reply chunks via the configured chain. The tool
// loop is not applied on the streaming path; deltas go out as generated.
func (s *Service) StreamResponse(ctx context.Context, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(history, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(history []chat.Message, userMessage string) map[string]any {
	var tools []tool.Tool
	if s.runner != nil {
		tools = s.runner.List()
	}

	return map[string]any{
		"system":  BuildSystemPrompt(tools),
		"history": s.buildHistoryMessages(history),
		"query":   userMessage,
	}
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if limit := s.cfg.HistoryLimit; limit > 0 && len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
