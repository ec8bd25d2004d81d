package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adikhanov/orion/backend/internal/model/tool"
)

const toolCallInstructions = `
To use a tool, respond with a JSON object in this format:
{
    "tool_call": {
        "name": "tool_name",
        "arguments": {
            "param1": "value1",
            "param2": "value2"
        }
    }
}
`

// BuildSystemPrompt assembles the assistant system prompt, embedding the
// formatted tool catalogue and the tool-call response convention.
func BuildSystemPrompt(tools []tool.Tool) string {
	var b strings.Builder
	b.WriteString("You are Orion, a helpful AI assistant with access to tools.\n\n")
	b.WriteString(formatToolsForPrompt(tools))
	b.WriteString("\nWhen you need to use a tool to answer a question, respond with the tool call JSON format shown above.\n")
	b.WriteString("If you don't need tools, respond normally with a message.\n")
	return b.String()
}

func formatToolsForPrompt(tools []tool.Tool) string {
	if len(tools) == 0 {
		return "No tools available.\n"
	}

	var b strings.Builder
	b.WriteString("Available tools:")
	for _, t := range tools {
		b.WriteString(t.FormatForPrompt())
	}
	b.WriteString(toolCallInstructions)
	return b.String()
}

// followUpQuery builds the second-round query carrying the tool outcome back
// to the model.
func followUpQuery(userMessage string, call *tool.Call, result string) string {
	args, err := json.Marshal(call.Arguments)
	if err != nil {
		args = []byte("{}")
	}

	return fmt.Sprintf(
		"%s\n\nTool call: %s(%s)\nTool result: %s\n\nNow provide a natural language response to the user based on the tool result.",
		userMessage, call.Name, args, result,
	)
}
