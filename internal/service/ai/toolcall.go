package ai

import (
	"encoding/json"
	"strings"

	"github.com/adikhanov/orion/backend/internal/model/tool"
)

// ExtractCall scans a model response for an embedded tool call. It takes the
// widest brace-delimited span and accepts it only when it decodes to an
// object with a populated "tool_call" key.
func ExtractCall(response string) (*tool.Call, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}

	var wrapper struct {
		ToolCall *tool.Call `json:"tool_call"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &wrapper); err != nil {
		return nil, false
	}
	if wrapper.ToolCall == nil || wrapper.ToolCall.Name == "" {
		return nil, false
	}

	return wrapper.ToolCall, true
}
