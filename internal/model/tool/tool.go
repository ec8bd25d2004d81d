package tool

import (
	"fmt"
	"sort"
	"strings"
)

// Tool describes a callable operation exposed to the language model.
// InputSchema is a JSON-schema object: {"type":"object","properties":{...},"required":[...]}.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Call is a tool invocation extracted from a model response.
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// FormatForPrompt renders the tool as a block suitable for embedding in the
// model's system prompt: name, description and one line per argument with a
// required marker.
func (t Tool) FormatForPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTool: %s\nDescription: %s\nArguments:\n", t.Name, t.Description)

	required := make(map[string]bool)
	if list, ok := t.InputSchema["required"].([]string); ok {
		for _, name := range list {
			required[name] = true
		}
	} else if list, ok := t.InputSchema["required"].([]any); ok {
		for _, name := range list {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
	}

	props, _ := t.InputSchema["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		desc := "No description"
		if prop, ok := props[name].(map[string]any); ok {
			if d, ok := prop["description"].(string); ok && d != "" {
				desc = d
			}
		}
		fmt.Fprintf(&b, "- %s: %s", name, desc)
		if required[name] {
			b.WriteString(" (required)")
		}
		b.WriteString("\n")
	}

	return b.String()
}
