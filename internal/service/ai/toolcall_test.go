package ai

import "testing"

func TestExtractCallPlainText(t *testing.T) {
	if _, ok := ExtractCall("The weather in Oslo is mild today."); ok {
		t.Fatal("expected no tool call in plain text")
	}
}

func TestExtractCallValid(t *testing.T) {
	response := `Let me look that up.
{
    "tool_call": {
        "name": "get_weather",
        "arguments": {"city": "Oslo"}
    }
}`

	call, ok := ExtractCall(response)
	if !ok {
		t.Fatal("expected tool call to be extracted")
	}
	if call.Name != "get_weather" {
		t.Fatalf("unexpected tool name: %s", call.Name)
	}
	if call.Arguments["city"] != "Oslo" {
		t.Fatalf("unexpected arguments: %v", call.Arguments)
	}
}

func TestExtractCallJSONWithoutToolCall(t *testing.T) {
	if _, ok := ExtractCall(`{"answer": "42"}`); ok {
		t.Fatal("expected no tool call for unrelated JSON")
	}
}

func TestExtractCallMalformedJSON(t *testing.T) {
	if _, ok := ExtractCall(`{"tool_call": {`); ok {
		t.Fatal("expected no tool call for malformed JSON")
	}
}

func TestExtractCallMissingName(t *testing.T) {
	if _, ok := ExtractCall(`{"tool_call": {"arguments": {}}}`); ok {
		t.Fatal("expected no tool call without a name")
	}
}
