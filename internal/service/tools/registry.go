// Package tools exposes operations from an OpenAPI document as callable
// tools for the assistant: each path+method pair becomes a named tool whose
// arguments map onto the operation's parameters and request body.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/adikhanov/orion/backend/internal/config"
	"github.com/adikhanov/orion/backend/internal/model/tool"
)

// ErrUnknownTool is returned when a tool name has no registered operation.
var ErrUnknownTool = errors.New("unknown tool")

const defaultBaseURL = "http://localhost:8000"

// Registry maps extracted tools to upstream API operations and executes them.
type Registry struct {
	baseURL string
	token   string
	client  *http.Client
	ops     map[string]*operation
	order   []string
}

// operation records where a tool call lands on the wire.
type operation struct {
	tool   tool.Tool
	path   string
	method string
	params []specParam
}

// specParam is a parameter declared by the OpenAPI operation.
type specParam struct {
	name string
	in   string
}

// NewRegistry loads the OpenAPI document at cfg.SpecPath (JSON or YAML) and
// registers every operation it declares.
func NewRegistry(cfg config.ToolsConfig) (*Registry, error) {
	doc, err := loadDocument(cfg.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec %s: %w", cfg.SpecPath, err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" && len(doc.Servers) > 0 {
		baseURL = doc.Servers[0].URL
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	r := &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		ops:     make(map[string]*operation),
	}

	for _, op := range extractOperations(doc) {
		if _, exists := r.ops[op.tool.Name]; !exists {
			r.order = append(r.order, op.tool.Name)
		}
		// Last extraction wins on name collisions.
		r.ops[op.tool.Name] = op
		log.Printf("[tools] registered tool: %s (%s %s)", op.tool.Name, op.method, op.path)
	}

	return r, nil
}

// List returns the registered tools in extraction order.
func (r *Registry) List() []tool.Tool {
	tools := make([]tool.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.ops[name].tool)
	}
	return tools
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.ops)
}

// Execute performs the upstream HTTP request for the named tool and returns
// a JSON result document for the model. Transport and upstream failures are
// folded into the result rather than returned, so the model can react to
// them; only unknown tools and encoding problems surface as errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	op, ok := r.ops[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	resp, err := r.perform(ctx, op, args)
	if err != nil {
		return marshalResult(executionResult{Success: false, Error: err.Error()})
	}
	return marshalResult(resp)
}

// executionResult mirrors the envelope the upstream tool server wrapped
// around every call outcome.
type executionResult struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (r *Registry) perform(ctx context.Context, op *operation, args map[string]any) (executionResult, error) {
	target := r.baseURL + op.path

	// Path parameters are substituted directly into the URL template.
	for name, value := range args {
		placeholder := "{" + name + "}"
		if strings.Contains(target, placeholder) {
			target = strings.ReplaceAll(target, placeholder, url.PathEscape(fmt.Sprint(value)))
		}
	}

	query := url.Values{}
	headers := http.Header{}
	declared := make(map[string]bool, len(op.params))

	for _, param := range op.params {
		declared[param.name] = true
		value, ok := args[param.name]
		if !ok {
			continue
		}
		switch param.in {
		case "query":
			query.Set(param.name, fmt.Sprint(value))
		case "header":
			headers.Set(param.name, fmt.Sprint(value))
		}
	}

	// Anything not declared as a parameter travels in the JSON body.
	body := make(map[string]any)
	for name, value := range args {
		if !declared[name] {
			body[name] = value
		}
	}

	var reader io.Reader
	if len(body) > 0 {
		payload, err := json.Marshal(body)
		if err != nil {
			return executionResult{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, op.method, target, reader)
	if err != nil {
		return executionResult{}, err
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return executionResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return executionResult{}, err
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		data = map[string]any{
			"content":     string(raw),
			"status_code": resp.StatusCode,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return executionResult{
			Success:    false,
			Error:      fmt.Sprintf("%s %s returned status %d", op.method, op.path, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}, nil
	}

	return executionResult{
		Success:    true,
		Data:       data,
		StatusCode: resp.StatusCode,
	}, nil
}

func marshalResult(result executionResult) (string, error) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(payload), nil
}
