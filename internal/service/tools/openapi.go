package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/adikhanov/orion/backend/internal/model/tool"
)

var allowedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

func loadDocument(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	return loader.LoadFromFile(path)
}

// extractOperations converts every allowed path+method pair in the document
// into an executable operation. Results are ordered by path then method so
// registration is deterministic.
func extractOperations(doc *openapi3.T) []*operation {
	paths := make([]string, 0, len(doc.Paths))
	for path := range doc.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var ops []*operation
	for _, path := range paths {
		item := doc.Paths[path]

		methods := make([]string, 0, 4)
		for method := range item.Operations() {
			if allowedMethods[method] {
				methods = append(methods, method)
			}
		}
		sort.Strings(methods)

		for _, method := range methods {
			specOp := item.Operations()[method]
			ops = append(ops, buildOperation(path, method, specOp))
		}
	}
	return ops
}

func buildOperation(path, method string, specOp *openapi3.Operation) *operation {
	name := toolName(path, method, specOp)

	description := specOp.Summary
	if description == "" {
		description = specOp.Description
	}
	if description == "" {
		description = fmt.Sprintf("%s %s", method, path)
	}

	inputSchema, params := extractInputSchema(specOp)

	return &operation{
		tool: tool.Tool{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
		},
		path:   path,
		method: method,
		params: params,
	}
}

// toolName derives a stable identifier from the operationId, falling back to
// a method_path slug.
func toolName(path, method string, specOp *openapi3.Operation) string {
	name := specOp.OperationID
	if name == "" {
		slug := strings.NewReplacer("/", "_", "{", "", "}", "").Replace(path)
		name = fmt.Sprintf("%s_%s", strings.ToLower(method), slug)
	}
	return strings.ToLower(strings.ReplaceAll(name, "-", "_"))
}

// extractInputSchema merges declared parameters with the JSON request body
// properties into a single object schema the model fills in.
func extractInputSchema(specOp *openapi3.Operation) (map[string]any, []specParam) {
	properties := make(map[string]any)
	required := make([]string, 0, 4)
	requiredSet := make(map[string]bool)
	params := make([]specParam, 0, len(specOp.Parameters))

	// A name can be required both as a declared parameter and in the body
	// schema; it must appear once.
	markRequired := func(name string) {
		if requiredSet[name] {
			return
		}
		requiredSet[name] = true
		required = append(required, name)
	}

	for _, ref := range specOp.Parameters {
		param := ref.Value
		if param == nil {
			continue
		}

		schema := convertSchema(param.Schema)
		if param.Description != "" {
			if _, ok := schema["description"]; !ok {
				schema["description"] = param.Description
			}
		}
		properties[param.Name] = schema
		if param.Required {
			markRequired(param.Name)
		}
		params = append(params, specParam{name: param.Name, in: param.In})
	}

	if specOp.RequestBody != nil && specOp.RequestBody.Value != nil {
		body := specOp.RequestBody.Value
		if media := body.Content.Get("application/json"); media != nil && media.Schema != nil && media.Schema.Value != nil {
			for name, ref := range media.Schema.Value.Properties {
				properties[name] = convertSchema(ref)
			}
			for _, name := range media.Schema.Value.Required {
				markRequired(name)
			}
		}

		// A required body with no explicit required list marks everything
		// required, matching how the original server treated it.
		if body.Required && len(required) == 0 {
			for name := range properties {
				required = append(required, name)
			}
			sort.Strings(required)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}, params
}

// convertSchema maps the subset of OpenAPI schema keywords the model needs
// into a plain JSON-schema object.
func convertSchema(ref *openapi3.SchemaRef) map[string]any {
	out := make(map[string]any)
	if ref == nil || ref.Value == nil {
		return out
	}

	s := ref.Value
	if s.Type != "" {
		out["type"] = s.Type
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.Items != nil {
		out["items"] = convertSchema(s.Items)
	}

	return out
}
