package tools

import "github.com/shophub/supportflow/internal/llm"

// Schemas renders the registry's tool declarations into the
// provider-neutral function-calling shape consumed by the LLM layer.
// This is a pure data transformation: each tool declares its parameters
// once and the adapter maps them to JSON schema, no reflection involved.
func (r *Registry) Schemas() []llm.ToolSchema {
	tools := r.All()
	schemas := make([]llm.ToolSchema, 0, len(tools))
	for _, t := range tools {
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  paramsToJSONSchema(t.Params),
		})
	}
	return schemas
}

func paramsToJSONSchema(params []Param) map[string]any {
	properties := map[string]any{}
	var required []string

	for _, p := range params {
		prop := map[string]any{
			"description": p.Description,
		}
		switch p.Type {
		case ParamNumber:
			prop["type"] = "number"
		case ParamEnum:
			prop["type"] = "string"
			prop["enum"] = p.Enum
		default:
			prop["type"] = "string"
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
