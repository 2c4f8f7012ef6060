package generate

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects a payload struct into a JSON schema acceptable to
// the OpenAI strict structured-output mode: no references, no additional
// properties, every property required.
func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	enforceStrictMode(out)
	return out
}

func enforceStrictMode(schema map[string]interface{}) {
	if schemaType, ok := schema["type"].(string); ok && schemaType == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(properties))
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if properties, ok := schema["properties"].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				enforceStrictMode(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		enforceStrictMode(items)
	}
}
