package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas caches *jsonschema.Schema by Schema.Name.
var compiledSchemas sync.Map

// validateResponse checks raw against schema and returns
// *ErrInvalidResponse on any failure. A nil schema accepts anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(format string, args ...any) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, args...)}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid("not JSON: %w", err)
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return invalid("schema %s: %w", schema.Name, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return invalid("does not match schema %s: %w", schema.Name, err)
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiledSchemas.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// Round-trip through JSON so the compiler sees plain decoded values.
	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiledSchemas.Store(schema.Name, compiled)
	return compiled, nil
}
