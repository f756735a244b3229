package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/analysis"
)

// schemaResource is a fixed id so validation messages never carry local paths.
const schemaResource = "https://comms-analyzer.local/schemas/communication.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := domain.SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(schemaResource)
})

// StripCodeFence removes one leading "```json" or "```" marker and one
// trailing "```" marker, each only at the string boundary.
func StripCodeFence(reply string) string {
	s := strings.TrimSpace(reply)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResult validates a normalized reply against the communication schema
// and decodes it. Nothing is returned unless the whole document is valid.
func ParseResult(reply string) (domain.Result, error) {
	schema, err := compiledSchema()
	if err != nil {
		return domain.Result{}, err
	}

	var doc any
	if err := json.Unmarshal([]byte(reply), &doc); err != nil {
		return domain.Result{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return domain.Result{}, fmt.Errorf("json does not match schema: %w", err)
	}

	dec := json.NewDecoder(strings.NewReader(reply))
	dec.DisallowUnknownFields()
	var out domain.Result
	if err := dec.Decode(&out); err != nil {
		return domain.Result{}, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}
