package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/agentx-labs/pkginstall/internal/schema"
)

//go:embed schema/registry.schema.json
var schemaBytes []byte

var validator = schema.New("registry.schema.json", schemaBytes)

// Parse validates a registry payload against the registry schema and
// decodes it. Errors wrap ErrInvalidDocument.
func Parse(data []byte) (*Document, error) {
	issues, err := validator.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, schema.Join(issues))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Packages == nil {
		doc.Packages = make(map[string]*PackageEntry)
	}
	return &doc, nil
}
