package manifest

import (
	_ "embed"
	"strings"

	"github.com/agentx-labs/pkginstall/internal/schema"
)

//go:embed schema/package.schema.json
var schemaBytes []byte

var validator = schema.New("package.schema.json", schemaBytes)

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []schema.Issue
}

func (r *ValidationResult) String() string {
	if r.Valid {
		return "valid"
	}
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// Validate validates raw package.json bytes against the manifest schema.
// The error return is for malformed JSON or schema compilation failures.
// Validation issues are returned in the ValidationResult.
func Validate(data []byte) (*ValidationResult, error) {
	issues, err := validator.Validate(data)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}, nil
}
