package planfile

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaSource string

const schemaURL = "https://loopplan.dev/schema/plan.json"

var documentSchema = jsonschema.MustCompileString(schemaURL, schemaSource)

// Violation is a single schema failure.
type Violation struct {
	Path    string
	Message string
}

// validateDocument checks a decoded JSON value against the document schema
// and returns every leaf violation, ordered by path.
func validateDocument(v any) []Violation {
	err := documentSchema.Validate(v)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}

	var out []Violation
	collectViolations(ve, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func collectViolations(err *jsonschema.ValidationError, out *[]Violation) {
	if len(err.Causes) == 0 {
		path := err.InstanceLocation
		if path == "" {
			path = "/"
		}
		*out = append(*out, Violation{Path: path, Message: err.Message})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}

func joinViolations(vs []Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Path + ": " + v.Message
	}
	return strings.Join(parts, "; ")
}
