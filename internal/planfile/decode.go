package planfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// toJSON converts a document in the given format to JSON.
func toJSON(format Format, data []byte, filename string) ([]byte, error) {
	switch format {
	case FormatCUE:
		return cueToJSON(data, filename)
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return marshalDocument(v)
	case FormatTOML:
		v := map[string]any{}
		if _, err := toml.Decode(string(data), &v); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		return marshalDocument(v)
	case FormatHCL:
		v, err := decodeHCL(data, filename)
		if err != nil {
			return nil, err
		}
		return marshalDocument(v)
	case FormatJSON:
		if !json.Valid(data) {
			return nil, fmt.Errorf("parse json: invalid JSON")
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// cueToJSON evaluates a CUE document. The result must be concrete: plan
// files may use CUE constraints and defaults, but every value has to resolve.
func cueToJSON(data []byte, filename string) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cue: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate cue: %w", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export cue: %w", err)
	}
	return out, nil
}

// marshalDocument encodes a decoded document as JSON. An empty document
// decodes to nil and is treated as an empty object.
func marshalDocument(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return out, nil
}

// decodeJSON decodes normalized JSON, keeping numbers as json.Number.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
