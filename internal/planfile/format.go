package planfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a plan document encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatJSON Format = "json"
)

var extensions = map[string]Format{
	".cue":  FormatCUE,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".toml": FormatTOML,
	".hcl":  FormatHCL,
	".json": FormatJSON,
}

// FormatForPath returns the format implied by the extension of path.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", &Error{File: path, Message: fmt.Sprintf("unsupported plan file extension %q", ext)}
	}
	return f, nil
}

// IsPlanFile reports whether path has a recognized plan file extension.
func IsPlanFile(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
