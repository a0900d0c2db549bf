package planfile

import (
	"fmt"
	"os"

	"github.com/roach88/loopplan/internal/compiler"
)

// Document is a decoded plan document.
type Document struct {
	// Set holds option blocks in file order.
	Set []map[string]any `json:"set,omitempty"`
	// Local holds binding declarations in file order.
	Local []string `json:"local,omitempty"`

	File   string `json:"-"`
	Format Format `json:"-"`
}

// Load reads and decodes the plan document at path.
func Load(path string) (*Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{File: path, Format: format, Message: "read failed", Err: err}
	}
	return Parse(data, format, path)
}

// Parse decodes a plan document. filename is used in error messages and CUE
// positions only.
func Parse(data []byte, format Format, filename string) (*Document, error) {
	raw, err := toJSON(format, data, filename)
	if err != nil {
		return nil, &Error{File: filename, Format: format, Err: err}
	}

	var generic any
	if err := decodeJSON(raw, &generic); err != nil {
		return nil, &Error{File: filename, Format: format, Message: "decode failed", Err: err}
	}
	if vs := validateDocument(generic); len(vs) > 0 {
		return nil, &Error{
			File:    filename,
			Format:  format,
			Path:    vs[0].Path,
			Message: joinViolations(vs),
		}
	}

	doc := &Document{File: filename, Format: format}
	if err := decodeJSON(raw, doc); err != nil {
		return nil, &Error{File: filename, Format: format, Message: "decode failed", Err: err}
	}
	return doc, nil
}

// Directives converts the document into an ordered directive list: binding
// declarations in Local order, then one SetOption per key of each Set block,
// block by block.
func (d *Document) Directives() ([]compiler.Directive, error) {
	out := make([]compiler.Directive, 0, len(d.Local)+len(d.Set))
	for i, src := range d.Local {
		decl, err := compiler.ParseDeclaration(src)
		if err != nil {
			return nil, fmt.Errorf("local[%d]: %w", i, err)
		}
		out = append(out, decl)
	}
	for _, block := range d.Set {
		out = append(out, compiler.Block(block)...)
	}
	return out, nil
}
