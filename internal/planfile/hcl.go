package planfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclDocument is the HCL form of a plan document:
//
//	local = ["acc int = 0"]
//
//	set {
//	  scheduler = { kind = "greedy", task_count = 3 }
//	}
//	set {
//	  reducer = "+"
//	}
type hclDocument struct {
	Local []string `hcl:"local,optional"`
	Sets  []hclSet `hcl:"set,block"`
}

type hclSet struct {
	Body hcl.Body `hcl:",remain"`
}

// decodeHCL decodes an HCL plan document into the generic document shape.
// Attribute expressions are evaluated without variables or functions.
func decodeHCL(data []byte, filename string) (map[string]any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}

	sets := make([]any, 0, len(doc.Sets))
	for i, s := range doc.Sets {
		attrs, diags := s.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("set block %d: %w", i, diags)
		}

		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		block := make(map[string]any, len(attrs))
		for _, name := range names {
			val, diags := attrs[name].Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("set block %d: %s: %w", i, name, diags)
			}
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("set block %d: %s: %w", i, name, err)
			}
			block[name] = native
		}
		sets = append(sets, block)
	}

	out := map[string]any{"set": sets}
	if doc.Local != nil {
		out["local"] = doc.Local
	}
	return out, nil
}

// ctyToNative converts a cty.Value to plain Go values. Whole numbers become
// int64 so they survive as JSON integers.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
