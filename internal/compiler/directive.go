package compiler

import (
	"reflect"
	"regexp"
	"slices"

	"github.com/roach88/loopplan/internal/plan"
)

// Recognized option names.
const (
	OptionScheduler = "scheduler"
	OptionReducer   = "reducer"
	OptionCollect   = "collect"
)

// Directive is a sealed interface: SetOption or DeclareBinding.
type Directive interface {
	directive() // Sealed
}

// SetOption assigns Value to the option Name.
type SetOption struct {
	Name  string
	Value any
}

func (SetOption) directive() {}

// DeclareBinding declares a task-local binding.
type DeclareBinding struct {
	Name string
	Type string // Go type expression
	Expr string // initializer source, if declared textually
	Init plan.Initializer

	typed bool // Type was rendered from a Go type argument
}

func (DeclareBinding) directive() {}

// Set is shorthand for SetOption{Name: name, Value: value}.
func Set(name string, value any) SetOption {
	return SetOption{Name: name, Value: value}
}

// Declare declares a binding whose type is taken from T.
//
//	compiler.Declare("buf", func() []float64 { return make([]float64, 1024) })
func Declare[T any](name string, init func() T) DeclareBinding {
	d := DeclareBinding{Name: name, Type: typeName(reflect.TypeFor[T]()), typed: true}
	if init != nil {
		d.Init = func() (any, error) { return init(), nil }
	}
	return d
}

// importPathPrefix matches the import path reflect prints before a type
// argument's package, e.g. "github.com/acme/geo." in
// "atomic.Pointer[github.com/acme/geo.Point]". A trailing ".vN" major
// version element is dropped with it.
var importPathPrefix = regexp.MustCompile(`(?:[\w.~-]+/)+([\w~-]+)(?:\.v\d+)?\.`)

// typeName renders t the way it is written in source, qualifying named types
// by package name rather than import path.
func typeName(t reflect.Type) string {
	return importPathPrefix.ReplaceAllString(t.String(), "${1}.")
}

// Block expands a map of option assignments into SetOption directives.
// Keys are emitted in sorted order; within one block every key is distinct,
// so order does not affect the result.
func Block(options map[string]any) []Directive {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Directive, 0, len(keys))
	for _, k := range keys {
		out = append(out, Set(k, options[k]))
	}
	return out
}
