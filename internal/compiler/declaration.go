package compiler

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/roach88/loopplan/internal/plan"
)

const initFuncName = "loopplanInit"

// stdlibImports maps package identifiers usable in initializer expressions
// to their import paths.
var stdlibImports = map[string]string{
	"bytes":   "bytes",
	"strings": "strings",
	"strconv": "strconv",
	"math":    "math",
	"rand":    "math/rand",
	"big":     "math/big",
	"sync":    "sync",
	"time":    "time",
	"bufio":   "bufio",
	"sort":    "sort",
	"fmt":     "fmt",
}

// ParseDeclaration parses a textual binding declaration of the form
//
//	name Type = expr
//
// e.g. `buf []float64 = make([]float64, 1024)`. The initializer expression is
// type-checked and compiled by the Go interpreter; each call of the resulting
// Initializer evaluates the expression afresh.
func ParseDeclaration(src string) (DeclareBinding, error) {
	spec, err := parseValueSpec(src)
	if err != nil {
		return DeclareBinding{}, err
	}

	name := spec.Names[0].Name
	typ := types.ExprString(spec.Type)
	expr := types.ExprString(spec.Values[0])

	init, err := interpretInitializer(name, typ, expr, spec.Type, spec.Values[0])
	if err != nil {
		return DeclareBinding{}, err
	}

	return DeclareBinding{Name: name, Type: typ, Expr: expr, Init: init}, nil
}

// parseValueSpec parses src as the body of a var declaration and checks that
// it is exactly one typed name with exactly one initializer.
func parseValueSpec(src string) (*ast.ValueSpec, error) {
	malformed := func(format string, args ...any) error {
		return plan.NewConfigurationError(plan.CauseMalformedBinding, "local",
			"declaration %q: "+format, append([]any{src}, args...)...)
	}

	trimmed := strings.TrimSpace(src)
	if trimmed == "" || strings.ContainsAny(trimmed, ";\n") {
		return nil, malformed("must be a single `name Type = expr` declaration")
	}

	file, err := parser.ParseFile(token.NewFileSet(), "local.go", "package p\nvar "+trimmed+"\n", 0)
	if err != nil {
		return nil, malformed("%v", err)
	}
	if len(file.Decls) != 1 {
		return nil, malformed("must be a single `name Type = expr` declaration")
	}
	gen, ok := file.Decls[0].(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR || len(gen.Specs) != 1 {
		return nil, malformed("must be a single `name Type = expr` declaration")
	}
	spec := gen.Specs[0].(*ast.ValueSpec)

	switch {
	case len(spec.Names) != 1:
		return nil, malformed("exactly one name is required, got %d", len(spec.Names))
	case spec.Type == nil:
		return nil, malformed("a type is required")
	case len(spec.Values) != 1:
		return nil, malformed("exactly one initializer expression is required")
	case spec.Names[0].Name == "_":
		return nil, malformed("blank identifier cannot be bound")
	}
	return spec, nil
}

// interpretInitializer compiles expr into an Initializer with yaegi. The
// interpreter is not safe for concurrent calls, so evaluations are serialized.
func interpretInitializer(name, typ, expr string, nodes ...ast.Expr) (plan.Initializer, error) {
	var src strings.Builder
	src.WriteString("package main\n\n")
	for _, path := range referencedImports(nodes...) {
		fmt.Fprintf(&src, "import %q\n", path)
	}
	fmt.Fprintf(&src, "\nfunc %s() interface{} {\n\tvar v %s = %s\n\treturn v\n}\n", initFuncName, typ, expr)

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load interpreter symbols: %w", err)
	}
	if _, err := i.Eval(src.String()); err != nil {
		return nil, plan.NewConfigurationError(plan.CauseMalformedBinding, "local."+name,
			"initializer %q does not compile as %s: %v", expr, typ, err)
	}
	fn, err := i.Eval(initFuncName)
	if err != nil || fn.Kind() != reflect.Func {
		return nil, plan.NewConfigurationError(plan.CauseMalformedBinding, "local."+name,
			"initializer %q did not produce a function", expr)
	}

	var mu sync.Mutex
	return func() (value any, err error) {
		mu.Lock()
		defer mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("initializer for %s panicked: %v", name, r)
			}
		}()
		out := fn.Call(nil)
		return out[0].Interface(), nil
	}, nil
}

// referencedImports returns the import paths for package-qualified
// identifiers used in exprs, sorted.
func referencedImports(exprs ...ast.Expr) []string {
	seen := make(map[string]bool)
	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if pkg, ok := sel.X.(*ast.Ident); ok {
				if path, known := stdlibImports[pkg.Name]; known {
					seen[path] = true
				}
			}
			return true
		})
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
