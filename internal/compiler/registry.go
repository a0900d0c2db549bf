package compiler

import (
	"go/ast"
	"go/parser"
	"go/token"
	"slices"

	"github.com/roach88/loopplan/internal/plan"
)

// Registry collects the task-local bindings of a single directive list.
// It is created per Compile call and never shared.
type Registry struct {
	bindings []plan.Binding
	index    map[string]plan.Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]plan.Handle)}
}

// Declare registers a binding and returns its handle.
//
// Fails with CauseMalformedBinding if the name is not a Go identifier, the
// type is not a Go type expression, or the initializer is missing; with
// CauseDuplicateBinding if the name is already declared.
func (r *Registry) Declare(d DeclareBinding) (plan.Handle, error) {
	if !token.IsIdentifier(d.Name) || d.Name == "_" {
		return 0, plan.NewConfigurationError(plan.CauseMalformedBinding, "local",
			"binding name %q is not a valid identifier", d.Name)
	}
	if d.Type == "" || !d.typed && !isTypeExpr(d.Type) {
		return 0, plan.NewConfigurationError(plan.CauseMalformedBinding, "local."+d.Name,
			"binding type %q is not a Go type expression", d.Type)
	}
	if d.Init == nil {
		return 0, plan.NewConfigurationError(plan.CauseMalformedBinding, "local."+d.Name,
			"binding has no initializer")
	}
	if _, dup := r.index[d.Name]; dup {
		return 0, plan.NewConfigurationError(plan.CauseDuplicateBinding, "local."+d.Name,
			"binding %q is already declared", d.Name)
	}

	h := plan.Handle(len(r.bindings))
	r.bindings = append(r.bindings, plan.Binding{
		Name: d.Name,
		Type: d.Type,
		Expr: d.Expr,
		Init: d.Init,
	})
	r.index[d.Name] = h
	return h, nil
}

// Len returns the number of declared bindings.
func (r *Registry) Len() int { return len(r.bindings) }

// Bindings returns the bindings in declaration order.
func (r *Registry) Bindings() []plan.Binding { return slices.Clone(r.bindings) }

// isTypeExpr reports whether src parses as a Go type expression.
func isTypeExpr(src string) bool {
	if src == "" {
		return false
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return false
	}
	return isTypeNode(expr)
}

func isTypeNode(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident, *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.InterfaceType, *ast.StructType:
		return true
	case *ast.SelectorExpr:
		_, ok := e.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		return isTypeNode(e.X)
	case *ast.ParenExpr:
		return isTypeNode(e.X)
	case *ast.IndexExpr:
		return isTypeNode(e.X) && isTypeNode(e.Index)
	case *ast.IndexListExpr:
		if !isTypeNode(e.X) {
			return false
		}
		for _, idx := range e.Indices {
			if !isTypeNode(idx) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
