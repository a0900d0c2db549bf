// Package planfile loads loop plan documents and turns them into compiler
// directives.
//
// Every format describes the same document:
//
//	set:   ordered list of option blocks, e.g. {scheduler: "static", collect: true}
//	local: ordered list of binding declarations, "name Type = expr"
//
// Supported formats are CUE, YAML, TOML, HCL and JSON, chosen by file
// extension. Each is normalized to JSON and checked against an embedded JSON
// schema before decoding, so all formats share one set of structural rules.
// Option semantics (unknown names, value types) are left to the compiler.
package planfile
