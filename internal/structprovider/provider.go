// Package structprovider implements the structure provider registry:
// mapping a file path to exactly one provider and parsing its bytes into
// a flat list of named, typed spans ("nodes") from which selection
// handles are built.
//
// Adapted from the tree-sitter Config/Provider split in providers/golang
// and providers/base, collapsed into a single Provider interface — this
// only needs "parse bytes into named spans", not a full DSL
// query-translation surface (NodeMapping, TranslateQuery, OptimizeQuery,
// scope detection), which belongs to a different feature (regex/DSL
// pattern-query transforms) this module does not implement.
package structprovider

// Node is one candidate handle target: a named, typed span of source text.
type Node struct {
	Kind  string
	Name  string
	Text  string
	Start int
	End   int
}

// Provider parses a file's bytes into the flat Node list the registry
// exposes to changeset resolution.
type Provider interface {
	// Lang is the canonical identifier, used only for diagnostics.
	Lang() string
	// Extensions lists the lowercase, dot-prefixed extensions this
	// provider accepts (e.g. ".go"). CanHandle is derived from this list
	// except for providers with custom matching (the header dual-dialect
	// provider).
	Extensions() []string
	// CanHandle reports whether this provider should be tried for path.
	CanHandle(path string) bool
	// Parse returns every candidate node found in source, or a
	// parse-failure error.
	Parse(source []byte) ([]Node, error)
}
