package structprovider

import (
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/isty2e/identedit/internal/apperr"
)

var (
	cMappings = []kindMapping{
		{"function_definition", "function"},
		{"struct_specifier", "struct"},
		{"enum_specifier", "enum"},
		{"declaration", "declaration"},
	}
	cppMappings = append(append([]kindMapping{}, cMappings...),
		kindMapping{"class_specifier", "class"},
		kindMapping{"function_definition", "function"},
		kindMapping{"template_declaration", "template"},
	)
)

// headerProvider disambiguates .h files: parsed under both the C and C++
// grammars, if exactly one succeeds that dialect is chosen, if both
// succeed C++ wins (headers are a superset of C in practice), and if
// both fail the C parse error surfaces.
type headerProvider struct{}

func (headerProvider) Lang() string         { return "c/c++ header" }
func (headerProvider) Extensions() []string { return []string{".h"} }
func (headerProvider) CanHandle(path string) bool {
	return extensionOf(path) == ".h"
}

func (headerProvider) Parse(source []byte) ([]Node, error) {
	cppNodes, cppErr := parseWithGrammar(cpp.GetLanguage(), cppMappings, source)
	if cppErr == nil {
		return cppNodes, nil
	}
	cNodes, cErr := parseWithGrammar(c.GetLanguage(), cMappings, source)
	if cErr == nil {
		return cNodes, nil
	}
	return nil, apperr.New(apperr.ParseFailure, "header parses as neither C nor C++: %s", cErr).
		WithSuggestion("Fix source")
}
