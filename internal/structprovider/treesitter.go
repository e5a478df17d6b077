package structprovider

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/isty2e/identedit/internal/apperr"
)

// kindMapping is one (grammar node type -> universal kind) rule, adapted
// from providers/golang/config.go's aliasMap but inverted: there the
// alias maps a DSL token to node types, here a node type maps directly to
// the kind a handle is emitted under.
type kindMapping struct {
	nodeType string
	kind     string
}

// languageSpec bundles a tree-sitter grammar with its node-kind table.
type languageSpec struct {
	lang       string
	extensions []string
	sitter     *sitter.Language
	mappings   []kindMapping
}

var bundledLanguages = []languageSpec{
	{
		lang:       "go",
		extensions: []string{".go"},
		sitter:     golang.GetLanguage(),
		mappings: []kindMapping{
			{"function_declaration", "function"},
			{"method_declaration", "method"},
			{"type_spec", "type"},
			{"const_spec", "const"},
			{"var_spec", "var"},
			{"import_spec", "import"},
		},
	},
	{
		lang:       "python",
		extensions: []string{".py"},
		sitter:     python.GetLanguage(),
		mappings: []kindMapping{
			{"function_definition", "function"},
			{"class_definition", "class"},
		},
	},
	{
		lang:       "javascript",
		extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		sitter:     javascript.GetLanguage(),
		mappings: []kindMapping{
			{"function_declaration", "function"},
			{"method_definition", "method"},
			{"class_declaration", "class"},
			{"lexical_declaration", "var"},
		},
	},
	{
		lang:       "typescript",
		extensions: []string{".ts", ".tsx"},
		sitter:     typescript.GetLanguage(),
		mappings: []kindMapping{
			{"function_declaration", "function"},
			{"method_definition", "method"},
			{"class_declaration", "class"},
			{"interface_declaration", "interface"},
		},
	},
	{
		lang:       "php",
		extensions: []string{".php"},
		sitter:     php.GetLanguage(),
		mappings: []kindMapping{
			{"function_definition", "function"},
			{"method_declaration", "method"},
			{"class_declaration", "class"},
		},
	},
}

// treeSitterProvider walks a parsed tree and emits a Node per mapped type.
type treeSitterProvider struct{ spec languageSpec }

func (p *treeSitterProvider) Lang() string          { return p.spec.lang }
func (p *treeSitterProvider) Extensions() []string  { return p.spec.extensions }
func (p *treeSitterProvider) CanHandle(path string) bool {
	return extensionOf(path) != "" && containsExt(p.spec.extensions, extensionOf(path))
}

func (p *treeSitterProvider) Parse(source []byte) ([]Node, error) {
	return parseWithGrammar(p.spec.sitter, p.spec.mappings, source)
}

func parseWithGrammar(lang *sitter.Language, mappings []kindMapping, source []byte) ([]Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, apperr.Wrap(apperr.ParseFailure, err, "tree-sitter parse failed")
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, apperr.New(apperr.ParseFailure, "source contains syntax errors").
			WithSuggestion("Fix source")
	}

	kindByType := make(map[string]string, len(mappings))
	for _, m := range mappings {
		kindByType[m.nodeType] = m.kind
	}

	var nodes []Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if kind, ok := kindByType[n.Type()]; ok {
			text := n.Content(source)
			if strings.TrimSpace(text) != "" {
				nodes = append(nodes, Node{
					Kind:  kind,
					Name:  extractName(n, source),
					Text:  text,
					Start: int(n.StartByte()),
					End:   int(n.EndByte()),
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return nodes, nil
}

// extractName looks for a "name" field first (how most tree-sitter
// grammars expose a declaration's identifier), then falls back to the
// first identifier-shaped named child.
func extractName(n *sitter.Node, source []byte) string {
	if named := n.ChildByFieldName("name"); named != nil {
		return named.Content(source)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if strings.Contains(child.Type(), "identifier") {
			return child.Content(source)
		}
	}
	return ""
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(path[idx:]))
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
