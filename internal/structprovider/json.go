package structprovider

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjson "github.com/smacker/go-tree-sitter/json"

	"github.com/isty2e/identedit/internal/apperr"
)

// jsonProvider wraps tree-sitter JSON with semantic normalization —
// string escapes are decoded, "pair" nodes are kept
// alongside their unwrapped value node, and a value's name is its
// immediate parent key (or an array index, for elements of an array).
type jsonProvider struct{}

func (jsonProvider) Lang() string          { return "json" }
func (jsonProvider) Extensions() []string  { return []string{".json"} }
func (jsonProvider) CanHandle(path string) bool {
	return extensionOf(path) == ".json"
}

func (jsonProvider) Parse(source []byte) ([]Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsjson.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, apperr.Wrap(apperr.ParseFailure, err, "json parse failed")
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, apperr.New(apperr.ParseFailure, "invalid JSON").WithSuggestion("Fix source")
	}

	var nodes []Node
	var walk func(n *sitter.Node, name string)
	walk = func(n *sitter.Node, name string) {
		switch n.Type() {
		case "pair":
			keyNode := n.ChildByFieldName("key")
			valueNode := n.ChildByFieldName("value")
			if keyNode == nil || valueNode == nil {
				return
			}
			key := decodeJSONString(keyNode.Content(source))
			nodes = append(nodes, Node{
				Kind:  "pair",
				Name:  key,
				Text:  n.Content(source),
				Start: int(n.StartByte()),
				End:   int(n.EndByte()),
			})
			walk(valueNode, key)
			return
		case "object", "array":
			nodes = append(nodes, Node{
				Kind:  n.Type(),
				Name:  name,
				Text:  n.Content(source),
				Start: int(n.StartByte()),
				End:   int(n.EndByte()),
			})
			childKind := "element"
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if n.Type() == "object" {
					walk(child, name)
					continue
				}
				nodes = append(nodes, Node{
					Kind:  childKind,
					Name:  strconv.Itoa(i),
					Text:  child.Content(source),
					Start: int(child.StartByte()),
					End:   int(child.EndByte()),
				})
				walk(child, strconv.Itoa(i))
			}
			return
		case "string", "number", "true", "false", "null":
			text := n.Content(source)
			if n.Type() == "string" {
				text = decodeJSONString(text)
			}
			nodes = append(nodes, Node{
				Kind:  n.Type(),
				Name:  name,
				Text:  text,
				Start: int(n.StartByte()),
				End:   int(n.EndByte()),
			})
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), name)
		}
	}
	walk(root, "")
	return nodes, nil
}

// decodeJSONString strips the surrounding quotes and unescapes a raw JSON
// string token's standard escape sequences.
func decodeJSONString(raw string) string {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return raw
	}
	var sb strings.Builder
	body := raw[1 : len(raw)-1]
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			sb.WriteByte(body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '"', '\\', '/':
			sb.WriteByte(body[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(body[i])
		}
	}
	return sb.String()
}
