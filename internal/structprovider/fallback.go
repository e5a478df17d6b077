package structprovider

import (
	"strings"
	"unicode/utf8"

	"github.com/isty2e/identedit/internal/apperr"
)

// fallbackProvider is a heuristic, never-rejecting provider for
// extensions no other provider claims. It keeps the three boundary
// disciplines (header-line, indentation-based, brace-based) and
// suppresses matches inside strings and comments, but does not reproduce
// every bracket/quote dialect (no JS template-literal `${...}` re-entry,
// no regex-vs-division disambiguation, single- and double-quoted strings
// and backtick templates share one escape rule) — documented as a
// deliberate scope reduction.
type fallbackProvider struct{}

func (fallbackProvider) Lang() string          { return "fallback" }
func (fallbackProvider) Extensions() []string  { return nil }
func (fallbackProvider) CanHandle(string) bool { return true }

var headerPatterns = []struct {
	keyword   string
	kind      string
	discipline string // "brace", "indent", "header"
}{
	{"function ", "function", "brace"},
	{"func ", "function", "brace"},
	{"def ", "function", "indent"},
	{"class ", "class", "indent"},
	{"struct ", "struct", "brace"},
	{"interface ", "interface", "brace"},
}

func (fallbackProvider) Parse(source []byte) ([]Node, error) {
	if !utf8.Valid(source) {
		return nil, apperr.New(apperr.ParseFailure, "non-UTF-8 input").WithSuggestion("Fix source")
	}

	text := string(source)
	lines := splitKeepOffsets(text)
	state := lexState{}

	var nodes []Node
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		visible := state.consumeLine(line.text)
		trimmed := strings.TrimSpace(visible)
		if trimmed == "" {
			continue
		}

		for _, pat := range headerPatterns {
			idx := strings.Index(trimmed, pat.keyword)
			if idx < 0 || (idx > 0 && isIdentRune(rune(trimmed[idx-1]))) {
				continue
			}
			name := extractFallbackName(trimmed[idx+len(pat.keyword):])
			if name == "" {
				continue
			}

			var endOffset int
			switch pat.discipline {
			case "header":
				endOffset = line.end
			case "indent":
				endOffset = scanIndentBlock(lines, i)
			default: // brace
				endOffset = scanBraceBlock(text, lines, i)
			}

			body := text[line.start:endOffset]
			if strings.TrimSpace(body) == "" {
				continue
			}
			nodes = append(nodes, Node{
				Kind:  pat.kind,
				Name:  name,
				Text:  body,
				Start: line.start,
				End:   endOffset,
			})
			break
		}
	}
	return nodes, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func extractFallbackName(rest string) string {
	rest = strings.TrimLeft(rest, " \t*&")
	end := 0
	for end < len(rest) && (isIdentRune(rune(rest[end]))) {
		end++
	}
	return rest[:end]
}

type lineOffset struct {
	text       string
	start, end int
}

func splitKeepOffsets(text string) []lineOffset {
	var out []lineOffset
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, lineOffset{text: text[start:i], start: start, end: i + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, lineOffset{text: text[start:], start: start, end: len(text)})
	}
	return out
}

func indentOf(s string) int {
	n := 0
	for _, r := range s {
		if r == ' ' {
			n++
		} else if r == '\t' {
			n += 8
		} else {
			break
		}
	}
	return n
}

// scanIndentBlock extends the header line while following lines are more
// deeply indented (blank lines are kept if a deeper-indented line follows).
func scanIndentBlock(lines []lineOffset, headerIdx int) int {
	baseIndent := indentOf(lines[headerIdx].text)
	end := lines[headerIdx].end
	i := headerIdx + 1
	for i < len(lines) {
		if strings.TrimSpace(lines[i].text) == "" {
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j].text) == "" {
				j++
			}
			if j < len(lines) && indentOf(lines[j].text) > baseIndent {
				end = lines[i].end
				i++
				continue
			}
			break
		}
		if indentOf(lines[i].text) <= baseIndent {
			break
		}
		end = lines[i].end
		i++
	}
	return end
}

// scanBraceBlock tracks `{...}` nesting depth starting at the first `{`
// at or after the header line, skipping braces found inside simple string
// or line-comment regions.
func scanBraceBlock(text string, lines []lineOffset, headerIdx int) int {
	pos := lines[headerIdx].start
	depth := 0
	seenOpen := false
	var inString byte
	for pos < len(text) {
		c := text[pos]
		if inString != 0 {
			if c == '\\' {
				pos += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			pos++
			continue
		}
		switch c {
		case '"', '\'', '`':
			inString = c
		case '/':
			if pos+1 < len(text) && text[pos+1] == '/' {
				for pos < len(text) && text[pos] != '\n' {
					pos++
				}
				continue
			}
		case '{':
			depth++
			seenOpen = true
		case '}':
			depth--
			if seenOpen && depth == 0 {
				return pos + 1
			}
		}
		pos++
	}
	return lines[headerIdx].end
}

// lexState tracks multi-line comment and string context across lines so
// a header keyword found inside either is ignored. inBlockComment
// carries a /* */ region across the newline; inString carries an
// unterminated quote across the newline too (a real unterminated string
// is a syntax error in every language this scanner covers, but treating
// it as "still open" is the safe direction: it only suppresses matches,
// never fabricates one).
type lexState struct {
	inBlockComment bool
	inString       byte
}

// consumeLine strips block-comment, line-comment, and string-literal
// text from line and returns what remains visible to the header-pattern
// scan, so a keyword like "class " inside a quoted string never matches.
func (s *lexState) consumeLine(line string) string {
	var sb strings.Builder
	i := 0
	for i < len(line) {
		if s.inBlockComment {
			if idx := strings.Index(line[i:], "*/"); idx >= 0 {
				s.inBlockComment = false
				i += idx + 2
				continue
			}
			return sb.String()
		}
		if s.inString != 0 {
			c := line[i]
			if c == '\\' {
				i += 2
				continue
			}
			if c == s.inString {
				s.inString = 0
			}
			i++
			continue
		}
		if strings.HasPrefix(line[i:], "/*") {
			s.inBlockComment = true
			i += 2
			continue
		}
		if strings.HasPrefix(line[i:], "//") || strings.HasPrefix(line[i:], "#") {
			break
		}
		switch line[i] {
		case '"', '\'', '`':
			s.inString = line[i]
			i++
			continue
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}
