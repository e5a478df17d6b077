package changeset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/contenthash"
	"github.com/isty2e/identedit/internal/handle"
)

// configPathSegment is one step of a dot/bracket path into a JSON
// document: either an object key or an array index.
type configPathSegment struct {
	key   string
	index int
	isIdx bool
}

// parseConfigPath splits a path like "service.ports[0].name" into its
// key/index segments.
func parseConfigPath(path string) ([]configPathSegment, error) {
	var segments []configPathSegment
	i := 0
	for i < len(path) {
		switch {
		case path[i] == '.':
			i++
		case path[i] == '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated '[' in config path %q", path)
			}
			idx, err := strconv.Atoi(path[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("invalid array index in config path %q", path)
			}
			segments = append(segments, configPathSegment{index: idx, isIdx: true})
			i += end + 1
		default:
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			segments = append(segments, configPathSegment{key: path[start:i]})
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("config path is empty")
	}
	return segments, nil
}

// resolveConfigPathTarget is the minimal format-specific resolver spec'd
// for config_path targets: JSON only, a dot/bracket path walked straight
// over the source bytes (no AST, no provider registry involved) down to
// the byte span of the value it names. Past this function the result is
// an ordinary node-operation-shaped Operation — the apply engine never
// needs to know config_path targets exist.
func resolveConfigPathTarget(source []byte, op Operation) (Operation, error) {
	segments, err := parseConfigPath(op.Target.Path)
	if err != nil {
		return Operation{}, apperr.New(apperr.InvalidSelector, "%s", err.Error())
	}

	start, end, err := locateJSONPath(string(source), segments)
	if err != nil {
		return Operation{}, apperr.New(apperr.TargetMissing, "config path %s: %s", op.Target.Path, err.Error()).
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}

	matched := source[start:end]
	if contenthash.IdentityHash(matched) != op.Target.ExpectedOldHash {
		return Operation{}, apperr.New(apperr.PreconditionFailed, "expected_old_hash no longer matches config path %s", op.Target.Path).
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}

	op.Preview = Preview{
		MatchedSpan: handle.Span{Start: start, End: end},
		OldText:     string(matched),
		OldLen:      end - start,
		NewText:     computeNewText(op, string(matched)),
	}
	return op, nil
}

// jsonScanner is a byte-offset-tracking JSON reader used only to locate a
// config path's value span; it does not build a tree.
type jsonScanner struct {
	s   string
	pos int
}

func (p *jsonScanner) skipWS() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonScanner) skipString() error {
	if p.pos >= len(p.s) || p.s[p.pos] != '"' {
		return fmt.Errorf("expected string at byte %d", p.pos)
	}
	p.pos++
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		if c == '"' {
			p.pos++
			return nil
		}
		p.pos++
	}
	return fmt.Errorf("unterminated string")
}

// skipValue advances past one JSON value starting at pos and returns its
// [start,end) byte span.
func (p *jsonScanner) skipValue() (int, int, error) {
	p.skipWS()
	start := p.pos
	if p.pos >= len(p.s) {
		return 0, 0, fmt.Errorf("unexpected end of input")
	}
	var err error
	switch p.s[p.pos] {
	case '{':
		err = p.skipObject()
	case '[':
		err = p.skipArray()
	case '"':
		err = p.skipString()
	default:
		for p.pos < len(p.s) && strings.IndexByte(",}] \t\n\r", p.s[p.pos]) < 0 {
			p.pos++
		}
	}
	if err != nil {
		return 0, 0, err
	}
	return start, p.pos, nil
}

// skipObject consumes a whole object, advancing pos past its closing
// brace; member lookup by key is locateJSONPath's job, not this one's.
func (p *jsonScanner) skipObject() error {
	p.pos++ // {
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return nil
	}
	for {
		p.skipWS()
		if err := p.skipString(); err != nil {
			return err
		}
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return fmt.Errorf("expected ':' in object")
		}
		p.pos++
		if _, _, err := p.skipValue(); err != nil {
			return err
		}
		p.skipWS()
		if p.pos >= len(p.s) {
			return fmt.Errorf("unterminated object")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == '}' {
			p.pos++
			return nil
		}
		return fmt.Errorf("expected ',' or '}'")
	}
}

// skipArray consumes a whole array, advancing pos past its closing
// bracket; element lookup by index is locateJSONPath's job, not this one's.
func (p *jsonScanner) skipArray() error {
	p.pos++ // [
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return nil
	}
	for {
		if _, _, err := p.skipValue(); err != nil {
			return err
		}
		p.skipWS()
		if p.pos >= len(p.s) {
			return fmt.Errorf("unterminated array")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == ']' {
			p.pos++
			return nil
		}
		return fmt.Errorf("expected ',' or ']'")
	}
}

// rawJSONKey strips a quoted key token's surrounding quotes without
// decoding escapes — sufficient for the plain ASCII keys a config path
// names.
func rawJSONKey(token string) string {
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		return token[1 : len(token)-1]
	}
	return token
}

// locateJSONPath walks segments into text's JSON document and returns the
// byte span of the value the last segment names.
func locateJSONPath(text string, segments []configPathSegment) (int, int, error) {
	valStart, valEnd := 0, len(text)
	for _, seg := range segments {
		p := &jsonScanner{s: text, pos: valStart}
		p.skipWS()

		if seg.isIdx {
			if p.pos >= len(p.s) || p.s[p.pos] != '[' {
				return 0, 0, fmt.Errorf("expected an array")
			}
			p.pos++
			found := false
			for i := 0; ; i++ {
				p.skipWS()
				if p.pos < len(p.s) && p.s[p.pos] == ']' {
					break
				}
				start, end, err := p.skipValue()
				if err != nil {
					return 0, 0, err
				}
				if i == seg.index {
					valStart, valEnd = start, end
					found = true
				}
				p.skipWS()
				if p.pos < len(p.s) && p.s[p.pos] == ',' {
					p.pos++
					continue
				}
				break
			}
			if !found {
				return 0, 0, fmt.Errorf("array index %d out of range", seg.index)
			}
			continue
		}

		if p.pos >= len(p.s) || p.s[p.pos] != '{' {
			return 0, 0, fmt.Errorf("expected an object for key %q", seg.key)
		}
		p.pos++
		found := false
		for {
			p.skipWS()
			if p.pos < len(p.s) && p.s[p.pos] == '}' {
				break
			}
			keyStart := p.pos
			if err := p.skipString(); err != nil {
				return 0, 0, err
			}
			key := rawJSONKey(p.s[keyStart:p.pos])
			p.skipWS()
			if p.pos >= len(p.s) || p.s[p.pos] != ':' {
				return 0, 0, fmt.Errorf("expected ':' after key %q", key)
			}
			p.pos++
			start, end, err := p.skipValue()
			if err != nil {
				return 0, 0, err
			}
			if key == seg.key {
				valStart, valEnd = start, end
				found = true
			}
			p.skipWS()
			if p.pos < len(p.s) && p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if !found {
			return 0, 0, fmt.Errorf("key %q not found", seg.key)
		}
	}
	return valStart, valEnd, nil
}
