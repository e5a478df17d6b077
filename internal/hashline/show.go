package hashline

import "strings"

// sourceLayout is a source file split into lines with enough metadata to
// reassemble byte-identical output for unchanged input.
type sourceLayout struct {
	lines              []string
	hadTrailingNewline bool
	newline            string
}

// splitSourceLines recognizes \n, \r\n, and bare \r as line terminators and
// records which terminator style to use on reassembly.
func splitSourceLines(source string) sourceLayout {
	lines, hadTrailingNewline := splitLineContents(source)
	return sourceLayout{
		lines:              lines,
		hadTrailingNewline: hadTrailingNewline,
		newline:            detectNewlineStyle(source),
	}
}

// splitLineContents performs a byte-level scan recognizing all three
// terminator styles, returning line contents with terminators stripped.
func splitLineContents(source string) (lines []string, hadTrailingNewline bool) {
	if source == "" {
		return nil, false
	}
	var cur strings.Builder
	i := 0
	n := len(source)
	for i < n {
		c := source[i]
		if c == '\n' {
			lines = append(lines, cur.String())
			cur.Reset()
			i++
			continue
		}
		if c == '\r' {
			lines = append(lines, cur.String())
			cur.Reset()
			if i+1 < n && source[i+1] == '\n' {
				i += 2
			} else {
				i++
			}
			continue
		}
		cur.WriteByte(c)
		i++
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
		return lines, false
	}
	return lines, true
}

// joinSourceLines reassembles lines using the recorded newline style,
// appending a trailing terminator only if the original had one.
func joinSourceLines(lines []string, hadTrailingNewline bool, newline string) string {
	if len(lines) == 0 {
		if hadTrailingNewline {
			return ""
		}
		return ""
	}
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(line)
		if i < len(lines)-1 || hadTrailingNewline {
			sb.WriteString(newline)
		}
	}
	return sb.String()
}

// detectNewlineStyle returns "\r\n" only when the source contains CRLF and
// no lone LF or lone CR; "\r" only when it contains CR and no LF at all;
// otherwise it defaults to "\n".
func detectNewlineStyle(source string) string {
	if strings.Contains(source, "\r\n") && !containsLoneLF(source) && !containsLoneCR(source) {
		return "\r\n"
	}
	if strings.Contains(source, "\r") && !strings.Contains(source, "\n") {
		return "\r"
	}
	return "\n"
}

func containsLoneLF(source string) bool {
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' && (i == 0 || source[i-1] != '\r') {
			return true
		}
	}
	return false
}

func containsLoneCR(source string) bool {
	for i := 0; i < len(source); i++ {
		if source[i] == '\r' && (i+1 >= len(source) || source[i+1] != '\n') {
			return true
		}
	}
	return false
}

// ShowHashedLines returns every line of source paired with its 1-based line
// number and line hash.
func ShowHashedLines(source string) []HashedLine {
	lines, _ := splitLineContents(source)
	out := make([]HashedLine, 0, len(lines))
	for i, content := range lines {
		out = append(out, HashedLine{
			Line:    i + 1,
			Hash:    computeLineHash(content),
			Content: content,
		})
	}
	return out
}

// FormatHashedLines renders the <line>:<hash>|<content> display form used
// by `identedit hashline show`, one per line joined by \n.
func FormatHashedLines(source string) string {
	hashed := ShowHashedLines(source)
	parts := make([]string, len(hashed))
	for i, hl := range hashed {
		parts[i] = FormatLineRef(hl.Line, hl.Hash) + "|" + hl.Content
	}
	return strings.Join(parts, "\n")
}

// splitMultilineText normalizes \r\n to \n and splits on \n. An empty
// string produces a nil slice (used by ReplaceLines to mean "delete the
// range").
func splitMultilineText(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}
