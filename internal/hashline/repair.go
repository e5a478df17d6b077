package hashline

import (
	"strings"

	"github.com/isty2e/identedit/internal/contenthash"
)

// prepareEditsForMode is a no-op in strict mode; in repair mode it may
// rewrite stale anchors and normalize pasted-back replacement text before
// the edits are ever checked for real.
func prepareEditsForMode(source string, edits []Edit, mode ApplyMode) ([]Edit, *ApplyError) {
	if mode == ModeStrict {
		return edits, nil
	}
	return prepareRepairEdits(source, edits)
}

func prepareRepairEdits(source string, edits []Edit) ([]Edit, *ApplyError) {
	check, err := CheckEdits(source, edits)
	if err != nil {
		return nil, &ApplyError{invalidRequest: err.Error()}
	}
	if check.OK {
		return normalizeRepairEditTexts(edits), nil
	}

	for _, m := range check.Mismatches {
		if !(m.Status == StatusRemappable && len(m.Remaps) == 1) {
			return nil, &ApplyError{Check: &check}
		}
	}

	remapped := remapAnchorsFromCheck(edits, check)
	normalized := normalizeRepairEditTexts(remapped)
	repairedCheck, err := CheckEdits(source, normalized)
	if err != nil {
		return nil, &ApplyError{invalidRequest: err.Error()}
	}
	if !repairedCheck.OK {
		return nil, &ApplyError{Check: &repairedCheck}
	}
	return normalized, nil
}

// remapKey identifies a single anchor occurrence within a specific edit, so
// a ReplaceLines edit's start and end anchors are remapped independently.
type remapKey struct {
	editIndex int
	anchor    string
}

func remapAnchorsFromCheck(edits []Edit, check CheckResult) []Edit {
	remapByAnchor := make(map[remapKey]string, len(check.Mismatches))
	for _, m := range check.Mismatches {
		if m.Status == StatusRemappable && len(m.Remaps) == 1 {
			target := m.Remaps[0]
			remapByAnchor[remapKey{m.EditIndex, m.Anchor}] = FormatLineRef(target.Line, target.Hash)
		}
	}

	out := make([]Edit, len(edits))
	for i, e := range edits {
		out[i] = e
		switch e.Kind {
		case KindSetLine:
			cp := *e.SetLine
			if remapped, ok := remapByAnchor[remapKey{i, cp.Anchor}]; ok {
				cp.Anchor = remapped
			}
			out[i].SetLine = &cp
		case KindReplaceLines:
			cp := *e.ReplaceLines
			if remapped, ok := remapByAnchor[remapKey{i, cp.StartAnchor}]; ok {
				cp.StartAnchor = remapped
			}
			if cp.EndAnchor != "" {
				if remapped, ok := remapByAnchor[remapKey{i, cp.EndAnchor}]; ok {
					cp.EndAnchor = remapped
				}
			}
			out[i].ReplaceLines = &cp
		case KindInsertAfter:
			cp := *e.InsertAfter
			if remapped, ok := remapByAnchor[remapKey{i, cp.Anchor}]; ok {
				cp.Anchor = remapped
			}
			out[i].InsertAfter = &cp
		}
	}
	return out
}

func normalizeRepairEditTexts(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	for i, e := range edits {
		out[i] = e
		switch e.Kind {
		case KindSetLine:
			cp := *e.SetLine
			cp.NewText = applyRepairTextHeuristics(cp.NewText)
			out[i].SetLine = &cp
		case KindReplaceLines:
			cp := *e.ReplaceLines
			cp.NewText = applyRepairTextHeuristics(cp.NewText)
			out[i].ReplaceLines = &cp
		case KindInsertAfter:
			cp := *e.InsertAfter
			cp.Text = applyRepairTextHeuristics(cp.Text)
			out[i].InsertAfter = &cp
		}
	}
	return out
}

// applyRepairMergeExpansion absorbs the common "merge two lines" edit: a
// single-anchor set_line whose current line ends in a continuation hint and
// whose replacement equals one of the three join variants of the current
// and next line is expanded to cover both lines.
func applyRepairMergeExpansion(lines []string, resolved []resolvedEdit) {
	for i := range resolved {
		op := &resolved[i].operation
		if op.kind != spanReplace {
			continue
		}
		if op.startLine != op.endLine || len(op.replacementLines) != 1 || op.startLine >= len(lines) {
			continue
		}
		currentLine := lines[op.startLine-1]
		nextLine := lines[op.startLine]
		if shouldExpandSingleLineMerge(currentLine, nextLine, op.replacementLines[0]) {
			op.endLine++
			resolved[i].span.EndLine = op.endLine
		}
	}
}

func shouldExpandSingleLineMerge(currentLine, nextLine, replacement string) bool {
	if !hasMergeContinuationHint(currentLine) {
		return false
	}
	exact := currentLine + nextLine
	if replacement == exact {
		return true
	}
	trimmedJoin := strings.TrimRight(currentLine, " \t") + strings.TrimLeft(nextLine, " \t")
	if replacement == trimmedJoin {
		return true
	}
	spacedJoin := strings.TrimRight(currentLine, " \t") + " " + strings.TrimLeft(nextLine, " \t")
	return replacement == spacedJoin
}

var mergeContinuationTokens = []string{"&&", "||", "??", "\\", ","}

func hasMergeContinuationHint(currentLine string) bool {
	trimmed := strings.TrimRight(currentLine, " \t")
	for _, token := range mergeContinuationTokens {
		if !strings.HasSuffix(trimmed, token) {
			continue
		}
		prefix := strings.TrimRight(trimmed[:len(trimmed)-len(token)], " \t")
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			return true
		}
	}
	return false
}

// applyRepairTextHeuristics strips a leading diff "+" prefix and/or a
// leading hashline display prefix from replacement text, but only when a
// strict majority (and, for the hash prefix, at least two) of the non-empty
// lines carry it — conservative enough to never strip ambiguous evidence.
func applyRepairTextHeuristics(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	nonEmpty := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return normalized
	}

	hashPrefixCount := 0
	plusPrefixCount := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidate := line
		if stripped, ok := stripDiffPlusPrefixOnce(candidate); ok {
			plusPrefixCount++
			candidate = stripped
		}
		if _, ok := stripHashlineDisplayPrefixOnce(candidate); ok {
			hashPrefixCount++
		}
	}

	stripHashPrefix := hashPrefixCount >= 2 && hashPrefixCount*2 > nonEmpty
	stripPlusPrefix := plusPrefixCount > 0 && plusPrefixCount*2 > nonEmpty

	out := make([]string, len(lines))
	for i, line := range lines {
		candidate := line
		if stripPlusPrefix {
			if stripped, ok := stripDiffPlusPrefixOnce(candidate); ok {
				candidate = stripped
			}
		}
		if stripHashPrefix {
			if stripped, ok := stripHashlineDisplayPrefixOnce(candidate); ok {
				candidate = stripped
			}
		}
		out[i] = candidate
	}
	return strings.Join(out, "\n")
}

func stripDiffPlusPrefixOnce(line string) (string, bool) {
	if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "++") {
		return line[1:], true
	}
	return line, false
}

// stripHashlineDisplayPrefixOnce recognizes a <digits>:<hex 8..64>| prefix
// whose hash is a genuine lowercase prefix of the remainder's blake3 digest,
// and strips it; a shape-valid but hash-mismatched prefix is left verbatim.
func stripHashlineDisplayPrefixOnce(line string) (string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != ':' {
		return line, false
	}
	i++

	hashStart := i
	for i < len(line) && isHexDigit(rune(line[i])) {
		i++
	}
	hashLen := i - hashStart
	if hashLen < DisplayMinHexLen || hashLen > DisplayMaxHexLen {
		return line, false
	}
	if i >= len(line) || line[i] != '|' {
		return line, false
	}

	hash := strings.ToLower(line[hashStart:i])
	content := line[i+1:]
	if !contenthash.HasPrefix([]byte(content), hash) {
		return line, false
	}
	return content, true
}
