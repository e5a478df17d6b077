package hashline

// resolveEdits validates each edit's line bounds against the current line
// count and builds the internal resolvedEdit shape. It does not check
// anchor hashes — that is CheckEdits' job, run separately by Apply before
// edits are ever resolved.
func resolveEdits(lines []string, edits []Edit) ([]resolvedEdit, *ApplyError) {
	resolved := make([]resolvedEdit, 0, len(edits))
	for i, e := range edits {
		switch e.Kind {
		case KindSetLine:
			ref, err := ParseLineRef(e.SetLine.Anchor)
			if err != nil {
				return nil, &ApplyError{invalidRequest: err.Error()}
			}
			if aerr := ensureLineExists(lines, ref.Line); aerr != nil {
				return nil, aerr
			}
			resolved = append(resolved, resolvedEdit{
				editIndex: i,
				span:      span{Kind: spanReplace, StartLine: ref.Line, EndLine: ref.Line},
				operation: resolvedOperation{
					kind:             spanReplace,
					startLine:        ref.Line,
					endLine:          ref.Line,
					replacementLines: splitMultilineText(e.SetLine.NewText),
				},
			})

		case KindReplaceLines:
			start, err := ParseLineRef(e.ReplaceLines.StartAnchor)
			if err != nil {
				return nil, &ApplyError{invalidRequest: err.Error()}
			}
			if aerr := ensureLineExists(lines, start.Line); aerr != nil {
				return nil, aerr
			}
			endLine := start.Line
			if e.ReplaceLines.EndAnchor != "" {
				end, err := ParseLineRef(e.ReplaceLines.EndAnchor)
				if err != nil {
					return nil, &ApplyError{invalidRequest: err.Error()}
				}
				if aerr := ensureLineExists(lines, end.Line); aerr != nil {
					return nil, aerr
				}
				if end.Line < start.Line {
					return nil, invalidRequestf("replace_lines edit %d: end line %d precedes start line %d", i, end.Line, start.Line)
				}
				endLine = end.Line
			}
			resolved = append(resolved, resolvedEdit{
				editIndex: i,
				span:      span{Kind: spanReplace, StartLine: start.Line, EndLine: endLine},
				operation: resolvedOperation{
					kind:             spanReplace,
					startLine:        start.Line,
					endLine:          endLine,
					replacementLines: splitMultilineText(e.ReplaceLines.NewText),
				},
			})

		case KindInsertAfter:
			if e.InsertAfter.Text == "" {
				return nil, invalidRequestf("insert_after edit %d: text must not be empty", i)
			}
			ref, err := ParseLineRef(e.InsertAfter.Anchor)
			if err != nil {
				return nil, &ApplyError{invalidRequest: err.Error()}
			}
			if aerr := ensureLineExists(lines, ref.Line); aerr != nil {
				return nil, aerr
			}
			resolved = append(resolved, resolvedEdit{
				editIndex: i,
				span:      span{Kind: spanInsertAfter, StartLine: ref.Line},
				operation: resolvedOperation{
					kind:             spanInsertAfter,
					anchorLine:       ref.Line,
					replacementLines: splitMultilineText(e.InsertAfter.Text),
				},
			})
		}
	}
	return resolved, nil
}

func ensureLineExists(lines []string, line int) *ApplyError {
	if line < 1 || line > len(lines) {
		return invalidRequestf("line %d does not exist (file has %d lines)", line, len(lines))
	}
	return nil
}

// ensureNonOverlapping applies spec's three conflict rules pairwise.
func ensureNonOverlapping(resolved []resolvedEdit) *ApplyError {
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			if editsConflict(resolved[i], resolved[j]) {
				return &ApplyError{
					OverlapFirst:      resolved[i].editIndex,
					OverlapSecond:     resolved[j].editIndex,
					OverlapFirstSpan:  &resolved[i].span,
					OverlapSecondSpan: &resolved[j].span,
				}
			}
		}
	}
	return nil
}

func editsConflict(a, b resolvedEdit) bool {
	switch {
	case a.operation.kind == spanReplace && b.operation.kind == spanReplace:
		return a.operation.startLine <= b.operation.endLine && b.operation.startLine <= a.operation.endLine
	case a.operation.kind == spanInsertAfter && b.operation.kind == spanInsertAfter:
		return a.operation.anchorLine == b.operation.anchorLine
	case a.operation.kind == spanInsertAfter && b.operation.kind == spanReplace:
		return insertTouchesReplace(a.operation.anchorLine, b.operation.startLine, b.operation.endLine)
	default: // replace, insertAfter
		return insertTouchesReplace(b.operation.anchorLine, a.operation.startLine, a.operation.endLine)
	}
}

func insertTouchesReplace(anchor, start, end int) bool {
	lower := start - 1
	return anchor >= lower && anchor <= end
}

// Apply runs strict-mode hashline application: check, then splice.
func Apply(source string, edits []Edit) (ApplyResult, *ApplyError) {
	return ApplyWithMode(source, edits, ModeStrict)
}

// ApplyWithMode runs the full check -> (optional repair) -> resolve ->
// non-overlap -> bottom-up-splice pipeline.
func ApplyWithMode(source string, edits []Edit, mode ApplyMode) (ApplyResult, *ApplyError) {
	preparedEdits, aerr := prepareEditsForMode(source, edits, mode)
	if aerr != nil {
		return ApplyResult{}, aerr
	}

	check, err := CheckEdits(source, preparedEdits)
	if err != nil {
		return ApplyResult{}, &ApplyError{invalidRequest: err.Error()}
	}
	if !check.OK {
		return ApplyResult{}, &ApplyError{Check: &check}
	}

	layout := splitSourceLines(source)
	lines := append([]string(nil), layout.lines...)

	resolved, aerr := resolveEdits(lines, preparedEdits)
	if aerr != nil {
		return ApplyResult{}, aerr
	}

	if mode == ModeRepair {
		applyRepairMergeExpansion(lines, resolved)
	}

	if aerr := ensureNonOverlapping(resolved); aerr != nil {
		return ApplyResult{}, aerr
	}

	sortResolvedDescending(resolved)

	for _, edit := range resolved {
		switch edit.operation.kind {
		case spanReplace:
			startIndex := edit.operation.startLine - 1
			endIndex := edit.operation.endLine
			lines = spliceLines(lines, startIndex, endIndex, edit.operation.replacementLines)
		case spanInsertAfter:
			insertIndex := edit.operation.anchorLine
			lines = spliceLines(lines, insertIndex, insertIndex, edit.operation.replacementLines)
		}
	}

	content := joinSourceLines(lines, layout.hadTrailingNewline, layout.newline)
	return ApplyResult{
		Content:           content,
		OperationsTotal:   len(preparedEdits),
		OperationsApplied: len(preparedEdits),
	}, nil
}

// spliceLines replaces lines[start:end] with replacement, mirroring Rust's
// Vec::splice semantics (replacement may be shorter, longer, or empty).
func spliceLines(lines []string, start, end int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}
