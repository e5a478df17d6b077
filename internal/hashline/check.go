package hashline

// CheckAnchors checks a batch of (edit_index, anchor) requests against the
// live line/hash table of source. Each anchor is classified matched,
// mismatch, remappable, or ambiguous.
func CheckAnchors(source string, anchors []AnchorRequest) (CheckResult, error) {
	hashed := ShowHashedLines(source)
	lineToHash := make(map[int]string, len(hashed))
	hashToLines := make(map[string][]int, len(hashed))
	for _, hl := range hashed {
		lineToHash[hl.Line] = hl.Hash
		hashToLines[hl.Hash] = append(hashToLines[hl.Hash], hl.Line)
	}

	var summary CheckSummary
	var mismatches []Mismatch

	for _, req := range anchors {
		summary.Total++

		ref, err := ParseLineRef(req.Anchor)
		if err != nil {
			return CheckResult{}, err
		}

		actualHash, lineExists := lineToHash[ref.Line]
		if lineExists && actualHash == ref.Hash {
			summary.Matched++
			continue
		}

		summary.Mismatched++

		candidates := hashToLines[ref.Hash]
		var status MismatchStatus
		var remaps []RemapTarget
		switch {
		case len(candidates) == 1:
			summary.Remappable++
			status = StatusRemappable
			remaps = []RemapTarget{{Line: candidates[0], Hash: ref.Hash}}
		case len(candidates) > 1:
			summary.Ambiguous++
			status = StatusAmbiguous
			for _, line := range candidates {
				remaps = append(remaps, RemapTarget{Line: line, Hash: ref.Hash})
			}
		default:
			status = StatusMismatch
		}

		var actual string
		if lineExists {
			actual = actualHash
		}
		mismatches = append(mismatches, Mismatch{
			EditIndex:    req.EditIndex,
			Anchor:       req.Anchor,
			Line:         ref.Line,
			ExpectedHash: ref.Hash,
			ActualHash:   actual,
			Status:       status,
			Remaps:       remaps,
		})
	}

	return CheckResult{OK: summary.Mismatched == 0, Summary: summary, Mismatches: mismatches}, nil
}

// CheckEdits is a convenience wrapper that builds the anchor batch from a
// list of edits and delegates to CheckAnchors.
func CheckEdits(source string, edits []Edit) (CheckResult, error) {
	var anchors []AnchorRequest
	for i, e := range edits {
		anchors = append(anchors, e.anchorsWithIndex(i)...)
	}
	return CheckAnchors(source, anchors)
}

// CheckRefs checks a bare list of anchor strings, each treated as its own
// edit index 0..n-1 — used by `identedit hashline check` to validate the
// anchors given to it.
func CheckRefs(source string, refs []string) (CheckResult, error) {
	anchors := make([]AnchorRequest, len(refs))
	for i, r := range refs {
		anchors[i] = AnchorRequest{EditIndex: i, Anchor: r}
	}
	return CheckAnchors(source, anchors)
}
