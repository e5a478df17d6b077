package applyengine

import (
	"sort"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/contenthash"
)

// SpliceFile computes a FileChange's resulting content against source
// without writing anything, re-verifying the same preconditions apply
// itself re-checks. Used by `identedit diff` to preview a change.
func SpliceFile(source []byte, fc changeset.FileChange) (string, int, error) {
	return spliceFile(source, fc)
}

// spliceFile takes the freshly read source, re-verifies every operation's preconditions
// by rehashing the live byte span the preview recorded — the preview is
// authoritative only at resolve time; apply re-reads each file and checks
// again before touching it — rejects overlapping spans, and splices all
// operations bottom-up.
func spliceFile(source []byte, fc changeset.FileChange) (string, int, error) {
	ops := append([]changeset.Operation(nil), fc.Operations...)

	for _, op := range ops {
		span := op.Preview.MatchedSpan
		if !span.Valid(len(source)) {
			return "", 0, apperr.New(apperr.PathChanged, "%s: matched span no longer fits the current file", fc.File).
				WithSuggestion("Re-run 'identedit select' and 'identedit transform', then retry apply")
		}
		live := source[span.Start:span.End]
		expected := op.Preview.OldHash
		if expected == "" && op.Preview.OldText != "" {
			expected = contenthash.IdentityHash([]byte(op.Preview.OldText))
		}
		if expected != "" && contenthash.IdentityHash(live) != expected {
			return "", 0, apperr.New(apperr.PreconditionFailed, "%s: content at target span has changed since it was read", fc.File).
				WithSuggestion("Re-run 'identedit select' to get updated handles")
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Preview.MatchedSpan.Start < ops[j].Preview.MatchedSpan.Start
	})
	for i := 1; i < len(ops); i++ {
		if ops[i].Preview.MatchedSpan.Start < ops[i-1].Preview.MatchedSpan.End {
			return "", 0, apperr.New(apperr.InvalidRequest, "%s: operations %d and %d target overlapping spans", fc.File, i-1, i)
		}
	}

	// Splice bottom-up so earlier byte offsets stay valid.
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Preview.MatchedSpan.Start > ops[j].Preview.MatchedSpan.Start
	})
	content := append([]byte(nil), source...)
	for _, op := range ops {
		span := op.Preview.MatchedSpan
		rewritten := make([]byte, 0, len(content)-span.Len()+len(op.Preview.NewText))
		rewritten = append(rewritten, content[:span.Start]...)
		rewritten = append(rewritten, []byte(op.Preview.NewText)...)
		rewritten = append(rewritten, content[span.End:]...)
		content = rewritten
	}
	return string(content), len(ops), nil
}
