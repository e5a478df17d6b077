package changeset

import (
	"os"
	"regexp"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/contenthash"
	"github.com/isty2e/identedit/internal/handle"
	"github.com/isty2e/identedit/internal/hashline"
	"github.com/isty2e/identedit/internal/structprovider"
)

// ResolveChangeset re-parses each FileChange's file with the registry and
// resolves every operation's target against the freshly read content,
// filling in each Operation's Preview. Implements resolve_changeset_targets,
// generalized across all five target kinds.
func ResolveChangeset(registry *structprovider.Registry, cs MultiFileChangeset) (MultiFileChangeset, error) {
	resolved := MultiFileChangeset{Transaction: cs.Transaction}
	for _, fc := range cs.Files {
		source, err := os.ReadFile(fc.File)
		if err != nil {
			return MultiFileChangeset{}, apperr.Wrap(apperr.IOError, err, "reading %s", fc.File)
		}

		resolvedFC := FileChange{File: fc.File}
		for _, op := range fc.Operations {
			resolvedOp, err := resolveOperation(registry, fc.File, source, op)
			if err != nil {
				return MultiFileChangeset{}, err
			}
			resolvedFC.Operations = append(resolvedFC.Operations, resolvedOp)
		}
		resolved.Files = append(resolved.Files, resolvedFC)
	}
	return resolved, nil
}

func resolveOperation(registry *structprovider.Registry, file string, source []byte, op Operation) (Operation, error) {
	switch op.Target.Kind {
	case TargetNode:
		return resolveNodeTarget(registry, file, source, op)
	case TargetLine:
		return resolveLineTarget(source, op)
	case TargetFileStart:
		return resolveFileBoundary(source, op, 0)
	case TargetFileEnd:
		return resolveFileBoundary(source, op, len(source))
	case TargetConfigPath:
		return resolveConfigPathTarget(source, op)
	default:
		return Operation{}, apperr.New(apperr.InvalidRequest, "unknown target kind %q", op.Target.Kind)
	}
}

// resolveNodeTarget resolves a node target in five steps: identity filter,
// falling back to (kind, expected_old_hash), span_hint tiebreak, and a
// final precondition hash check.
func resolveNodeTarget(registry *structprovider.Registry, file string, source []byte, op Operation) (Operation, error) {
	nodes, err := registry.Parse(file, source)
	if err != nil {
		return Operation{}, err
	}

	target := op.Target
	var candidates []structprovider.Node
	if target.Identity != "" {
		for _, n := range nodes {
			if nodeIdentity(n) == target.Identity {
				candidates = append(candidates, n)
			}
		}
	}
	if len(candidates) == 0 {
		for _, n := range nodes {
			if n.Kind == target.NodeKind && contenthash.IdentityHash([]byte(n.Text)) == target.ExpectedOldHash {
				candidates = append(candidates, n)
			}
		}
	}
	if len(candidates) == 0 {
		return Operation{}, apperr.New(apperr.TargetMissing, "no node in %s matches the given target", file).
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}

	if len(candidates) > 1 {
		if target.SpanHint == nil {
			return Operation{}, apperr.New(apperr.AmbiguousTarget, "%d candidates match in %s", len(candidates), file).
				WithSuggestion("Provide span_hint or refresh handles from 'identedit select'")
		}
		candidates = filterBySpanHint(candidates, *target.SpanHint)
		if len(candidates) != 1 {
			return Operation{}, apperr.New(apperr.AmbiguousTarget, "span_hint did not narrow to exactly one candidate in %s", file).
				WithSuggestion("Provide span_hint or refresh handles from 'identedit select'")
		}
	}

	match := candidates[0]
	if contenthash.IdentityHash([]byte(match.Text)) != target.ExpectedOldHash {
		return Operation{}, apperr.New(apperr.PreconditionFailed, "expected_old_hash no longer matches %s in %s", match.Name, file).
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}

	op.Preview = Preview{
		MatchedSpan: handle.Span{Start: match.Start, End: match.End},
		OldText:     match.Text,
		OldLen:      match.End - match.Start,
		NewText:     computeNewText(op, match.Text),
	}
	return op, nil
}

func nodeIdentity(n structprovider.Node) string {
	h := handle.FromParts("", handle.Span{Start: n.Start, End: n.End}, n.Kind, n.Name, n.Text)
	return h.Identity
}

func filterBySpanHint(candidates []structprovider.Node, hint handle.Span) []structprovider.Node {
	var out []structprovider.Node
	for _, c := range candidates {
		if c.Start == hint.Start && c.End == hint.End {
			out = append(out, c)
		}
	}
	return out
}

// computeNewText applies an operation kind's text transform ahead of
// apply. Move resolves like any other target (so Preview.OldText captures
// the live span before ExtractMoves ever runs) but its own span becomes
// empty, matching the delete half of the move: the text itself travels to
// the destination file via ExtractMoves, not through NewText here.
func computeNewText(op Operation, oldText string) string {
	switch op.Op.Kind {
	case OpDelete, OpMove:
		return ""
	case OpInsertBefore:
		return op.Op.NewText + oldText
	case OpInsertAfter, OpInsert:
		return oldText + op.Op.NewText
	case OpScopedRegex:
		re := regexp.MustCompile(op.Op.Pattern)
		return re.ReplaceAllString(oldText, op.Op.Replacement)
	default: // Replace, SetLine, ReplaceLines
		return op.Op.NewText
	}
}

// resolveLineTarget resolves a hashline anchor (or anchor pair) to a
// concrete byte span by running the hashline check against the current
// source, then locating the matched line(s) boundaries in bytes.
func resolveLineTarget(source []byte, op Operation) (Operation, error) {
	text := string(source)
	anchors := []hashline.AnchorRequest{{EditIndex: 0, Anchor: op.Target.Anchor}}
	if op.Target.EndAnchor != "" {
		anchors = append(anchors, hashline.AnchorRequest{EditIndex: 1, Anchor: op.Target.EndAnchor})
	}

	check, err := hashline.CheckAnchors(text, anchors)
	if err != nil {
		return Operation{}, apperr.New(apperr.InvalidRequest, "%s", err.Error())
	}
	if !check.OK {
		return Operation{}, anchorCheckToAppErr(check)
	}

	startRef, _ := hashline.ParseLineRef(op.Target.Anchor)
	endRef := startRef
	if op.Target.EndAnchor != "" {
		endRef, _ = hashline.ParseLineRef(op.Target.EndAnchor)
	}

	startByte, endByte, oldText := lineRangeBytes(text, startRef.Line, endRef.Line)
	op.Preview = Preview{
		MatchedSpan: handle.Span{Start: startByte, End: endByte},
		OldText:     oldText,
		OldLen:      endByte - startByte,
		NewText:     computeNewText(op, oldText),
	}
	return op, nil
}

func anchorCheckToAppErr(check hashline.CheckResult) error {
	switch {
	case check.Summary.Ambiguous > 0:
		return apperr.New(apperr.AmbiguousTarget, "line anchor is ambiguous (%d candidates)", check.Summary.Ambiguous).
			WithSuggestion("Provide span_hint or refresh handles from 'identedit select'")
	case check.Summary.Remappable > 0:
		return apperr.New(apperr.PreconditionFailed, "line anchor is stale but remappable").
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	default:
		return apperr.New(apperr.TargetMissing, "line anchor does not match current content").
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}
}

// lineRangeBytes returns the byte span covering 1-indexed lines
// [startLine, endLine] inclusive, and the text within it. A line ends at
// "\n", "\r\n" or a bare "\r", as hashline numbers lines.
func lineRangeBytes(text string, startLine, endLine int) (start, end int, content string) {
	line := 1
	pos := 0
	for pos < len(text) && line < startLine {
		if text[pos] == '\n' || (text[pos] == '\r' && (pos+1 == len(text) || text[pos+1] != '\n')) {
			line++
		}
		pos++
	}
	start = pos
	for pos < len(text) && line <= endLine {
		if text[pos] == '\n' || (text[pos] == '\r' && (pos+1 == len(text) || text[pos+1] != '\n')) {
			line++
		}
		pos++
	}
	end = pos
	return start, end, text[start:end]
}

// resolveFileBoundary implements the file_start/file_end target: a
// zero-length span at byte 0 or len(file), gated on a whole-file hash
// precondition.
func resolveFileBoundary(source []byte, op Operation, at int) (Operation, error) {
	if contenthash.IdentityHash(source) != op.Target.ExpectedFileHash {
		return Operation{}, apperr.New(apperr.PreconditionFailed, "expected_file_hash no longer matches").
			WithSuggestion("Re-run 'identedit select' to get updated handles")
	}
	op.Preview = Preview{
		MatchedSpan: handle.Span{Start: at, End: at},
		OldText:     "",
		OldLen:      0,
		NewText:     op.Op.NewText,
	}
	return op, nil
}

// Move is a resolved cross-file move extracted from a changeset by
// ExtractMoves: MovedText is the already-resolved live text of the span
// that is leaving SourceFile, and DestinationFile/MoveAnchor describe
// where it must land once the source file is renamed into place. The
// apply engine, not this package, performs the actual rename: this type
// only carries what ExtractMoves could resolve from the wire request.
type Move struct {
	SourceFile      string
	DestinationFile string
	MoveAnchor      string
	MovedText       string
}

// ExtractMoves must run after ResolveChangeset, once every Move
// operation's own target has been resolved against its source file's
// live content (the generic node/line/boundary dispatch in
// resolveOperation does not care about Op.Kind, so a Move operation's
// Preview.OldText is already populated by the time ExtractMoves sees it).
// It splits each Move into a Delete left behind in the source file's own
// FileChange, and returns the moves themselves as a side list: a move's
// destination is not a file that was read when cs was resolved (it may
// not exist yet), so it cannot be folded back into an ordinary
// FileChange here. The apply engine composes the destination's final
// content from the source's spliced bytes and commits the rename.
func ExtractMoves(cs MultiFileChangeset) (MultiFileChangeset, []Move) {
	out := MultiFileChangeset{Transaction: cs.Transaction}
	var moves []Move

	for _, fc := range cs.Files {
		outFC := FileChange{File: fc.File}
		for _, op := range fc.Operations {
			if op.Op.Kind != OpMove {
				outFC.Operations = append(outFC.Operations, op)
				continue
			}
			outFC.Operations = append(outFC.Operations, Operation{
				Target: op.Target,
				Op:     Op{Kind: OpDelete},
				Preview: Preview{
					MatchedSpan: op.Preview.MatchedSpan,
					OldText:     op.Preview.OldText,
					OldHash:     op.Preview.OldHash,
					OldLen:      op.Preview.OldLen,
				},
			})
			moves = append(moves, Move{
				SourceFile:      fc.File,
				DestinationFile: op.Op.DestinationFile,
				MoveAnchor:      op.Op.MoveAnchor,
				MovedText:       op.Preview.OldText,
			})
		}
		out.Files = append(out.Files, outFC)
	}
	return out, moves
}

// InsertAtAnchor inserts text immediately after the line matching anchor
// in content. The apply engine uses this to compose a move destination's
// final content directly from the source's already-spliced bytes instead
// of re-reading the destination file, which a move may never have
// touched before, or which may not exist yet.
func InsertAtAnchor(content, anchor, text string) (string, error) {
	check, err := hashline.CheckAnchors(content, []hashline.AnchorRequest{{EditIndex: 0, Anchor: anchor}})
	if err != nil {
		return "", apperr.New(apperr.InvalidRequest, "%s", err.Error())
	}
	if !check.OK {
		return "", anchorCheckToAppErr(check)
	}
	ref, _ := hashline.ParseLineRef(anchor)
	_, end, _ := lineRangeBytes(content, ref.Line, ref.Line)
	return content[:end] + text + content[end:], nil
}
