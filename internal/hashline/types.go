// Package hashline implements the line-anchor engine: computing <line,hash>
// tuples over a file's lines, checking a batch of anchors for drift,
// applying set/replace/insert-after edits, and an optional repair mode that
// remaps unambiguously-stale anchors and normalizes pasted-back text.
package hashline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/contenthash"
)

// PublicHexLen is the anchor hash length embedded in <line>:<hash> text.
const PublicHexLen = contenthash.LineHexLen

// DisplayMinHexLen and DisplayMaxHexLen bound the flexible hash-prefix
// window recognized by repair's prefix-stripping heuristic: pasted-back
// hashline-annotated text may carry a longer or shorter hex run than the
// canonical anchor length, as long as it is a genuine prefix of the line's
// full digest.
const (
	DisplayMinHexLen = 8
	DisplayMaxHexLen = 64
)

// HashedLine is one line of a file paired with its hash.
type HashedLine struct {
	Line    int    `json:"line"` // 1-based
	Hash    string `json:"hash"`
	Content string `json:"content"` // line content, terminator excluded
}

// LineRef is a parsed <line>:<hash> anchor.
type LineRef struct {
	Line int
	Hash string
}

// MismatchStatus classifies why an anchor failed to match the live file.
type MismatchStatus string

const (
	StatusMismatch   MismatchStatus = "mismatch"
	StatusRemappable MismatchStatus = "remappable"
	StatusAmbiguous  MismatchStatus = "ambiguous"
)

// RemapTarget is a candidate line an ambiguous or remappable anchor could
// be rewritten to point at.
type RemapTarget struct {
	Line int    `json:"line"`
	Hash string `json:"hash"`
}

// Mismatch describes one anchor that failed to match the live file.
type Mismatch struct {
	EditIndex    int            `json:"edit_index"`
	Anchor       string         `json:"anchor"`
	Line         int            `json:"line"`
	ExpectedHash string         `json:"expected_hash"`
	ActualHash   string         `json:"actual_hash,omitempty"` // empty if the line no longer exists
	Status       MismatchStatus `json:"status"`
	Remaps       []RemapTarget  `json:"remaps,omitempty"`
}

// CheckSummary is the aggregate counters check() produces.
type CheckSummary struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Remappable int `json:"remappable"`
	Ambiguous  int `json:"ambiguous"`
}

// CheckResult is the outcome of checking a batch of anchors against a file.
type CheckResult struct {
	OK         bool         `json:"ok"`
	Summary    CheckSummary `json:"summary"`
	Mismatches []Mismatch   `json:"mismatches,omitempty"`
}

// AnchorRequest pairs an anchor string with the index of the edit it came
// from, so mismatches can be reported back against the caller's edit list.
type AnchorRequest struct {
	EditIndex int
	Anchor    string
}

// SetLineEdit replaces exactly the anchored line's content.
type SetLineEdit struct {
	Anchor  string `json:"anchor"`
	NewText string `json:"new_text"`
}

// ReplaceLinesEdit replaces an inclusive line range with new text.
// EndAnchor is optional; a single-line replacement omits it.
type ReplaceLinesEdit struct {
	StartAnchor string `json:"start_anchor"`
	EndAnchor   string `json:"end_anchor,omitempty"` // empty if absent
	NewText     string `json:"new_text"`
}

// InsertAfterEdit inserts text immediately after the anchored line.
type InsertAfterEdit struct {
	Anchor string `json:"anchor"`
	Text   string `json:"text"`
}

// EditKind discriminates the Edit union.
type EditKind string

const (
	KindSetLine      EditKind = "set_line"
	KindReplaceLines EditKind = "replace_lines"
	KindInsertAfter  EditKind = "insert_after"
)

// Edit is a tagged union over the three hashline edit shapes.
type Edit struct {
	Kind         EditKind
	SetLine      *SetLineEdit
	ReplaceLines *ReplaceLinesEdit
	InsertAfter  *InsertAfterEdit
}

// anchorsWithIndex returns every anchor string this edit references, in a
// stable order (start before end), so callers can build AnchorRequest
// batches without duplicating the union switch.
func (e Edit) anchorsWithIndex(editIndex int) []AnchorRequest {
	switch e.Kind {
	case KindSetLine:
		return []AnchorRequest{{editIndex, e.SetLine.Anchor}}
	case KindReplaceLines:
		refs := []AnchorRequest{{editIndex, e.ReplaceLines.StartAnchor}}
		if e.ReplaceLines.EndAnchor != "" {
			refs = append(refs, AnchorRequest{editIndex, e.ReplaceLines.EndAnchor})
		}
		return refs
	case KindInsertAfter:
		return []AnchorRequest{{editIndex, e.InsertAfter.Anchor}}
	default:
		return nil
	}
}

// ApplyMode selects strict precondition enforcement or best-effort repair.
type ApplyMode string

const (
	ModeStrict ApplyMode = "strict"
	ModeRepair ApplyMode = "repair"
)

// ApplyResult is the outcome of a successful Apply.
type ApplyResult struct {
	Content           string `json:"content"`
	OperationsTotal   int    `json:"operations_total"`
	OperationsApplied int    `json:"operations_applied"`
}

// spanKind discriminates a resolved edit's shape for overlap checking.
type spanKind string

const (
	spanReplace     spanKind = "replace"
	spanInsertAfter spanKind = "insert_after"
)

// span is the resolved line range (or anchor point) an edit occupies,
// reported back to callers on an Overlap conflict.
type span struct {
	Kind      spanKind
	StartLine int
	EndLine   int // meaningless for spanInsertAfter
}

// resolvedOperation is the internal applied shape of one edit: either a
// replace over an inclusive 1-based line range, or an insertion after a
// given line.
type resolvedOperation struct {
	kind            spanKind
	startLine       int // ReplaceRange
	endLine         int // ReplaceRange
	anchorLine      int // InsertAfter
	replacementLines []string
}

// resolvedEdit pairs a resolvedOperation with the edit index it came from
// and the span reported on conflict.
type resolvedEdit struct {
	editIndex int
	span      span
	operation resolvedOperation
}

// sortKey orders resolved edits for bottom-up application: by the highest
// line the edit touches, descending, so earlier splices never invalidate
// later line numbers.
func (r resolvedEdit) sortKey() int {
	if r.operation.kind == spanReplace {
		return r.operation.endLine
	}
	return r.operation.anchorLine
}

// ApplyError is returned by Apply/ApplyWithMode.
type ApplyError struct {
	// Exactly one of the following is populated.
	Check            *CheckResult
	OverlapFirst     int
	OverlapSecond    int
	OverlapFirstSpan *span
	OverlapSecondSpan *span
	invalidRequest   string
}

func (e *ApplyError) Error() string {
	switch {
	case e.Check != nil:
		return "hashline preconditions failed"
	case e.invalidRequest != "":
		return e.invalidRequest
	default:
		return "hashline edits overlap"
	}
}

// ToAppErr classifies an ApplyError into the core error taxonomy.
func (e *ApplyError) ToAppErr() *apperr.Error {
	switch {
	case e.Check != nil:
		return apperr.New(apperr.PreconditionFailed, "hashline preconditions failed: %d mismatched of %d anchors",
			e.Check.Summary.Mismatched, e.Check.Summary.Total).
			WithSuggestion("Re-read handles, or retry with repair mode")
	case e.invalidRequest != "":
		return apperr.New(apperr.InvalidRequest, "%s", e.invalidRequest)
	default:
		return apperr.New(apperr.InvalidRequest, "hashline edits at index %d and %d overlap", e.OverlapFirst, e.OverlapSecond)
	}
}

func invalidRequestf(format string, args ...any) *ApplyError {
	return &ApplyError{invalidRequest: fmt.Sprintf(format, args...)}
}

// computeLineHash truncates the full blake3 hex digest of a line's content
// to the canonical anchor length.
func computeLineHash(line string) string {
	return contenthash.LineHash(line)
}

// FormatLineRef renders the canonical <line>:<hash> anchor text.
func FormatLineRef(line int, hash string) string {
	return strconv.Itoa(line) + ":" + hash
}

// ParseLineRef parses a <line>:<hash> anchor, ignoring any trailing
// |<display> suffix, and validates the hash segment length against
// PublicHexLen.
func ParseLineRef(anchor string) (LineRef, error) {
	body := anchor
	if idx := strings.IndexByte(body, '|'); idx >= 0 {
		body = body[:idx]
	}
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 {
		return LineRef{}, invalidRequestf("malformed line anchor %q: expected <line>:<hash>", anchor)
	}
	line, err := strconv.Atoi(parts[0])
	if err != nil || line < 1 {
		return LineRef{}, invalidRequestf("malformed line anchor %q: line must be a positive integer", anchor)
	}
	hash := strings.ToLower(parts[1])
	if err := validateHashSegment(hash); err != nil {
		return LineRef{}, err
	}
	return LineRef{Line: line, Hash: hash}, nil
}

func validateHashSegment(hash string) error {
	if len(hash) != PublicHexLen {
		return invalidRequestf("malformed line anchor hash %q: expected exactly %d hex characters", hash, PublicHexLen)
	}
	for _, r := range hash {
		if !isHexDigit(r) {
			return invalidRequestf("malformed line anchor hash %q: not valid hex", hash)
		}
	}
	return nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// sortResolvedDescending orders resolved edits bottom-up: by sortKey
// descending, ties broken by edit index descending.
func sortResolvedDescending(edits []resolvedEdit) {
	sort.Slice(edits, func(i, j int) bool {
		ki, kj := edits[i].sortKey(), edits[j].sortKey()
		if ki != kj {
			return ki > kj
		}
		return edits[i].editIndex > edits[j].editIndex
	})
}
