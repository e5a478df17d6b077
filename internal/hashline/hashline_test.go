package hashline

import (
	"testing"

	"github.com/isty2e/identedit/internal/contenthash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchor(line int, content string) string {
	return FormatLineRef(line, contenthash.LineHash(content))
}

func TestApplySetLineExactHash(t *testing.T) {
	source := "a\nb\nc\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(2, "b"), NewText: "B"}}}

	result, aerr := Apply(source, edits)
	require.Nil(t, aerr)
	assert.Equal(t, "a\nB\nc\n", result.Content)
	assert.Equal(t, 1, result.OperationsApplied)
}

func TestApplySetLineStaleHashStrictFails(t *testing.T) {
	source := "a\nb\nc\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(1, "b"), NewText: "B"}}}

	_, aerr := Apply(source, edits)
	require.NotNil(t, aerr)
	require.NotNil(t, aerr.Check)
	assert.Equal(t, 1, aerr.Check.Summary.Remappable)
}

func TestApplySetLineStaleHashRepairRemaps(t *testing.T) {
	source := "a\nb\nc\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(1, "b"), NewText: "B"}}}

	result, aerr := ApplyWithMode(source, edits, ModeRepair)
	require.Nil(t, aerr)
	assert.Equal(t, "a\nB\nc\n", result.Content)
}

func TestApplySetLineAmbiguousRepairFails(t *testing.T) {
	source := "x\ny\nx\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(2, "x"), NewText: "X"}}}

	_, aerr := ApplyWithMode(source, edits, ModeRepair)
	require.NotNil(t, aerr)
	require.NotNil(t, aerr.Check)
	assert.Equal(t, 1, aerr.Check.Summary.Ambiguous)
}

func TestApplyInsertAfterLastLinePreservesNoTrailingNewline(t *testing.T) {
	source := "a\nb"
	edits := []Edit{{Kind: KindInsertAfter, InsertAfter: &InsertAfterEdit{Anchor: anchor(2, "b"), Text: "x"}}}

	result, aerr := Apply(source, edits)
	require.Nil(t, aerr)
	assert.Equal(t, "a\nb\nx", result.Content)
}

func TestApplyInsertAfterEmptyTextRejected(t *testing.T) {
	source := "a\nb\n"
	edits := []Edit{{Kind: KindInsertAfter, InsertAfter: &InsertAfterEdit{Anchor: anchor(2, "b"), Text: ""}}}

	_, aerr := Apply(source, edits)
	require.NotNil(t, aerr)
}

func TestNonOverlapOrderIndependent(t *testing.T) {
	source := "a\nb\nc\nd\n"
	e1 := Edit{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(1, "a"), NewText: "A"}}
	e2 := Edit{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(3, "c"), NewText: "C"}}

	r1, aerr1 := Apply(source, []Edit{e1, e2})
	r2, aerr2 := Apply(source, []Edit{e2, e1})
	require.Nil(t, aerr1)
	require.Nil(t, aerr2)
	assert.Equal(t, r1.Content, r2.Content)
	assert.Equal(t, "A\nb\nC\nd\n", r1.Content)
}

func TestOverlapDetected(t *testing.T) {
	source := "a\nb\nc\n"
	e1 := Edit{Kind: KindReplaceLines, ReplaceLines: &ReplaceLinesEdit{StartAnchor: anchor(1, "a"), EndAnchor: anchor(2, "b"), NewText: "AB"}}
	e2 := Edit{Kind: KindInsertAfter, InsertAfter: &InsertAfterEdit{Anchor: anchor(1, "a"), Text: "x"}}

	_, aerr := Apply(source, []Edit{e1, e2})
	require.NotNil(t, aerr)
	assert.Equal(t, 0, aerr.OverlapFirst)
	assert.Equal(t, 1, aerr.OverlapSecond)
}

func TestCRLFOnlyRoundTrips(t *testing.T) {
	source := "a\r\nb\r\nc\r\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(2, "b"), NewText: "b"}}}

	result, aerr := Apply(source, edits)
	require.Nil(t, aerr)
	assert.Equal(t, source, result.Content)
}

func TestCROnlyRoundTrips(t *testing.T) {
	source := "a\rb\rc\r"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{Anchor: anchor(2, "b"), NewText: "b"}}}

	result, aerr := Apply(source, edits)
	require.Nil(t, aerr)
	assert.Equal(t, source, result.Content)
}

func TestRepairDoesNotStripAtExactlyHalf(t *testing.T) {
	// Two lines, one prefixed: 1*2 == 2, not a strict majority.
	text := "1:" + contenthash.LineHash("hello") + "|hello\nworld"
	result := applyRepairTextHeuristics(text)
	assert.Equal(t, text, result, "exactly-half prefixed lines must not be stripped")
}

func TestRepairStripsStrictMajorityHashPrefix(t *testing.T) {
	line1 := "hello"
	line2 := "world"
	line3 := "again"
	text := FormatLineRef(1, contenthash.LineHash(line1)) + "|" + line1 + "\n" +
		FormatLineRef(2, contenthash.LineHash(line2)) + "|" + line2 + "\n" +
		line3
	result := applyRepairTextHeuristics(text)
	assert.Equal(t, "hello\nworld\nagain", result)
}

func TestRepairMergeExpansionOnContinuationHint(t *testing.T) {
	source := "if a &&\nb {\nc\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{
		Anchor:  anchor(1, "if a &&"),
		NewText: "if a &&b {",
	}}}

	result, aerr := ApplyWithMode(source, edits, ModeRepair)
	require.Nil(t, aerr)
	assert.Equal(t, "if a &&b {\nc\n", result.Content)
}

func TestRepairNoMergeWhenReplacementDoesNotMatchJoinVariant(t *testing.T) {
	source := "if a &&\nb {\nc\n"
	edits := []Edit{{Kind: KindSetLine, SetLine: &SetLineEdit{
		Anchor:  anchor(1, "if a &&"),
		NewText: "totally different",
	}}}

	result, aerr := ApplyWithMode(source, edits, ModeRepair)
	require.Nil(t, aerr)
	assert.Equal(t, "totally different\nb {\nc\n", result.Content)
}

func TestCheckRoundTrip(t *testing.T) {
	source := "a\nb\nc\n"
	refs := []string{anchor(1, "a"), anchor(2, "b"), anchor(3, "c")}
	result, err := CheckRefs(source, refs)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 3, result.Summary.Matched)
}

func TestShowHashedLinesFormat(t *testing.T) {
	source := "a\nb\n"
	formatted := FormatHashedLines(source)
	assert.Equal(t,
		FormatLineRef(1, contenthash.LineHash("a"))+"|a\n"+FormatLineRef(2, contenthash.LineHash("b"))+"|b",
		formatted,
	)
}
