package diffutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedReportsNoDiffForIdenticalContent(t *testing.T) {
	out, err := Unified("a\nb\nc\n", "a\nb\nc\n", "file.go", 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnifiedIncludesChangedLines(t *testing.T) {
	out, err := Unified("a\nb\nc\n", "a\nX\nc\n", "file.go", 3)
	require.NoError(t, err)
	assert.Contains(t, out, "-b")
	assert.Contains(t, out, "+X")
	assert.Contains(t, out, "file.go")
}

func TestColorizePreservesLineContent(t *testing.T) {
	unified := "@@ -1,1 +1,1 @@\n-old\n+new\n"
	colored := Colorize(unified)

	lines := strings.Split(strings.TrimRight(colored, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "@@ -1,1 +1,1 @@")
	assert.Contains(t, lines[1], "-old")
	assert.Contains(t, lines[2], "+new")
}

func TestColorizeLeavesContextLinesAlone(t *testing.T) {
	colored := Colorize(" unchanged\n")
	assert.Equal(t, " unchanged", strings.TrimRight(colored, "\n"))
}
