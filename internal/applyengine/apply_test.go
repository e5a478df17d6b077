package applyengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/contenthash"
	"github.com/isty2e/identedit/internal/handle"
	"github.com/isty2e/identedit/internal/hashline"
	"github.com/isty2e/identedit/internal/structprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func nodeChangeset(t *testing.T, file, oldText, newText string) changeset.MultiFileChangeset {
	t.Helper()
	h := handle.FromParts(file, handle.Span{}, "function", "greet", oldText)
	return changeset.MultiFileChangeset{
		Files: []changeset.FileChange{{
			File: file,
			Operations: []changeset.Operation{{
				Target: changeset.TransformTarget{
					Kind:            changeset.TargetNode,
					Identity:        h.Identity,
					NodeKind:        "function",
					ExpectedOldHash: contenthash.IdentityHash([]byte(oldText)),
				},
				Op: changeset.Op{Kind: changeset.OpReplace, NewText: newText},
			}},
		}},
		Transaction: changeset.Transaction{Mode: changeset.AllOrNothing},
	}
}

func TestApplyReplacesNodeAndCommits(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "greet.idl", "def greet():\n    pass\n")

	registry := structprovider.NewRegistry(nil)
	cs := nodeChangeset(t, path, "def greet():\n    pass\n", "def greet():\n    return 1\n")

	resp, err := Apply(registry, dir, cs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.FilesChanged)
	assert.Equal(t, "committed", resp.Transaction.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "return 1")
}

func TestApplyDryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "greet.idl", "def greet():\n    pass\n")

	registry := structprovider.NewRegistry(nil)
	cs := nodeChangeset(t, path, "def greet():\n    pass\n", "def greet():\n    return 1\n")

	resp, err := Apply(registry, dir, cs, Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, resp.Summary.DryRun)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def greet():\n    pass\n", string(content))
}

func TestApplyRollsBackOnInjectedFailure(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTemp(t, dir, "a.idl", "def a():\n    pass\n")
	pathB := writeTemp(t, dir, "b.idl", "def b():\n    pass\n")

	registry := structprovider.NewRegistry(nil)
	csA := nodeChangeset(t, pathA, "def a():\n    pass\n", "def a():\n    return 1\n")
	csB := nodeChangeset(t, pathB, "def b():\n    pass\n", "def b():\n    return 2\n")
	cs := changeset.MultiFileChangeset{
		Files:       append(append([]changeset.FileChange{}, csA.Files...), csB.Files...),
		Transaction: changeset.Transaction{Mode: changeset.AllOrNothing},
	}

	_, err := Apply(registry, dir, cs, Options{Inject: FailureInjection{Enabled: true, AfterWrites: 1}})
	require.Error(t, err)

	contentA, _ := os.ReadFile(pathA)
	contentB, _ := os.ReadFile(pathB)
	assert.Equal(t, "def a():\n    pass\n", string(contentA), "first file must be rolled back")
	assert.Equal(t, "def b():\n    pass\n", string(contentB), "second file was never committed")
}

func moveChangeset(sourceFile, destFile, oldText, moveAnchor string) changeset.MultiFileChangeset {
	h := handle.FromParts(sourceFile, handle.Span{}, "function", "greet", oldText)
	return changeset.MultiFileChangeset{
		Files: []changeset.FileChange{{
			File: sourceFile,
			Operations: []changeset.Operation{{
				Target: changeset.TransformTarget{
					Kind:            changeset.TargetNode,
					Identity:        h.Identity,
					NodeKind:        "function",
					ExpectedOldHash: contenthash.IdentityHash([]byte(oldText)),
				},
				Op: changeset.Op{Kind: changeset.OpMove, DestinationFile: destFile, MoveAnchor: moveAnchor},
			}},
		}},
		Transaction: changeset.Transaction{Mode: changeset.AllOrNothing},
	}
}

func TestApplyMovesNodeRenamingSourceIntoDestination(t *testing.T) {
	dir := t.TempDir()
	original := "def helper():\n    pass\n\ndef greet():\n    return 1\n"
	sourcePath := writeTemp(t, dir, "source.idl", original)
	destPath := filepath.Join(dir, "dest.idl")

	// The anchor must land in the SOURCE file's content once the moved
	// span is deleted from it, since that is what gets renamed onto
	// destPath: the last (blank) line of "def helper():\n    pass\n\n".
	afterDelete := "def helper():\n    pass\n\n"
	lines := hashline.ShowHashedLines(afterDelete)
	anchor := hashline.FormatLineRef(lines[len(lines)-1].Line, lines[len(lines)-1].Hash)

	registry := structprovider.NewRegistry(nil)
	cs := moveChangeset(sourcePath, destPath, "def greet():\n    return 1\n", anchor)

	resp, err := Apply(registry, dir, cs, Options{})
	require.NoError(t, err)
	assert.Equal(t, "committed", resp.Transaction.Status)

	_, err = os.Stat(sourcePath)
	assert.True(t, os.IsNotExist(err), "source file must be gone after a successful move")

	content, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(content), "destination must carry the source's edited content plus the moved span")
}

func TestCanonicalizeRejectsSelfMove(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.py", "x = 1\n")
	cs := changeset.MultiFileChangeset{Files: []changeset.FileChange{{
		File: path,
		Operations: []changeset.Operation{{
			Target: changeset.TransformTarget{Kind: changeset.TargetLine, Anchor: "1:aaaaaaaaaaaa"},
			Op:     changeset.Op{Kind: changeset.OpMove, DestinationFile: path},
		}},
	}}}
	_, _, err := Canonicalize(dir, cs)
	require.Error(t, err)
}

func TestCanonicalizeRejectsMoveOntoExistingSymlink(t *testing.T) {
	dir := t.TempDir()
	source := writeTemp(t, dir, "source.py", "x = 1\n")
	realTarget := writeTemp(t, dir, "real.py", "y = 2\n")
	link := filepath.Join(dir, "link.py")
	require.NoError(t, os.Symlink(realTarget, link))

	cs := changeset.MultiFileChangeset{Files: []changeset.FileChange{{
		File: source,
		Operations: []changeset.Operation{{
			Target: changeset.TransformTarget{Kind: changeset.TargetLine, Anchor: "1:aaaaaaaaaaaa"},
			Op:     changeset.Op{Kind: changeset.OpMove, DestinationFile: link},
		}},
	}}}
	_, _, err := Canonicalize(dir, cs)
	require.Error(t, err)
}

func TestMoveGraphDetectsCycle(t *testing.T) {
	edges := []moveEdge{{source: "a", destination: "b"}, {source: "b", destination: "a"}}
	err := checkMoveGraphAcyclic(edges)
	require.Error(t, err)
}

func TestTopologicalOrderOrdersChainTailFirst(t *testing.T) {
	edges := []moveEdge{{source: "a", destination: "b"}, {source: "b", destination: "c"}}
	ordered := TopologicalOrder(edges)
	require.Len(t, ordered, 2)
	assert.Equal(t, "b", ordered[0].source)
	assert.Equal(t, "a", ordered[1].source)
}
