package changeset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isty2e/identedit/internal/contenthash"
	"github.com/isty2e/identedit/internal/hashline"
	"github.com/isty2e/identedit/internal/structprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveConfigPathFindsNestedArrayValue(t *testing.T) {
	source := `{"service": {"ports": [{"name": "http"}, {"name": "grpc"}]}}`
	path := writeTemp(t, "config.json", source)

	op := Operation{
		Target: TransformTarget{
			Kind:            TargetConfigPath,
			Path:            "service.ports[1].name",
			ExpectedOldHash: contenthash.IdentityHash([]byte(`"grpc"`)),
		},
		Op: Op{Kind: OpReplace, NewText: `"grpc2"`},
	}
	cs := MultiFileChangeset{Files: []FileChange{{File: path, Operations: []Operation{op}}}}

	resolved, err := ResolveChangeset(structprovider.NewRegistry(nil), cs)
	require.NoError(t, err)
	require.Len(t, resolved.Files, 1)
	require.Len(t, resolved.Files[0].Operations, 1)

	got := resolved.Files[0].Operations[0]
	assert.Equal(t, `"grpc"`, got.Preview.OldText)
	assert.Equal(t, `"grpc2"`, got.Preview.NewText)
}

func TestResolveConfigPathRejectsStaleHash(t *testing.T) {
	source := `{"count": 1}`
	path := writeTemp(t, "config.json", source)

	op := Operation{
		Target: TransformTarget{
			Kind:            TargetConfigPath,
			Path:            "count",
			ExpectedOldHash: contenthash.IdentityHash([]byte("2")),
		},
		Op: Op{Kind: OpReplace, NewText: "3"},
	}
	cs := MultiFileChangeset{Files: []FileChange{{File: path, Operations: []Operation{op}}}}

	_, err := ResolveChangeset(structprovider.NewRegistry(nil), cs)
	require.Error(t, err)
}

func TestResolveConfigPathRejectsMissingKey(t *testing.T) {
	source := `{"count": 1}`
	path := writeTemp(t, "config.json", source)

	op := Operation{
		Target: TransformTarget{
			Kind: TargetConfigPath,
			Path: "missing",
		},
		Op: Op{Kind: OpReplace, NewText: "3"},
	}
	cs := MultiFileChangeset{Files: []FileChange{{File: path, Operations: []Operation{op}}}}

	_, err := ResolveChangeset(structprovider.NewRegistry(nil), cs)
	require.Error(t, err)
}

func TestExtractMovesSplitsMoveIntoDeleteAndSideList(t *testing.T) {
	cs := MultiFileChangeset{Files: []FileChange{{
		File: "a.idl",
		Operations: []Operation{{
			Target: TransformTarget{Kind: TargetLine, Anchor: "1:aaaaaaaaaaaa"},
			Op:     Op{Kind: OpMove, DestinationFile: "b.idl", MoveAnchor: "1:bbbbbbbbbbbb"},
			Preview: Preview{
				OldText: "def greet():\n    return 1\n",
				OldLen:  27,
			},
		}},
	}}}

	out, moves := ExtractMoves(cs)

	require.Len(t, out.Files, 1)
	require.Len(t, out.Files[0].Operations, 1)
	assert.Equal(t, OpDelete, out.Files[0].Operations[0].Op.Kind)
	assert.Equal(t, "def greet():\n    return 1\n", out.Files[0].Operations[0].Preview.OldText)

	require.Len(t, moves, 1)
	assert.Equal(t, "a.idl", moves[0].SourceFile)
	assert.Equal(t, "b.idl", moves[0].DestinationFile)
	assert.Equal(t, "1:bbbbbbbbbbbb", moves[0].MoveAnchor)
	assert.Equal(t, "def greet():\n    return 1\n", moves[0].MovedText)
}

func TestInsertAtAnchorInsertsAfterMatchedLine(t *testing.T) {
	content := "def helper():\n    pass\n\n"
	lines := hashline.ShowHashedLines(content)
	anchor := hashline.FormatLineRef(lines[len(lines)-1].Line, lines[len(lines)-1].Hash)

	got, err := InsertAtAnchor(content, anchor, "def greet():\n    return 1\n")
	require.NoError(t, err)
	assert.Equal(t, "def helper():\n    pass\n\ndef greet():\n    return 1\n", got)
}

func TestInsertAtAnchorRejectsStaleAnchor(t *testing.T) {
	_, err := InsertAtAnchor("x = 1\n", "1:000000000000", "y = 2\n")
	require.Error(t, err)
}
