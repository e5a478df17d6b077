package applyengine

import (
	"os"
	"path/filepath"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/changeset"
)

// canonicalPath performs pure lexical resolution (no symlink following)
// relative to cwd, mirroring the Rust original's relative-move handling:
// a relative destination is resolved against the process's working
// directory, not the source file's directory.
func canonicalPath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(cwd, path))
}

// moveEdge is one normalized Move operation, canonical-path form.
type moveEdge struct {
	source      string
	destination string
}

// Canonicalize resolves every file path and move destination to a
// canonical lexical form, rejects duplicate/self-move/alias-collision
// moves, and rejects a move onto an existing destination unless that
// destination is itself vacated by another move in the same transaction
// (including when the destination is a symlink: an existing symlink at
// the destination path counts as occupied, never silently replaced).
func Canonicalize(cwd string, cs changeset.MultiFileChangeset) (changeset.MultiFileChangeset, []moveEdge, error) {
	canon := changeset.MultiFileChangeset{Transaction: cs.Transaction}
	var edges []moveEdge
	vacated := make(map[string]bool)
	destinations := make(map[string]string) // canonical dest -> source file, for alias-collision detection

	for _, fc := range cs.Files {
		for _, op := range fc.Operations {
			if op.Op.Kind == changeset.OpMove {
				vacated[canonicalPath(cwd, fc.File)] = true
			}
		}
	}

	for _, fc := range cs.Files {
		canonFile := canonicalPath(cwd, fc.File)
		canonFC := changeset.FileChange{File: canonFile}

		for _, op := range fc.Operations {
			if op.Op.Kind != changeset.OpMove {
				canonFC.Operations = append(canonFC.Operations, op)
				continue
			}
			dest := canonicalPath(cwd, op.Op.DestinationFile)
			if dest == canonFile {
				return changeset.MultiFileChangeset{}, nil, apperr.New(apperr.InvalidRequest,
					"move destination %s resolves to the same file as the source", op.Op.DestinationFile)
			}
			if existing, ok := destinations[dest]; ok {
				return changeset.MultiFileChangeset{}, nil, apperr.New(apperr.InvalidRequest,
					"destination alias collision: both %s and %s move to %s", existing, canonFile, dest)
			}
			destinations[dest] = canonFile

			if occupied(dest) && !vacated[dest] {
				return changeset.MultiFileChangeset{}, nil, apperr.New(apperr.InvalidRequest,
					"move destination %s already exists", op.Op.DestinationFile)
			}

			op.Op.DestinationFile = dest
			canonFC.Operations = append(canonFC.Operations, op)
			edges = append(edges, moveEdge{source: canonFile, destination: dest})
		}
		canon.Files = append(canon.Files, canonFC)
	}

	if err := checkMoveGraphAcyclic(edges); err != nil {
		return changeset.MultiFileChangeset{}, nil, err
	}

	return canon, edges, nil
}

// occupied reports whether path exists, following no symlinks: an
// existing symlink at path (even one that is itself broken) counts as
// occupied, so Lstat rather than Stat is used.
func occupied(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// checkMoveGraphAcyclic runs Kahn's algorithm over the move edges; a
// remaining in-degree after all zero-in-degree nodes are peeled off means
// a cycle.
func checkMoveGraphAcyclic(edges []moveEdge) error {
	inDegree := make(map[string]int)
	adjacency := make(map[string][]string)
	nodes := make(map[string]bool)

	for _, e := range edges {
		nodes[e.source] = true
		nodes[e.destination] = true
		adjacency[e.source] = append(adjacency[e.source], e.destination)
		inDegree[e.destination]++
	}

	var queue []string
	for n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adjacency[n] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(nodes) {
		return apperr.New(apperr.InvalidRequest, "Move graph contains a cycle")
	}
	return nil
}

// TopologicalOrder returns move edges ordered so that every move out of a
// file comes before any move into it — i.e. a move chain executes
// tail-first, so an intermediate file is vacated as a source before it
// becomes a destination.
func TopologicalOrder(edges []moveEdge) []moveEdge {
	inDegree := make(map[string]int)
	adjacency := make(map[string][]moveEdge)
	nodes := make(map[string]bool)

	for _, e := range edges {
		nodes[e.source] = true
		nodes[e.destination] = true
		adjacency[e.source] = append(adjacency[e.source], e)
		inDegree[e.destination]++
	}

	var queue []string
	for n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var ordered []moveEdge
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range adjacency[n] {
			ordered = append(ordered, e)
			inDegree[e.destination]--
			if inDegree[e.destination] == 0 {
				queue = append(queue, e.destination)
			}
		}
	}
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}
