package applyengine

import (
	"os"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/changeset"
	"github.com/isty2e/identedit/internal/patchengine"
	"github.com/isty2e/identedit/internal/structprovider"
)

// resolvedState is what "resolve" produces: the canonicalized, per-file-
// operation-resolved changeset (Move operations already split into a
// source Delete plus a side list of moves), ready to verify.
type resolvedState struct {
	changeset changeset.MultiFileChangeset
	moves     []changeset.Move
	edges     []moveEdge
}

// verifiedState is what "verify" produces: every file's final content
// computed and lock held, ready to commit.
type verifiedState struct {
	writes []plannedWrite
	locks  []*os.File
}

// Apply runs the full commit pipeline through
// patchengine.RunResolveVerifyApply: resolve (canonicalize, resolve every
// target against current content including Move's own source span, then
// split moves out), verify (acquire locks, re-splice and re-hash every
// file, fold each move's source content into its destination), apply
// (two-phase commit — source rename included — with rollback on any
// failure).
func Apply(registry *structprovider.Registry, cwd string, cs changeset.MultiFileChangeset, opts Options) (Response, error) {
	resolve := func() (resolvedState, error) {
		canon, edges, err := Canonicalize(cwd, cs)
		if err != nil {
			return resolvedState{}, err
		}
		fullyResolved, err := changeset.ResolveChangeset(registry, canon)
		if err != nil {
			return resolvedState{}, err
		}
		finalChangeset, moves := changeset.ExtractMoves(fullyResolved)
		return resolvedState{changeset: finalChangeset, moves: moves, edges: edges}, nil
	}

	verify := func(rs resolvedState) (verifiedState, error) {
		var paths []string
		for _, fc := range rs.changeset.Files {
			paths = append(paths, fc.File)
		}
		for _, m := range rs.moves {
			paths = append(paths, m.DestinationFile)
		}
		locks, err := acquireLocks(paths)
		if err != nil {
			return verifiedState{}, err
		}

		writes := make(map[string]plannedWrite, len(rs.changeset.Files)+len(rs.moves))
		var order []string
		for _, fc := range rs.changeset.Files {
			source, err := os.ReadFile(fc.File)
			if err != nil {
				releaseLocks(locks)
				return verifiedState{}, apperr.Wrap(apperr.IOError, err, "reading %s", fc.File)
			}
			content, n, err := spliceFile(source, fc)
			if err != nil {
				releaseLocks(locks)
				return verifiedState{}, err
			}
			writes[fc.File] = plannedWrite{file: fc.File, newContent: content, opsApplied: n}
			order = append(order, fc.File)
		}

		removed := make(map[string]bool, len(rs.moves))
		for _, m := range rs.moves {
			src, ok := writes[m.SourceFile]
			if !ok {
				releaseLocks(locks)
				return verifiedState{}, apperr.New(apperr.IOError, "move source %s was not resolved", m.SourceFile)
			}
			if m.MoveAnchor == "" {
				releaseLocks(locks)
				return verifiedState{}, apperr.New(apperr.InvalidRequest, "move into %s is missing a destination anchor", m.DestinationFile)
			}
			destContent, err := changeset.InsertAtAnchor(src.newContent, m.MoveAnchor, m.MovedText)
			if err != nil {
				releaseLocks(locks)
				return verifiedState{}, err
			}

			opsApplied := src.opsApplied + 1
			if existing, ok := writes[m.DestinationFile]; ok {
				opsApplied += existing.opsApplied
			} else {
				order = append(order, m.DestinationFile)
			}
			writes[m.DestinationFile] = plannedWrite{file: m.DestinationFile, newContent: destContent, opsApplied: opsApplied, moveFrom: m.SourceFile}
			removed[m.SourceFile] = true
		}

		var planned []plannedWrite
		for _, f := range order {
			if removed[f] {
				continue
			}
			planned = append(planned, writes[f])
		}
		planned = orderWrites(planned, rs.edges)

		return verifiedState{writes: planned, locks: locks}, nil
	}

	apply := func(vs verifiedState) (Response, error) {
		defer releaseLocks(vs.locks)

		if opts.DryRun {
			var applied []AppliedFile
			if opts.Verbose {
				for _, w := range vs.writes {
					applied = append(applied, AppliedFile{File: w.file, OperationsApplied: w.opsApplied})
				}
			}
			return Response{
				Summary:     Summary{FilesChanged: len(vs.writes), DryRun: true},
				Transaction: TransactionRecord{ID: "dry-run", Status: "dry_run", Files: fileNames(vs.writes)},
				Applied:     applied,
			}, nil
		}

		record, applied, err := twoPhaseCommit(vs.writes, opts.Inject)
		if err != nil {
			return Response{}, err
		}

		var appliedOut []AppliedFile
		if opts.Verbose {
			appliedOut = applied
		}
		return Response{
			Summary:     Summary{FilesChanged: len(applied), DryRun: false},
			Transaction: record,
			Applied:     appliedOut,
		}, nil
	}

	return patchengine.RunResolveVerifyApply(resolve, verify, apply)
}

func fileNames(writes []plannedWrite) []string {
	out := make([]string, len(writes))
	for i, w := range writes {
		out[i] = w.file
	}
	return out
}
