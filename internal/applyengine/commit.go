package applyengine

import (
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/isty2e/identedit/internal/apperr"
)

const backupSuffix = ".identedit.bak"

// acquireLocks takes a non-blocking advisory lock on every path, in
// sorted canonical order (so two concurrent transactions touching an
// overlapping file set always attempt acquisition in the same order,
// avoiding lock-ordering deadlock). A lock that is already held fails
// fast with resource_busy rather than waiting — grounded on
// core/atomicwriter.go's acquireLock, changed from blocking-with-timeout
// to non-blocking try-lock so an agent-facing commit never blocks silently.
func acquireLocks(paths []string) ([]*os.File, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var held []*os.File
	for _, p := range sorted {
		lockPath := p + ".identedit.lock"
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			releaseLocks(held)
			return nil, apperr.New(apperr.ResourceBusy, "could not acquire lock for %s", p).
				WithSuggestion("Retry after the current apply operation completes")
		}
		held = append(held, f)
	}
	return held, nil
}

func releaseLocks(locks []*os.File) {
	for _, f := range locks {
		path := f.Name()
		f.Close()
		os.Remove(path)
	}
}

// orderWrites reorders writes so that move destinations commit in the
// order TopologicalOrder computed for edges: within a move chain, a
// destination that is itself the source of another move is written only
// after that other move has carried its bytes on. Non-move writes and destinations with
// no edge keep their original relative order.
func orderWrites(writes []plannedWrite, edges []moveEdge) []plannedWrite {
	if len(edges) == 0 {
		return writes
	}
	rank := make(map[string]int, len(edges))
	for i, e := range TopologicalOrder(edges) {
		rank[e.destination] = i
	}
	sorted := append([]plannedWrite(nil), writes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iok := rank[sorted[i].file]
		rj, jok := rank[sorted[j].file]
		return iok && jok && ri < rj
	})
	return sorted
}

// twoPhaseCommit writes every planned file's content: back up the
// original (if it exists), write to a temp file in the same directory,
// fsync, then atomically rename over the original. A write whose
// moveFrom is set additionally backs up and then removes that source
// file once its content has landed at the destination, completing the
// move's rename. On any failure it rolls back every file already
// committed by restoring its backup (and any removed move source).
// Grounded on core/atomicwriter.go's WriteFile (temp-write-fsync-rename)
// and core/transaction.go's TransactionManager (backup-then-rollback
// journal), merged into one multi-file all-or-nothing pass.
func twoPhaseCommit(writes []plannedWrite, inject FailureInjection) (TransactionRecord, []AppliedFile, error) {
	record := TransactionRecord{
		ID:        newTransactionID(),
		StartedAt: time.Now(),
		Status:    "pending",
	}
	for _, w := range writes {
		record.Files = append(record.Files, w.file)
	}

	var committed []AppliedFile
	sourceBackups := make(map[string]string) // destination file -> backed-up move source bytes

	commitOne := func(w plannedWrite) error {
		backupPath := ""
		if _, err := os.Stat(w.file); err == nil {
			backupPath = w.file + backupSuffix
			original, err := os.ReadFile(w.file)
			if err != nil {
				return apperr.Wrap(apperr.IOError, err, "reading %s before backup", w.file)
			}
			if err := os.WriteFile(backupPath, original, 0o644); err != nil {
				return apperr.Wrap(apperr.IOError, err, "writing backup for %s", w.file)
			}
		}

		var sourceBackupPath string
		if w.moveFrom != "" {
			sourceBytes, err := os.ReadFile(w.moveFrom)
			if err != nil {
				return apperr.Wrap(apperr.IOError, err, "reading move source %s before rename", w.moveFrom)
			}
			sourceBackupPath = w.moveFrom + backupSuffix
			if err := os.WriteFile(sourceBackupPath, sourceBytes, 0o644); err != nil {
				return apperr.Wrap(apperr.IOError, err, "writing backup for move source %s", w.moveFrom)
			}
		}

		tempPath := w.file + ".identedit.tmp"
		fileMode := os.FileMode(0o644)
		if info, err := os.Stat(w.file); err == nil {
			fileMode = info.Mode().Perm()
		} else if w.moveFrom != "" {
			if info, err := os.Stat(w.moveFrom); err == nil {
				fileMode = info.Mode().Perm()
			}
		}
		tmp, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
		if err != nil {
			return apperr.Wrap(apperr.IOError, err, "creating temp file for %s", w.file)
		}
		if _, err := tmp.WriteString(w.newContent); err != nil {
			tmp.Close()
			os.Remove(tempPath)
			return apperr.Wrap(apperr.IOError, err, "writing %s", w.file)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			os.Remove(tempPath)
			return apperr.Wrap(apperr.IOError, err, "fsyncing %s", w.file)
		}
		tmp.Close()
		if err := os.Rename(tempPath, w.file); err != nil {
			os.Remove(tempPath)
			return apperr.Wrap(apperr.IOError, err, "renaming into place %s", w.file)
		}

		if w.moveFrom != "" {
			if err := os.Remove(w.moveFrom); err != nil {
				return apperr.Wrap(apperr.IOError, err, "removing move source %s", w.moveFrom)
			}
			sourceBackups[w.file] = sourceBackupPath
		}

		committed = append(committed, AppliedFile{File: w.file, OperationsApplied: w.opsApplied, BackupPath: backupPath, MovedFrom: w.moveFrom})
		return nil
	}

	for i, w := range writes {
		if err := commitOne(w); err != nil {
			rollbackErr := rollback(committed, sourceBackups)
			if rollbackErr != nil {
				record.Status = "rolled_back"
				return record, nil, apperr.Wrap(apperr.RollbackFailed, rollbackErr,
					"commit failed (%v) and rollback also failed", err).
					WithSuggestion("Inspect affected files, manually reconcile rollback failures, then re-run identedit select/transform/apply")
			}
			record.Status = "rolled_back"
			return record, nil, err
		}
		if inject.Enabled && inject.AfterWrites >= 0 && i+1 == inject.AfterWrites {
			rollbackErr := rollback(committed, sourceBackups)
			injected := apperr.New(apperr.IOError, "injected failure after %d writes", inject.AfterWrites)
			if rollbackErr != nil {
				record.Status = "rolled_back"
				return record, nil, apperr.Wrap(apperr.RollbackFailed, rollbackErr, "injected failure, and rollback also failed").
					WithSuggestion("Inspect affected files, manually reconcile rollback failures, then re-run identedit select/transform/apply")
			}
			record.Status = "rolled_back"
			return record, nil, injected
		}
	}

	record.Status = "committed"
	for _, c := range committed {
		if c.BackupPath != "" {
			os.Remove(c.BackupPath)
		}
		if srcBackup, ok := sourceBackups[c.File]; ok {
			os.Remove(srcBackup)
		}
	}
	return record, committed, nil
}

// rollback restores every committed file from its backup (or removes it,
// if it had no backup, meaning the file did not previously exist), in
// reverse commit order. A committed move additionally recreates its
// removed source file from sourceBackups before undoing the destination.
func rollback(committed []AppliedFile, sourceBackups map[string]string) error {
	var firstErr error
	for i := len(committed) - 1; i >= 0; i-- {
		c := committed[i]
		if c.MovedFrom != "" {
			if srcBackup, ok := sourceBackups[c.File]; ok {
				content, err := os.ReadFile(srcBackup)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					if err := os.WriteFile(c.MovedFrom, content, 0o644); err != nil && firstErr == nil {
						firstErr = err
					}
					os.Remove(srcBackup)
				}
			}
		}
		if c.BackupPath == "" {
			if err := os.Remove(c.File); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		content, err := os.ReadFile(c.BackupPath)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.WriteFile(c.File, content, 0o644); err != nil && firstErr == nil {
			firstErr = err
		}
		os.Remove(c.BackupPath)
	}
	return firstErr
}

func newTransactionID() string {
	return "tx_" + uuid.NewString()
}
