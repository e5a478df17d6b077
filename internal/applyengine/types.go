// Package applyengine implements the transactional multi-file committer:
// canonicalization, move-graph ordering, advisory locking, preflight
// revalidation, two-phase commit with rollback, and the failure-injection
// test hook. Grounded on core/transaction.go's TransactionManager
// (backup/rollback journal shape) and core/atomicwriter.go's AtomicWriter
// (lock-then-temp-write-then-rename sequence), generalized from a
// single-file writer to an all-or-nothing multi-file commit.
package applyengine

import (
	"time"
)

// Options controls one Apply invocation.
type Options struct {
	DryRun  bool
	Repair  bool
	Verbose bool
	Inject  FailureInjection
}

// FailureInjection is a hidden test-only hook gated by
// IDENTEDIT_EXPERIMENTAL=1. AfterWrites, when positive, fails the commit
// immediately after that many per-file writes have completed, forcing
// rollback to be exercised deterministically in tests; a value of zero
// never fires.
type FailureInjection struct {
	Enabled     bool
	AfterWrites int // -1 means disabled
}

// AppliedFile reports the outcome for one file, included in the response
// only when Options.Verbose is set.
type AppliedFile struct {
	File              string `json:"file"`
	OperationsApplied int    `json:"operations_applied"`
	BackupPath        string `json:"backup_path,omitempty"`
	MovedFrom         string `json:"moved_from,omitempty"` // set when File is a move destination
}

// Summary is the always-present top-level response shape.
type Summary struct {
	FilesChanged int  `json:"files_changed"`
	FilesFailed  int  `json:"files_failed"`
	DryRun       bool `json:"dry_run"`
}

// TransactionRecord describes one Apply call's commit. twoPhaseCommit
// builds it in memory; it is returned in the Response and, with the
// CLI's --journal flag, persisted only after a successful commit.
type TransactionRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"` // "pending" while committing, then "committed", "rolled_back" or "dry_run"
	Files     []string  `json:"files"`
}

// Response is the result of a successful or dry-run Apply call; a failed
// or rolled-back commit returns an error instead.
type Response struct {
	Summary     Summary           `json:"summary"`
	Transaction TransactionRecord `json:"transaction"`
	Applied     []AppliedFile     `json:"applied,omitempty"` // nil unless Verbose
}

// plannedWrite is one file's resolved new content, staged for commit.
// moveFrom, when set, names the move source file whose renamed-into-place
// bytes this write's content was composed from; twoPhaseCommit removes
// that source file once the write itself has landed.
type plannedWrite struct {
	file       string
	newContent string
	opsApplied int
	moveFrom   string
}
