// Package journal persists a durable record of committed apply transactions to a
// SQLite-backed table, independent of the per-file .bak backups
// applyengine leaves during a commit. Adapted from models/models.go's
// Stage/Apply GORM models (datatypes.JSON columns for structured fields,
// autoCreateTime timestamps) and db/sqlite.go's Connect (directory
// creation, migration-on-connect), swapped from the cgo sqlite driver to
// github.com/glebarez/sqlite so the journal never requires CGO_ENABLED=1.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/isty2e/identedit/internal/applyengine"
)

// Entry is one recorded transaction's durable record.
type Entry struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)"`
	Status    string         `gorm:"type:varchar(20);not null"`
	Files     datatypes.JSON `gorm:"type:jsonb"`
	StartedAt time.Time      `gorm:"index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

// Open connects to (creating if absent) a SQLite database at path and
// migrates the journal schema.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.IOError, err, "creating journal directory %s", dir)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, apperr.Wrap(apperr.IOError, err, "opening journal database %s", path)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, apperr.Wrap(apperr.IOError, err, "migrating journal schema")
	}
	return db, nil
}

// Record persists one TransactionRecord. The CLI's --journal flag calls it
// only after a successful, non-dry-run commit, so the journal survives
// independent of the working tree's transient .bak files.
func Record(db *gorm.DB, rec applyengine.TransactionRecord) error {
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return apperr.Wrap(apperr.SerializationError, err, "marshaling journal entry files")
	}
	entry := Entry{
		ID:        rec.ID,
		Status:    rec.Status,
		Files:     datatypes.JSON(files),
		StartedAt: rec.StartedAt,
	}
	if err := db.Create(&entry).Error; err != nil {
		return apperr.Wrap(apperr.IOError, err, "writing journal entry %s", rec.ID)
	}
	return nil
}
