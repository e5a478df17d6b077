package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isty2e/identedit/internal/applyengine"
)

func TestOpenCreatesDatabaseAndMigratesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "journal.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.True(t, db.Migrator().HasTable(&Entry{}))
}

func TestRecordPersistsTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(path)
	require.NoError(t, err)

	rec := applyengine.TransactionRecord{
		ID:        "tx_test",
		StartedAt: time.Now().UTC(),
		Status:    "committed",
		Files:     []string{"a.go", "b.go"},
	}
	require.NoError(t, Record(db, rec))

	var entry Entry
	require.NoError(t, db.First(&entry, "id = ?", "tx_test").Error)
	assert.Equal(t, "committed", entry.Status)
	assert.Contains(t, string(entry.Files), "a.go")
}
