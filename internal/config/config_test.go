package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearConfigEnvVars() {
	for _, v := range []string{
		"IDENTEDIT_WORKERS",
		"IDENTEDIT_LOCK_TIMEOUT_MS",
		"IDENTEDIT_GRAMMAR_DIR",
		"IDENTEDIT_BACKUP_SUFFIX",
		"IDENTEDIT_EXPERIMENTAL",
	} {
		os.Unsetenv(v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	cfg := LoadConfig()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5000, cfg.LockTimeoutMS)
	assert.Equal(t, ".", cfg.GrammarDir)
	assert.Equal(t, ".identedit.bak", cfg.BackupSuffix)
	assert.False(t, cfg.Experimental)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("IDENTEDIT_WORKERS", "8")
	os.Setenv("IDENTEDIT_LOCK_TIMEOUT_MS", "1000")
	os.Setenv("IDENTEDIT_GRAMMAR_DIR", "/etc/identedit")
	os.Setenv("IDENTEDIT_BACKUP_SUFFIX", ".bak2")
	os.Setenv("IDENTEDIT_EXPERIMENTAL", "1")

	cfg := LoadConfig()

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 1000, cfg.LockTimeoutMS)
	assert.Equal(t, "/etc/identedit", cfg.GrammarDir)
	assert.Equal(t, ".bak2", cfg.BackupSuffix)
	assert.True(t, cfg.Experimental)
}

func TestLoadConfigIgnoresInvalidIntegers(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("IDENTEDIT_WORKERS", "not-a-number")
	os.Setenv("IDENTEDIT_LOCK_TIMEOUT_MS", "-5")

	cfg := LoadConfig()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5000, cfg.LockTimeoutMS)
}

func TestLoadConfigExperimentalRequiresExactMatch(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("IDENTEDIT_EXPERIMENTAL", "true")
	cfg := LoadConfig()
	assert.False(t, cfg.Experimental, "only the literal \"1\" should enable experimental mode")
}
