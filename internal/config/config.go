// Package config loads ambient runtime configuration from IDENTEDIT_*
// environment variables, following the MORFX_*-prefixed LoadConfig
// pattern: sensible defaults, overridable from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings every entry point reads.
type Config struct {
	Workers       int    // loaded but not read by any command
	LockTimeoutMS int    // loaded but not read: lock acquisition is a single non-blocking attempt
	Experimental  bool   // enables failure-injection and other test-only hooks
	GrammarDir    string // directory holding a grammar manifest.json
	BackupSuffix  string
}

// LoadConfig loads .env (if present) then reads IDENTEDIT_* environment
// variables, falling back to sensible defaults when a variable is absent
// or malformed.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Workers:       4,
		LockTimeoutMS: 5000,
		GrammarDir:    ".",
		BackupSuffix:  ".identedit.bak",
	}

	if v := os.Getenv("IDENTEDIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("IDENTEDIT_LOCK_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LockTimeoutMS = n
		}
	}
	if v := os.Getenv("IDENTEDIT_GRAMMAR_DIR"); v != "" {
		cfg.GrammarDir = v
	}
	if v := os.Getenv("IDENTEDIT_BACKUP_SUFFIX"); v != "" {
		cfg.BackupSuffix = v
	}
	cfg.Experimental = os.Getenv("IDENTEDIT_EXPERIMENTAL") == "1"

	return cfg
}
