package main

import (
	"path/filepath"

	"github.com/isty2e/identedit/internal/config"
	"github.com/isty2e/identedit/internal/structprovider"
)

// buildRegistry constructs the structure-provider registry for one command
// invocation, activating any manifest.json found under cfg.GrammarDir. A
// missing manifest is not an error — LoadManifest returns (nil, nil) for a
// nonexistent path, leaving the registry's bundled/header/json/fallback
// chain untouched.
func buildRegistry(cfg *config.Config) (*structprovider.Registry, error) {
	manifestPath := filepath.Join(cfg.GrammarDir, "manifest.json")
	providers, err := structprovider.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return structprovider.NewRegistry(providers), nil
}
