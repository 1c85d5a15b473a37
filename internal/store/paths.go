package store

import (
	"strings"

	"github.com/harunnryd/solace/internal/config"
	"github.com/harunnryd/solace/internal/pathutil"
)

// ResolveStatePath expands the configured state path, falling back to
// ~/.solace/state.json when empty.
func ResolveStatePath(statePath string) (string, error) {
	if trimmed := strings.TrimSpace(statePath); trimmed != "" {
		return pathutil.Expand(trimmed)
	}
	return config.DefaultStatePath(), nil
}

// LockPath returns the lock file guarding statePath.
func LockPath(statePath string) string {
	return statePath + ".lock"
}
