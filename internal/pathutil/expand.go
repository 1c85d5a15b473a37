package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const stateDirName = ".solace"

// Expand resolves environment variables and "~/" home shortcuts.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := resolveHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(expanded, "~"), "/"))
	}

	return filepath.Clean(expanded), nil
}

// StateDir is the per-user directory holding config.yaml and state.json.
// SOLACE_HOME overrides it; without a resolvable home it falls back to ./.solace.
func StateDir() string {
	if override := strings.TrimSpace(os.Getenv("SOLACE_HOME")); override != "" {
		if expanded, err := Expand(override); err == nil {
			return expanded
		}
	}
	home, err := resolveHomeDir()
	if err != nil {
		return stateDirName
	}
	return filepath.Join(home, stateDirName)
}

func resolveHomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && usableHome(home) {
		return strings.TrimSpace(home), nil
	}

	if current, err := user.Current(); err == nil && usableHome(current.HomeDir) {
		return strings.TrimSpace(current.HomeDir), nil
	}

	envHome := strings.TrimSpace(os.Getenv("HOME"))
	if envHome == "" {
		return "", fmt.Errorf("HOME is not set")
	}
	return "", fmt.Errorf("HOME is not fully resolved: %s", envHome)
}

func usableHome(dir string) bool {
	trimmed := strings.TrimSpace(dir)
	return trimmed != "" && trimmed != "~" && !strings.HasPrefix(trimmed, "~/")
}
