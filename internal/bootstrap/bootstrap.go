// Package bootstrap prepares the on-disk layout the server needs before it
// binds its listener.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDirectories creates each directory with 0o755 permissions. Paths that
// already exist are left untouched. The caller treats a failure as fatal.
func EnsureDirectories(paths ...string) error {
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Clean(trimmed), 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", trimmed, err)
		}
	}
	return nil
}
