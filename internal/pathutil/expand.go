package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LookupFunc reports the value of a variable referenced as $NAME or ${NAME}.
type LookupFunc func(name string) (string, bool)

// Expand resolves variable references and a leading "~" in a configured
// path. Variables come from lookup only; references it cannot resolve are
// kept as written, and a nil lookup disables expansion. Relative paths stay
// relative to the working directory.
func Expand(path string, lookup LookupFunc) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := trimmed
	if lookup != nil && strings.Contains(trimmed, "$") {
		expanded = os.Expand(trimmed, func(name string) string {
			if value, ok := lookup(name); ok {
				return value
			}
			return "$" + name
		})
	}
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(expanded, "~"), "/"))
	}

	return filepath.Clean(expanded), nil
}

// EnsureDirs creates every directory (and its parents). Existing directories are not an error.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
