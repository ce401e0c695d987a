package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/advanced-security/policy-as-code/pkg/jsonutil"
)

// DefaultResultsDir is where run snapshots are written relative to the
// working directory.
const DefaultResultsDir = ".compliance"

// WriteSnapshot persists the full report as JSON under dir, one file
// per technology plus the aggregate, and returns the aggregate path.
// An empty dir uses DefaultResultsDir.
func WriteSnapshot(report *Report, dir string) (string, error) {
	if dir == "" {
		dir = DefaultResultsDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results dir: %w", err)
	}

	for _, result := range report.Results {
		if result.State == nil {
			continue
		}
		path := filepath.Join(dir, slugify(result.Name)+".json")
		if err := writeJSON(path, result); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, "results.json")
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// slugify converts a checker display name into a filename fragment.
func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '-')
		}
	}
	return string(out)
}
