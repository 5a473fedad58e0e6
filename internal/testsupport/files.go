package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WritePassList writes a one-column CSV with an "email" header and returns its path.
func WritePassList(t testing.TB, dir string, emails ...string) string {
	t.Helper()

	path := filepath.Join(dir, "passlist.csv")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	content := "email\n" + strings.Join(emails, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
