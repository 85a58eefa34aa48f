package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const versionLayout = "20060102150405"

// now is swapped in tests.
var now = time.Now

// CreateSQLMigration writes an empty goose migration named <dir>/<YYYYMMDDHHMMSS>_<slug>.sql
// and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", errors.New("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	target := filepath.Join(dir, now().UTC().Format(versionLayout)+"_"+slug+".sql")
	// O_EXCL refuses to clobber a migration created in the same second
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", target, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n-- %s\n\n%s\n-- rollback %s\n", upMarker, slug, downMarker, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", target, err)
	}
	return target, nil
}

// migrationSlug lowercases name and collapses every run of other characters into one underscore.
func migrationSlug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
