package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks a migrations directory before it ships: timestamped names,
// unique versions, and an Up section followed by a Down section in every file.
// An empty dir validates the embedded set.
func ValidateDir(dir string) error {
	if dir == EmbeddedDir {
		return validateFS(embedded, "migrations")
	}
	return validateFS(os.DirFS(dir), ".")
}

func validateFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	versions := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		name := entry.Name()

		match := migrationNameRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if other, dup := versions[match[1]]; dup {
			return fmt.Errorf("duplicate migration version %s in %q and %q", match[1], other, name)
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		if err := checkSections(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}

	if len(versions) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return nil
}

func checkSections(body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", upMarker)
	case down < 0:
		return fmt.Errorf("missing %q", downMarker)
	case down < up:
		return fmt.Errorf("%q must come before %q", upMarker, downMarker)
	}
	return nil
}
