package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/saborhub/saborhub-backend/pkg/config"
)

// DefaultDir is the on-disk location used by the create and validate commands.
const DefaultDir = "pkg/migrate/migrations"

// EmbeddedDir selects the migrations compiled into the binary.
const EmbeddedDir = ""

//go:embed migrations/*.sql
var embedded embed.FS

// Run executes a goose command. An empty dir runs the embedded migrations.
func Run(ctx context.Context, db *sql.DB, driver string, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dir, err := prepare(driver, dir)
	if err != nil {
		return err
	}
	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up or down to the requested version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	dir, err = prepare(driver, dir)
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func prepare(driver, dir string) (string, error) {
	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if dir == EmbeddedDir {
		goose.SetBaseFS(embedded)
		return "migrations", nil
	}
	goose.SetBaseFS(nil)
	return dir, nil
}

func gooseDialect(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}
