// Package migrate applies the embedded schema for the postgres session backend.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"

	"github.com/example/resy-booker/internal/db"
	"github.com/example/resy-booker/internal/logging"
)

//go:embed *.sql
var files embed.FS

const bookkeeping = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Migration is one SQL file. Files apply in Version (file name) order.
type Migration struct {
	Version string
	SQL     string
}

// Load reads every *.sql file at the root of fsys.
func Load(fsys fs.ReadFileFS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	ms := make([]Migration, 0, len(names))
	for _, name := range names {
		b, err := fsys.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		ms = append(ms, Migration{Version: path.Base(name), SQL: string(b)})
	}
	return ms, nil
}

// Up applies the embedded migrations not yet recorded and returns the
// versions it applied.
func Up(ctx context.Context, d db.Execer, logger *slog.Logger) ([]string, error) {
	ms, err := Load(files)
	if err != nil {
		return nil, err
	}
	return apply(ctx, d, ms, logging.Component(logger, "migrate"))
}

func apply(ctx context.Context, d db.Execer, ms []Migration, log *slog.Logger) ([]string, error) {
	if err := d.Exec(ctx, bookkeeping); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range ms {
		var done bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, m.Version).Scan(&done); err != nil {
			return applied, db.WrapNotFound(err)
		}
		if done {
			continue
		}
		if err := d.Exec(ctx, m.SQL); err != nil {
			return applied, fmt.Errorf("apply %s: %w", m.Version, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, m.Version); err != nil {
			return applied, fmt.Errorf("record %s: %w", m.Version, err)
		}
		log.Info("migration applied", slog.String("version", m.Version))
		applied = append(applied, m.Version)
	}
	return applied, nil
}
