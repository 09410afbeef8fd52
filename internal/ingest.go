package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/altair/internal/catalog"
)

// Ingest loads source records from catalog files into the SQLite source
// database, building the offline query fixture.
func Ingest(ctx context.Context, paths []string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no catalog files given")
	}
	dbPath := app.config.Catalog.SQLitePath
	if dbPath == "" {
		return fmt.Errorf("catalog sqlite_path not configured")
	}

	db, err := catalog.OpenSourceDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	total := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open catalog %s: %w", p, err)
		}
		kind, sources, err := catalog.DecodeCatalog(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("decode catalog %s: %w", p, err)
		}
		if err := db.Insert(ctx, kind, sources); err != nil {
			return fmt.Errorf("ingest %s: %w", p, err)
		}
		total += len(sources)
		app.logger.Info("catalog ingested",
			slog.String("path", p),
			slog.String("kind", string(kind)),
			slog.Int("sources", len(sources)))
	}

	app.logger.Info("ingest finished",
		slog.String("database", dbPath),
		slog.Int("files", len(paths)),
		slog.Int("sources", total))
	return nil
}
