package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
)

const sourcesSchemaSQL = `
CREATE TABLE IF NOT EXISTS sources (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	ra          REAL NOT NULL,
	dec         REAL NOT NULL,
	magnitude   REAL NOT NULL,
	radius      REAL NOT NULL DEFAULT 0,
	ellipticity REAL NOT NULL DEFAULT 0,
	pos_angle   REAL NOT NULL DEFAULT 0,
	sersic      REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sources_kind_ra ON sources(kind, ra);
CREATE INDEX IF NOT EXISTS idx_sources_dec ON sources(dec);
`

// SourceDB is the SQLite-backed source store. It serves cone queries as a
// Backend and is filled by the ingest command.
type SourceDB struct {
	conn *sql.DB
}

var _ Backend = (*SourceDB)(nil)

// OpenSourceDB opens (or creates) the source database and applies the
// schema. An unreachable database wraps ErrCatalogUnavailable.
func OpenSourceDB(path string) (*SourceDB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: open source db: %v", apperr.ErrCatalogUnavailable, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: ping source db: %v", apperr.ErrCatalogUnavailable, err)
	}
	if _, err := conn.Exec(sourcesSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply sources schema: %w", err)
	}
	return &SourceDB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *SourceDB) Close() error {
	return db.conn.Close()
}

// Query runs a cone search: a bounding-box prefilter in SQL, then the
// exact angular-distance cut in Go. Row order follows insertion order so
// repeated queries return identical slices.
func (db *SourceDB) Query(ctx context.Context, kind models.SourceKind, cone Cone) ([]models.Source, error) {
	box := cone.Bounds()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT ra, dec, magnitude, radius, ellipticity, pos_angle, sersic
		FROM sources
		WHERE kind = ? AND ra BETWEEN ? AND ? AND dec BETWEEN ? AND ?
		ORDER BY id
	`, string(kind), box.RAMin, box.RAMax, box.DecMin, box.DecMax)
	if err != nil {
		return nil, fmt.Errorf("%w: query sources: %v", apperr.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.RA, &s.Dec, &s.Magnitude, &s.RadiusArcsec, &s.Ellipticity, &s.PosAngle, &s.SersicIndex); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if cone.Contains(s.RA, s.Dec) {
			out = append(out, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read sources: %v", apperr.ErrCatalogUnavailable, err)
	}
	return out, nil
}

// Insert loads source records of one kind within a transaction.
func (db *SourceDB) Insert(ctx context.Context, kind models.SourceKind, sources []models.Source) error {
	if !kind.Valid() {
		return fmt.Errorf("insert sources: unknown kind %q", kind)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin source insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`
		INSERT INTO sources (kind, ra, dec, magnitude, radius, ellipticity, pos_angle, sersic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare source insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sources {
		if _, err := stmt.Exec(string(kind), s.RA, s.Dec, s.Magnitude, s.RadiusArcsec, s.Ellipticity, s.PosAngle, s.SersicIndex); err != nil {
			return fmt.Errorf("insert source at (%.6f, %.6f): %w", s.RA, s.Dec, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored sources of one kind.
func (db *SourceDB) Count(ctx context.Context, kind models.SourceKind) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources WHERE kind = ?`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return n, nil
}

// Ping reports whether the store is reachable, for readiness checks.
func (db *SourceDB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrCatalogUnavailable, err)
	}
	return nil
}
