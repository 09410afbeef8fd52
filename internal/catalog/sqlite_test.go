package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
)

func tempSourceDB(t *testing.T) *SourceDB {
	t.Helper()
	db, err := OpenSourceDB(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("OpenSourceDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSourceDB_InsertAndQuery(t *testing.T) {
	db := tempSourceDB(t)
	ctx := context.Background()

	points := []models.Source{
		{RA: 80.48, Dec: -69.50, Magnitude: 19.1},
		{RA: 80.51, Dec: -69.49, Magnitude: 21.7},
		{RA: 92.00, Dec: -69.50, Magnitude: 18.0},
	}
	if err := db.Insert(ctx, models.SourceKindPoint, points); err != nil {
		t.Fatalf("Insert(point) error = %v", err)
	}
	extended := []models.Source{
		{RA: 80.49, Dec: -69.51, Magnitude: 22.3, RadiusArcsec: 0.9, SersicIndex: 1.5},
	}
	if err := db.Insert(ctx, models.SourceKindExtended, extended); err != nil {
		t.Fatalf("Insert(extended) error = %v", err)
	}

	cone := Cone{RA: 80.5, Dec: -69.5, Radius: 0.1}
	got, err := db.Query(ctx, models.SourceKindPoint, cone)
	if err != nil {
		t.Fatalf("Query(point) error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2 (distant source excluded)", len(got))
	}
	if got[0].RA != 80.48 || got[1].RA != 80.51 {
		t.Errorf("query order not by insertion: %v", got)
	}

	ext, err := db.Query(ctx, models.SourceKindExtended, cone)
	if err != nil {
		t.Fatalf("Query(extended) error = %v", err)
	}
	if len(ext) != 1 || ext[0].RadiusArcsec != 0.9 {
		t.Errorf("extended query = %+v, want one source with morphology", ext)
	}
}

func TestSourceDB_QueryAppliesDistanceCut(t *testing.T) {
	db := tempSourceDB(t)
	ctx := context.Background()

	// Inside the bounding box of the cone but beyond its radius.
	corner := []models.Source{{RA: 80.095, Dec: 0.095, Magnitude: 20}}
	if err := db.Insert(ctx, models.SourceKindPoint, corner); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := db.Query(ctx, models.SourceKindPoint, Cone{RA: 80, Dec: 0, Radius: 0.1})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("corner source inside box but outside cone returned: %v", got)
	}
}

func TestSourceDB_Count(t *testing.T) {
	db := tempSourceDB(t)
	ctx := context.Background()

	if err := db.Insert(ctx, models.SourceKindPoint, make([]models.Source, 7)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	n, err := db.Count(ctx, models.SourceKindPoint)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 7 {
		t.Errorf("Count() = %d, want 7", n)
	}
	if n, _ := db.Count(ctx, models.SourceKindExtended); n != 0 {
		t.Errorf("Count(extended) = %d, want 0", n)
	}
}

func TestSourceDB_InsertRejectsUnknownKind(t *testing.T) {
	db := tempSourceDB(t)
	err := db.Insert(context.Background(), models.SourceKind("spectral"), []models.Source{{}})
	if err == nil {
		t.Error("Insert() with unknown kind succeeded, want error")
	}
}

func TestOpenSourceDB_UnreachablePath(t *testing.T) {
	_, err := OpenSourceDB(filepath.Join(t.TempDir(), "no-such-dir", "sources.db"))
	if !errors.Is(err, apperr.ErrCatalogUnavailable) {
		t.Errorf("OpenSourceDB() error = %v, want ErrCatalogUnavailable", err)
	}
}
