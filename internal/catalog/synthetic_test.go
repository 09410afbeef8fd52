package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/starford/altair/internal/models"
)

func TestSyntheticBackend_Deterministic(t *testing.T) {
	b := SyntheticBackend{PointCount: 200, ExtendedCount: 50, Seed: 99}
	cone := Cone{RA: 150.1, Dec: 2.2, Radius: 0.08}

	first, err := b.Query(context.Background(), models.SourceKindPoint, cone)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	second, err := b.Query(context.Background(), models.SourceKindPoint, cone)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated queries returned different sources")
	}
}

func TestSyntheticBackend_SourcesInsideCone(t *testing.T) {
	b := SyntheticBackend{PointCount: 500, Seed: 1}
	cone := Cone{RA: 80.5, Dec: -69.5, Radius: 0.05}

	sources, err := b.Query(context.Background(), models.SourceKindPoint, cone)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(sources) != 500 {
		t.Fatalf("len(sources) = %d, want 500", len(sources))
	}
	for _, s := range sources {
		if !cone.Contains(s.RA, s.Dec) {
			t.Errorf("source at (%.6f, %.6f) outside the cone", s.RA, s.Dec)
		}
		if s.RadiusArcsec != 0 || s.SersicIndex != 0 {
			t.Errorf("point source carries morphology: %+v", s)
		}
	}
}

func TestSyntheticBackend_ExtendedMorphology(t *testing.T) {
	b := SyntheticBackend{ExtendedCount: 80, Seed: 5, MagMin: 18, MagMax: 24}
	cone := Cone{RA: 10, Dec: 40, Radius: 0.1}

	sources, err := b.Query(context.Background(), models.SourceKindExtended, cone)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for _, s := range sources {
		if s.RadiusArcsec <= 0 || s.SersicIndex < 0.5 {
			t.Errorf("extended source without morphology: %+v", s)
		}
		if s.Magnitude < 18 || s.Magnitude > 24 {
			t.Errorf("magnitude %.3f outside configured range", s.Magnitude)
		}
	}
}
