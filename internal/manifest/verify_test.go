package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/checksum"
	"github.com/starford/altair/internal/models"
)

func TestVerifyCatalogs(t *testing.T) {
	ws := testWorkspace(t)
	content := []byte("# altair source catalog\n")
	if err := ws.Write("catalogs/field_point_p001.cat", content); err != nil {
		t.Fatal(err)
	}

	var m models.ExposureManifest
	m.Exposure.ID = "jw01234001001_00001_nrca1"
	m.Catalogs = []models.ManifestCatalog{{
		Kind: models.SourceKindPoint,
		Files: []models.CatalogRef{{
			Path:   "catalogs/field_point_p001.cat",
			SHA256: checksum.Sum(content),
		}},
	}}

	if err := VerifyCatalogs(ws, m); err != nil {
		t.Fatalf("VerifyCatalogs() error = %v", err)
	}

	if err := ws.Write("catalogs/field_point_p001.cat", []byte("# tampered\n")); err != nil {
		t.Fatal(err)
	}
	err := VerifyCatalogs(ws, m)
	if !errors.Is(err, apperr.ErrMissingCatalog) {
		t.Fatalf("VerifyCatalogs() after tamper error = %v, want ErrMissingCatalog", err)
	}
	if !strings.Contains(err.Error(), "jw01234001001_00001_nrca1") {
		t.Errorf("error %q does not name the exposure", err)
	}
}

func TestVerifyCatalogs_MissingFile(t *testing.T) {
	ws := testWorkspace(t)

	var m models.ExposureManifest
	m.Exposure.ID = "jw01234001001_00001_guider1"
	m.Catalogs = []models.ManifestCatalog{{
		Kind:  models.SourceKindPoint,
		Files: []models.CatalogRef{{Path: "catalogs/absent.cat", SHA256: "00"}},
	}}

	if err := VerifyCatalogs(ws, m); !errors.Is(err, apperr.ErrMissingCatalog) {
		t.Errorf("VerifyCatalogs() error = %v, want ErrMissingCatalog", err)
	}
}
