package manifest

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/siaf"
	"github.com/starford/altair/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorkspace(t *testing.T) *storage.Workspace {
	t.Helper()
	ws, err := storage.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	return ws
}

func testRegistry(t *testing.T) *siaf.Registry {
	t.Helper()
	reg, err := siaf.Load()
	if err != nil {
		t.Fatalf("siaf.Load() error = %v", err)
	}
	return reg
}

var testTarget = models.Target{Name: "LMC-FIELD", RA: 80.482083, Dec: -69.49825}

// testProposal holds a primary NIRCam exposure, an FGS parallel riding the
// same pointing, and a dithered second NIRCam exposure.
func testProposal() *models.Proposal {
	nircam := models.Exposure{
		Observation: 1, Visit: 1, Number: 1,
		PointingID: models.PointingKey(1, 1, 1),
		Instrument: "NIRCAM", Detector: "NRCA1", Aperture: "NRCA1_FULL",
		Filter: "F150W", ReadoutPattern: "SHALLOW4",
		Groups: 5, Integrations: 2, ExposureTime: 1052.5,
	}
	parallel := models.Exposure{
		Observation: 1, Visit: 1, Number: 1,
		PointingID: models.PointingKey(1, 1, 1),
		Instrument: "FGS", Detector: "GUIDER1", Aperture: "FGS1_FULL",
		ReadoutPattern: "FGSRAPID",
		Groups:         4, Integrations: 1, ExposureTime: 42.9,
	}
	dithered := nircam
	dithered.Number = 2
	dithered.PointingID = models.PointingKey(1, 1, 2)
	dithered.DitherX = 2.42
	dithered.DitherY = 4.84

	return &models.Proposal{
		ID:    "01234",
		Title: "LMC astrometry",
		Observations: []models.Observation{{
			Number:    1,
			Label:     "Deep imaging",
			Target:    testTarget,
			Exposures: []models.Exposure{nircam, parallel, dithered},
		}},
	}
}

func testCatalogs() CatalogSet {
	point := []models.SourceCatalog{{
		Kind: models.SourceKindPoint, Target: testTarget.Name, Partition: 1,
		Bounds:   models.Box{RAMin: 80.33, RAMax: 80.63, DecMin: -69.64, DecMax: -69.36},
		Count:    120,
		Checksum: "0d7e31", Path: "catalogs/LMC-FIELD_point_p001.cat",
	}}
	extended := []models.SourceCatalog{
		{
			Kind: models.SourceKindExtended, Target: testTarget.Name, Partition: 1,
			Bounds:   models.Box{RAMin: 80.33, RAMax: 80.482083, DecMin: -69.64, DecMax: -69.36},
			Count:    40,
			Checksum: "91afbe", Path: "catalogs/LMC-FIELD_extended_p001.cat",
		},
		{
			Kind: models.SourceKindExtended, Target: testTarget.Name, Partition: 2,
			Bounds:   models.Box{RAMin: 80.482083, RAMax: 80.63, DecMin: -69.64, DecMax: -69.36},
			Count:    37,
			Checksum: "c201dd", Path: "catalogs/LMC-FIELD_extended_p002.cat",
		},
	}
	return CatalogSet{
		testTarget.Name: {
			models.SourceKindPoint:    point,
			models.SourceKindExtended: extended,
		},
	}
}

func TestGenerate_OneManifestPerExposure(t *testing.T) {
	ws := testWorkspace(t)
	g := NewGenerator(testRegistry(t), ws, Options{Roll: 37.5, Logger: quietLogger()})

	manifests, err := g.Generate(testProposal(), testCatalogs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(manifests) != 3 {
		t.Fatalf("len(manifests) = %d, want 3", len(manifests))
	}

	wantNames := []string{
		"manifests/jw01234001001_00001_nrca1.yaml",
		"manifests/jw01234001001_00001_guider1.yaml",
		"manifests/jw01234001001_00002_nrca1.yaml",
	}
	seen := make(map[string]struct{})
	for i, m := range manifests {
		if m.FilePath != wantNames[i] {
			t.Errorf("manifest %d path = %q, want %q", i, m.FilePath, wantNames[i])
		}
		if _, dup := seen[m.FilePath]; dup {
			t.Errorf("duplicate manifest path %q", m.FilePath)
		}
		seen[m.FilePath] = struct{}{}

		loaded, err := Load(ws, m.FilePath)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", m.FilePath, err)
		}
		if loaded.Exposure != m.Exposure || loaded.Pointing != m.Pointing {
			t.Errorf("manifest %s round trip changed content", m.FilePath)
		}
		if loaded.Pointing.Roll != 37.5 {
			t.Errorf("roll = %.2f, want 37.5", loaded.Pointing.Roll)
		}
	}
}

func TestGenerate_ParallelSharesPointingDiffersInCatalogs(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	manifests, err := g.Generate(testProposal(), testCatalogs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	nircam, fgs := manifests[0], manifests[1]

	if nircam.Exposure.PointingID != fgs.Exposure.PointingID {
		t.Errorf("pointing ids differ: %q vs %q", nircam.Exposure.PointingID, fgs.Exposure.PointingID)
	}
	if nircam.Pointing.Target != fgs.Pointing.Target || nircam.Pointing.DitherX != fgs.Pointing.DitherX {
		t.Error("parallel exposures disagree on target or dither")
	}
	if nircam.Pointing.V2 == fgs.Pointing.V2 {
		t.Error("different apertures yielded the same V2")
	}
	if len(nircam.Catalogs) != 2 {
		t.Errorf("NIRCam catalog groups = %d, want point and extended", len(nircam.Catalogs))
	}
	if len(fgs.Catalogs) != 1 || fgs.Catalogs[0].Kind != models.SourceKindPoint {
		t.Errorf("FGS catalog groups = %+v, want point only", fgs.Catalogs)
	}
}

func TestGenerate_ReferencesAllIntersectingPartitions(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	manifests, err := g.Generate(testProposal(), testCatalogs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// The NIRCam field straddles the extended catalog's partition split.
	for _, group := range manifests[0].Catalogs {
		if group.Kind != models.SourceKindExtended {
			continue
		}
		if len(group.Files) != 2 {
			t.Fatalf("extended files = %d, want both partitions", len(group.Files))
		}
		if group.Files[0].Path == group.Files[1].Path {
			t.Error("same partition referenced twice")
		}
		for _, f := range group.Files {
			if f.SHA256 == "" {
				t.Errorf("reference %s has no checksum", f.Path)
			}
		}
	}
}

func TestGenerate_DitherMovesPointing(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	manifests, err := g.Generate(testProposal(), testCatalogs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	base, dithered := manifests[0], manifests[2]
	if base.Pointing.V2 == dithered.Pointing.V2 && base.Pointing.V3 == dithered.Pointing.V3 {
		t.Error("dithered exposure has identical pointing")
	}
	if dithered.Pointing.DitherX != 2.42 || dithered.Pointing.DitherY != 4.84 {
		t.Errorf("dither = (%.2f, %.2f), want (2.42, 4.84)", dithered.Pointing.DitherX, dithered.Pointing.DitherY)
	}
}

func TestGenerate_MissingKindNamesExposure(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	cats := testCatalogs()
	delete(cats[testTarget.Name], models.SourceKindExtended)

	_, err := g.Generate(testProposal(), cats)
	if !errors.Is(err, apperr.ErrMissingCatalog) {
		t.Fatalf("Generate() error = %v, want ErrMissingCatalog", err)
	}
	if !strings.Contains(err.Error(), "001:001:00001/NRCA1") {
		t.Errorf("error %q does not name the exposure", err)
	}
}

func TestGenerate_NoPartitionCoversField(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	cats := testCatalogs()
	cats[testTarget.Name][models.SourceKindPoint] = []models.SourceCatalog{{
		Kind: models.SourceKindPoint, Target: testTarget.Name, Partition: 1,
		Bounds: models.Box{RAMin: 100, RAMax: 101, DecMin: 10, DecMax: 11},
		Path:   "catalogs/elsewhere_point_p001.cat", Checksum: "ff",
	}}

	_, err := g.Generate(testProposal(), cats)
	if !errors.Is(err, apperr.ErrMissingCatalog) {
		t.Errorf("Generate() error = %v, want ErrMissingCatalog", err)
	}
}

func TestGenerate_RejectsInvalidReadout(t *testing.T) {
	g := NewGenerator(testRegistry(t), testWorkspace(t), Options{Logger: quietLogger()})

	prop := testProposal()
	prop.Observations[0].Exposures[0].Groups = 0

	_, err := g.Generate(prop, testCatalogs())
	if err == nil {
		t.Fatal("Generate() with zero groups succeeded, want validation error")
	}
	if !strings.Contains(err.Error(), "manifest invalid") {
		t.Errorf("error = %v, want manifest validation failure", err)
	}
}
