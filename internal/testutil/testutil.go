// Package testutil provides shared test helpers for setting up workspaces,
// source databases, and proposal export fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/storage"
)

// PointingFixture is a small two-visit pointing report: a NIRCam primary
// with an FGS parallel in visit 1 (acquisition row skipped), and a second
// visit on the long-wavelength module.
const PointingFixture = `# Proposal 01234 pointing report
* LMC astrometric field (Obs 1)
** Visit 1:1
Tar Tile Exp Dith Aperture    Target     RA         Dec         BaseX  BaseY  DithX   DithY   Level  Type
  1    1   1    0 NRCA1_FULL  LMC-FIELD  80.482083  -69.498250  +0.0   +0.0    0.000   0.000  TARGET T_ACQ
  1    1   1    1 NRCA1_FULL  LMC-FIELD  80.482083  -69.498250  +0.0   +0.0    0.000   0.000  FILTER SCIENCE
  1    1   1    1 FGS1_FULL   LMC-FIELD  80.482083  -69.498250  +0.0   +0.0    0.000   0.000  FILTER PARALLEL
  1    1   1    2 NRCA1_FULL  LMC-FIELD  80.482083  -69.498250  +0.0   +0.0   +2.420  +4.840  DITHER SCIENCE
  1    1   1    2 FGS1_FULL   LMC-FIELD  80.482083  -69.498250  +0.0   +0.0   +2.420  +4.840  DITHER PARALLEL
** Visit 1:2
Tar Tile Exp Dith Aperture    Target     RA         Dec         BaseX  BaseY  DithX   DithY   Level  Type
  1    1   2    1 NRCA5_FULL  LMC-FIELD  80.482083  -69.498250  +1.0   -1.0    0.000   0.000  FILTER SCIENCE
`

// DefinitionFixture is the matching XML definition document.
const DefinitionFixture = `<ObservingProgram proposal="01234" title="LMC astrometry">
  <Targets>
    <Target name="LMC-FIELD" ra="80.482083" dec="-69.49825"/>
  </Targets>
  <Observations>
    <Observation number="1" label="Deep imaging" target="LMC-FIELD">
      <Instrument name="NIRCAM" primary="true">
        <Exposure filter="F150W" readoutPattern="SHALLOW4" groups="5" integrations="2" exposureTime="1052.5"/>
        <Exposure filter="F356W" readoutPattern="BRIGHT2" groups="7" integrations="1" exposureTime="733.7"/>
      </Instrument>
      <Instrument name="FGS" primary="false">
        <Exposure readoutPattern="FGSRAPID" groups="4" integrations="1" exposureTime="42.9"/>
      </Instrument>
    </Observation>
  </Observations>
</ObservingProgram>
`

// FixtureExposures is how many science/parallel exposures the fixtures join
// into.
const FixtureExposures = 5

// TestWorkspace creates a temporary workspace that is automatically cleaned up.
func TestWorkspace(t *testing.T) *storage.Workspace {
	t.Helper()
	ws, err := storage.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

// TestSourceDB creates a temporary SQLite source database that is
// automatically cleaned up.
func TestSourceDB(t *testing.T) *catalog.SourceDB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "altair-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.OpenSourceDB(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteProposalFixture writes the proposal export fixtures into a temp
// directory and returns the pointing and definition paths.
func WriteProposalFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	pointing := filepath.Join(dir, "prop.pointing")
	if err := os.WriteFile(pointing, []byte(PointingFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	definition := filepath.Join(dir, "prop.xml")
	if err := os.WriteFile(definition, []byte(DefinitionFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	return pointing, definition
}
