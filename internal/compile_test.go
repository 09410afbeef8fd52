package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/manifest"
	"github.com/starford/altair/internal/storage"
	"github.com/starford/altair/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Workspace.Root = t.TempDir()
	cfg.Catalog.Synthetic.PointCount = 300
	cfg.Catalog.Synthetic.ExtendedCount = 60
	return cfg
}

func TestCompile_EndToEnd(t *testing.T) {
	pointing, definition := testutil.WriteProposalFixture(t)
	cfg := testConfig(t)

	err := Compile(context.Background(), pointing, definition,
		WithConfig(cfg), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	ws, err := storage.NewWorkspace(cfg.Workspace.Root)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	rels, err := manifest.Discover(ws)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(rels) != testutil.FixtureExposures {
		t.Fatalf("manifests = %d, want %d", len(rels), testutil.FixtureExposures)
	}

	cats, err := ws.List(storage.CatalogDir, ".cat")
	if err != nil {
		t.Fatalf("List(catalogs) error = %v", err)
	}
	if len(cats) == 0 {
		t.Error("no catalog files written")
	}

	m, err := manifest.Load(ws, rels[0])
	if err != nil {
		t.Fatalf("Load(%s) error = %v", rels[0], err)
	}
	if m.Pointing.Target != "LMC-FIELD" {
		t.Errorf("target = %q, want %q", m.Pointing.Target, "LMC-FIELD")
	}
	if len(m.Catalogs) == 0 {
		t.Error("manifest references no catalogs")
	}
}

func TestCompile_UndefinedTarget(t *testing.T) {
	dir := t.TempDir()
	pointing := filepath.Join(dir, "prop.pointing")
	if err := os.WriteFile(pointing, []byte(testutil.PointingFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	definition := filepath.Join(dir, "prop.xml")
	broken := strings.Replace(testutil.DefinitionFixture, `target="LMC-FIELD"`, `target="NO-SUCH"`, 1)
	if err := os.WriteFile(definition, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Compile(context.Background(), pointing, definition,
		WithConfig(testConfig(t)), WithLogger(quietLogger()))
	if !errors.Is(err, apperr.ErrMalformedProposal) {
		t.Errorf("Compile() error = %v, want ErrMalformedProposal", err)
	}
}

func TestCompile_RequiresConfig(t *testing.T) {
	err := Compile(context.Background(), "a", "b")
	if err == nil || !strings.Contains(err.Error(), "config is required") {
		t.Errorf("Compile() without config error = %v", err)
	}
}

func TestCompile_Recompilation(t *testing.T) {
	pointing, definition := testutil.WriteProposalFixture(t)
	cfg := testConfig(t)

	for i := 0; i < 2; i++ {
		err := Compile(context.Background(), pointing, definition,
			WithConfig(cfg), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Compile() pass %d error = %v", i+1, err)
		}
	}

	ws, err := storage.NewWorkspace(cfg.Workspace.Root)
	if err != nil {
		t.Fatal(err)
	}
	rels, err := manifest.Discover(ws)
	if err != nil {
		t.Fatal(err)
	}
	// Deterministic names: the second pass supersedes, never accumulates.
	if len(rels) != testutil.FixtureExposures {
		t.Errorf("manifests after recompilation = %d, want %d", len(rels), testutil.FixtureExposures)
	}
}
