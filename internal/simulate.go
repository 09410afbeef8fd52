package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/altair/internal/driver"
	"github.com/starford/altair/internal/manifest"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/storage"
)

// RunBatch drives the external simulator over compiled manifests and
// persists a run report. names selects a subset by manifest file name; an
// empty list runs everything in the workspace. Returns an error when any
// exposure failed, so the CLI exits non-zero.
func RunBatch(ctx context.Context, names []string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}

	ws, err := app.workspace()
	if err != nil {
		return err
	}

	rels, err := manifest.Discover(ws)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		rels, err = selectManifests(rels, names)
		if err != nil {
			return err
		}
	}
	if len(rels) == 0 {
		return fmt.Errorf("no manifests found in %s; run compile first", ws.Root())
	}

	manifests := make([]models.ExposureManifest, 0, len(rels))
	for _, rel := range rels {
		m, err := manifest.Load(ws, rel)
		if err != nil {
			return err
		}
		if err := manifest.VerifyCatalogs(ws, m); err != nil {
			return err
		}
		manifests = append(manifests, m)
	}

	sim, err := app.simulator(ws)
	if err != nil {
		return err
	}

	d := driver.New(sim, driver.Options{
		Workers: app.config.Simulator.Workers,
		Logger:  app.logger,
	})
	rep := d.Run(ctx, manifests)

	repPath, err := driver.WriteReport(ws, rep)
	if err != nil {
		return err
	}
	app.logger.Info("run report written", slog.String("path", repPath))

	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d exposures failed", rep.Failed, len(rep.Results))
	}
	return nil
}

// selectManifests keeps the discovered manifests matching the requested
// names. Names may be given bare, with the .yaml suffix, or as full
// workspace-relative paths.
func selectManifests(rels, names []string) ([]string, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[normalizeManifestName(n)] = true
	}

	var out []string
	for _, rel := range rels {
		if want[rel] {
			out = append(out, rel)
			delete(want, rel)
		}
	}
	for missing := range want {
		return nil, fmt.Errorf("manifest %s not found; run compile first", missing)
	}
	return out, nil
}

func normalizeManifestName(name string) string {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	if !strings.HasPrefix(name, storage.ManifestDir+"/") {
		name = storage.ManifestDir + "/" + name
	}
	return name
}
