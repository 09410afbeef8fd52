package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/manifest"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/proposal"
	"github.com/starford/altair/internal/siaf"
)

// Compile parses the proposal export, compiles source catalogs for every
// target, and writes one YAML manifest per exposure into the workspace.
func Compile(ctx context.Context, pointingPath, definitionPath string, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	return app.compileOnce(ctx, pointingPath, definitionPath)
}

func (a *application) compileOnce(ctx context.Context, pointingPath, definitionPath string) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}

	prop, err := proposal.Parse(pointingPath, definitionPath, reg)
	if err != nil {
		return err
	}
	a.logger.Info("proposal parsed",
		slog.String("proposal", prop.ID),
		slog.String("title", prop.Title),
		slog.Int("observations", len(prop.Observations)),
		slog.Int("exposures", len(prop.Exposures())))

	ws, err := a.workspace()
	if err != nil {
		return err
	}

	backend, closeBackend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer closeBackend()

	kindsByTarget, err := requiredKinds(reg, prop)
	if err != nil {
		return err
	}

	compiler := catalog.NewCompiler(backend, ws, catalog.Options{
		FieldRadius:      a.config.Catalog.FieldRadiusDeg,
		DensityThreshold: a.config.Catalog.DensityThreshold,
		MaxDepth:         a.config.Catalog.MaxDepth,
		Logger:           a.logger,
	})

	catalogs := manifest.CatalogSet{}
	for _, obs := range prop.Observations {
		target := obs.Target
		if _, done := catalogs[target.Name]; done {
			continue
		}
		compiled, err := compiler.Compile(ctx, target, kindsByTarget[target.Name])
		if err != nil {
			return err
		}
		catalogs[target.Name] = compiled
	}

	gen := manifest.NewGenerator(reg, ws, manifest.Options{
		Roll:   a.config.Telescope.RollDeg,
		Logger: a.logger,
	})
	manifests, err := gen.Generate(prop, catalogs)
	if err != nil {
		return err
	}

	a.logger.Info("proposal compiled",
		slog.String("proposal", prop.ID),
		slog.Int("manifests", len(manifests)),
		slog.String("workspace", ws.Root()))
	return nil
}

// requiredKinds collects, per target, the union of source kinds imaged by
// the instruments observing it.
func requiredKinds(reg *siaf.Registry, prop *models.Proposal) (map[string][]models.SourceKind, error) {
	need := make(map[string]map[models.SourceKind]bool)
	for _, obs := range prop.Observations {
		set := need[obs.Target.Name]
		if set == nil {
			set = make(map[models.SourceKind]bool)
			need[obs.Target.Name] = set
		}
		for _, exp := range obs.Exposures {
			kinds, err := reg.SupportedKinds(exp.Instrument)
			if err != nil {
				return nil, fmt.Errorf("exposure %s: %w", exp.Key(), err)
			}
			for _, k := range kinds {
				set[k] = true
			}
		}
	}

	out := make(map[string][]models.SourceKind, len(need))
	for target, set := range need {
		for _, k := range []models.SourceKind{models.SourceKindPoint, models.SourceKindExtended} {
			if set[k] {
				out[target] = append(out[target], k)
			}
		}
	}
	return out, nil
}
