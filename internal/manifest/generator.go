// Package manifest turns a parsed proposal and its compiled catalogs into
// one simulation manifest per exposure.
package manifest

import (
	"fmt"
	"log/slog"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/siaf"
	"github.com/starford/altair/internal/storage"
)

// CatalogSet holds the compiled catalogs of a run: target name → source
// kind → partition files in partition order.
type CatalogSet map[string]map[models.SourceKind][]models.SourceCatalog

// Options tune the generator.
type Options struct {
	Roll   float64 // position angle of the telescope V3 axis on sky, degrees
	Logger *slog.Logger
}

// Generator resolves pointings and catalog references and writes manifest
// files into the workspace.
type Generator struct {
	reg  *siaf.Registry
	ws   *storage.Workspace
	roll float64
	log  *slog.Logger
}

// NewGenerator builds a Generator over the registry and workspace.
func NewGenerator(reg *siaf.Registry, ws *storage.Workspace, opts Options) *Generator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Generator{reg: reg, ws: ws, roll: opts.Roll, log: log}
}

// Generate emits one manifest per exposure, in proposal order. Every
// manifest is validated and written atomically before the next one is
// built; a write failure leaves no partial file behind.
func (g *Generator) Generate(prop *models.Proposal, cats CatalogSet) ([]models.ExposureManifest, error) {
	var out []models.ExposureManifest
	names := make(map[string]string)

	for _, obs := range prop.Observations {
		for _, exp := range obs.Exposures {
			m, err := g.build(prop.ID, obs.Target, exp, cats)
			if err != nil {
				return nil, err
			}
			if prev, dup := names[m.FilePath]; dup {
				return nil, fmt.Errorf("%w: exposures %s and %s produce the same manifest name %s",
					apperr.ErrMalformedProposal, prev, exp.Key(), m.FilePath)
			}
			names[m.FilePath] = exp.Key()

			if err := g.write(m); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}
	g.log.Info("manifests generated",
		slog.String("proposal", prop.ID),
		slog.Int("count", len(out)))
	return out, nil
}

func (g *Generator) build(proposalID string, target models.Target, exp models.Exposure, cats CatalogSet) (models.ExposureManifest, error) {
	ap, err := g.reg.Lookup(exp.Aperture)
	if err != nil {
		return models.ExposureManifest{}, fmt.Errorf("exposure %s: %w", exp.Key(), err)
	}
	pointing := siaf.TransformPointing(ap, exp.DitherX, exp.DitherY)
	footprint, err := siaf.Footprint(ap, target.RA, target.Dec, exp.DitherX, exp.DitherY)
	if err != nil {
		return models.ExposureManifest{}, fmt.Errorf("exposure %s: %w", exp.Key(), err)
	}
	kinds, err := g.reg.SupportedKinds(exp.Instrument)
	if err != nil {
		return models.ExposureManifest{}, fmt.Errorf("exposure %s: %w", exp.Key(), err)
	}

	refs, err := selectCatalogs(exp, target.Name, footprint, kinds, cats)
	if err != nil {
		return models.ExposureManifest{}, err
	}

	base := exp.BaseName(proposalID)
	m := models.ExposureManifest{
		Version: models.ManifestVersion,
		Exposure: models.ManifestExposure{
			ID:          base,
			Observation: exp.Observation,
			Visit:       exp.Visit,
			Number:      exp.Number,
			PointingID:  exp.PointingID,
		},
		Instrument: models.ManifestInstrument{
			Name:     exp.Instrument,
			Detector: exp.Detector,
			Aperture: exp.Aperture,
			Filter:   exp.Filter,
		},
		Readout: models.ManifestReadout{
			Pattern:      exp.ReadoutPattern,
			Groups:       exp.Groups,
			Integrations: exp.Integrations,
			ExposureTime: exp.ExposureTime,
		},
		Pointing: models.ManifestPointing{
			Target:  target.Name,
			RA:      target.RA,
			Dec:     target.Dec,
			V2:      pointing.V2,
			V3:      pointing.V3,
			Roll:    g.roll,
			DitherX: exp.DitherX,
			DitherY: exp.DitherY,
		},
		Catalogs: refs,
		Output:   models.ManifestOutput{File: path.Join(storage.SimDir, base+"_uncal.fits")},
		FilePath: path.Join(storage.ManifestDir, base+".yaml"),
	}
	if err := m.Validate(); err != nil {
		return models.ExposureManifest{}, fmt.Errorf("exposure %s: manifest invalid: %w", exp.Key(), err)
	}
	return m, nil
}

// selectCatalogs picks, for every kind the instrument supports, the
// partitions whose bounds intersect the exposure footprint. All
// intersecting partitions are referenced.
func selectCatalogs(exp models.Exposure, target string, footprint models.Box, kinds []models.SourceKind, cats CatalogSet) ([]models.ManifestCatalog, error) {
	byKind := cats[target]
	var out []models.ManifestCatalog
	for _, kind := range kinds {
		compiled := byKind[kind]
		if len(compiled) == 0 {
			return nil, fmt.Errorf("%w: exposure %s needs a %s catalog for target %s",
				apperr.ErrMissingCatalog, exp.Key(), kind, target)
		}
		var files []models.CatalogRef
		for _, cat := range compiled {
			if cat.Bounds.Intersects(footprint) {
				files = append(files, models.CatalogRef{Path: cat.Path, SHA256: cat.Checksum})
			}
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: exposure %s: no %s partition covers its field",
				apperr.ErrMissingCatalog, exp.Key(), kind)
		}
		out = append(out, models.ManifestCatalog{Kind: kind, Files: files})
	}
	return out, nil
}

func (g *Generator) write(m models.ExposureManifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", apperr.ErrManifestWrite, m.FilePath, err)
	}
	if err := g.ws.Write(m.FilePath, data); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrManifestWrite, m.FilePath, err)
	}
	return nil
}

// Load reads one manifest back from the workspace and validates it.
func Load(ws *storage.Workspace, rel string) (models.ExposureManifest, error) {
	data, err := ws.Read(rel)
	if err != nil {
		return models.ExposureManifest{}, fmt.Errorf("read manifest %s: %w", rel, err)
	}
	var m models.ExposureManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return models.ExposureManifest{}, fmt.Errorf("parse manifest %s: %w", rel, err)
	}
	if err := m.Validate(); err != nil {
		return models.ExposureManifest{}, fmt.Errorf("manifest %s invalid: %w", rel, err)
	}
	m.FilePath = rel
	return m, nil
}

// Discover lists the compiled manifest files in the workspace, sorted by
// name. The zero-padded numbering makes that observation/visit/exposure
// order.
func Discover(ws *storage.Workspace) ([]string, error) {
	return ws.List(storage.ManifestDir, ".yaml")
}
