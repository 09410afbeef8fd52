package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"

	"github.com/starford/altair/internal/checksum"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/storage"
)

// Options tune the compiler. Zero values fall back to the defaults below.
type Options struct {
	FieldRadius      float64 // degrees
	DensityThreshold int
	MaxDepth         int
	Logger           *slog.Logger
}

const (
	defaultFieldRadius = 0.1
	defaultThreshold   = 1000
	defaultMaxDepth    = 8
)

// Compiler turns target fields into partitioned catalog files in the
// workspace. It is a synchronous, single-threaded computation; the only
// shared state it touches is the read-only backend.
type Compiler struct {
	backend   Backend
	ws        *storage.Workspace
	radius    float64
	threshold int
	maxDepth  int
	log       *slog.Logger
}

// NewCompiler builds a Compiler over the given backend and workspace.
func NewCompiler(backend Backend, ws *storage.Workspace, opts Options) *Compiler {
	c := &Compiler{
		backend:   backend,
		ws:        ws,
		radius:    opts.FieldRadius,
		threshold: opts.DensityThreshold,
		maxDepth:  opts.MaxDepth,
		log:       opts.Logger,
	}
	if c.radius <= 0 {
		c.radius = defaultFieldRadius
	}
	if c.threshold <= 0 {
		c.threshold = defaultThreshold
	}
	if c.maxDepth <= 0 {
		c.maxDepth = defaultMaxDepth
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Compile queries and writes catalogs for every requested kind around the
// target. The result maps each kind to its partition files in partition
// order. Identical inputs produce identical files: sources are sorted by
// (RA, Dec, magnitude) before indexing, and the quad partition is
// deterministic.
func (c *Compiler) Compile(ctx context.Context, target models.Target, kinds []models.SourceKind) (map[models.SourceKind][]models.SourceCatalog, error) {
	cone := Cone{RA: target.RA, Dec: target.Dec, Radius: c.radius}
	if err := cone.validate(); err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}

	out := make(map[models.SourceKind][]models.SourceCatalog, len(kinds))
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("target %s: unknown source kind %q", target.Name, kind)
		}
		if _, dup := out[kind]; dup {
			continue
		}

		sources, err := c.backend.Query(ctx, kind, cone)
		if err != nil {
			return nil, fmt.Errorf("compile %s catalog for %s: %w", kind, target.Name, err)
		}
		sortSources(sources)
		for i := range sources {
			sources[i].Index = i + 1
		}

		leaves := partition(sources, cone.Bounds(), c.threshold, c.maxDepth)
		cats := make([]models.SourceCatalog, 0, len(leaves))
		for i, lf := range leaves {
			cat, err := c.writeLeaf(target.Name, kind, i+1, lf)
			if err != nil {
				return nil, err
			}
			cats = append(cats, cat)
		}
		c.log.Info("catalog compiled",
			slog.String("target", target.Name),
			slog.String("kind", string(kind)),
			slog.Int("sources", len(sources)),
			slog.Int("partitions", len(cats)))
		out[kind] = cats
	}
	return out, nil
}

func (c *Compiler) writeLeaf(target string, kind models.SourceKind, part int, lf leaf) (models.SourceCatalog, error) {
	content := EncodeCatalog(kind, target, part, lf.bounds, lf.sources)
	rel := path.Join(storage.CatalogDir, CatalogFileName(target, kind, part))
	if err := c.ws.Write(rel, content); err != nil {
		return models.SourceCatalog{}, fmt.Errorf("write catalog %s: %w", rel, err)
	}
	return models.SourceCatalog{
		Kind:      kind,
		Target:    target,
		Partition: part,
		Bounds:    lf.bounds,
		Count:     len(lf.sources),
		Checksum:  checksum.Sum(content),
		Path:      rel,
	}, nil
}

// sortSources orders sources by RA, then Dec, then magnitude, keeping the
// backend's order for exact ties.
func sortSources(sources []models.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.RA != b.RA {
			return a.RA < b.RA
		}
		if a.Dec != b.Dec {
			return a.Dec < b.Dec
		}
		return a.Magnitude < b.Magnitude
	})
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// CatalogFileName returns the deterministic partition file name
// <target>_<kind>_pNNN.cat, with unsafe target characters replaced.
func CatalogFileName(target string, kind models.SourceKind, part int) string {
	return fmt.Sprintf("%s_%s_p%03d.cat", unsafeNameRe.ReplaceAllString(target, "-"), kind, part)
}
