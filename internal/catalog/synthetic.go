package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/starford/altair/internal/models"
)

// SyntheticBackend fabricates a reproducible star field for a cone. The
// generator is seeded from the query arguments plus Seed, so the same
// query always yields byte-identical sources without any external data.
type SyntheticBackend struct {
	PointCount    int
	ExtendedCount int
	MagMin        float64
	MagMax        float64
	Seed          int64
}

var _ Backend = SyntheticBackend{}

// Query generates sources uniformly distributed over the cone by rejection
// sampling inside its bounding box.
func (b SyntheticBackend) Query(_ context.Context, kind models.SourceKind, cone Cone) ([]models.Source, error) {
	count := b.PointCount
	if kind == models.SourceKindExtended {
		count = b.ExtendedCount
	}
	if count < 0 {
		return nil, fmt.Errorf("synthetic backend: negative source count %d", count)
	}

	rng := rand.New(rand.NewSource(b.seedFor(kind, cone)))
	box := cone.Bounds()
	magMin, magMax := b.MagMin, b.MagMax
	if magMax <= magMin {
		magMin, magMax = 17, 25
	}

	out := make([]models.Source, 0, count)
	for len(out) < count {
		ra := box.RAMin + rng.Float64()*(box.RAMax-box.RAMin)
		dec := box.DecMin + rng.Float64()*(box.DecMax-box.DecMin)
		if !cone.Contains(ra, dec) {
			continue
		}
		s := models.Source{
			RA:        ra,
			Dec:       dec,
			Magnitude: magMin + rng.Float64()*(magMax-magMin),
		}
		if kind == models.SourceKindExtended {
			s.RadiusArcsec = 0.1 + rng.Float64()*1.9
			s.Ellipticity = rng.Float64() * 0.6
			s.PosAngle = rng.Float64() * 180
			s.SersicIndex = 0.5 + rng.Float64()*3.5
		}
		out = append(out, s)
	}
	return out, nil
}

func (b SyntheticBackend) seedFor(kind models.SourceKind, cone Cone) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%.9f|%.9f|%.9f", kind, cone.RA, cone.Dec, cone.Radius)
	return b.Seed ^ int64(h.Sum64())
}
