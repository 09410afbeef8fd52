// Package catalog compiles partitioned source-catalog files from a
// pluggable sky-query backend.
package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/starford/altair/internal/models"
)

// Cone is a sky region: every position within Radius degrees of the
// center at (RA, Dec) degrees.
type Cone struct {
	RA     float64
	Dec    float64
	Radius float64
}

// Backend supplies source records for a sky region. Query returns the
// sources of one kind inside the cone, in an order that is stable across
// calls for identical arguments.
type Backend interface {
	Query(ctx context.Context, kind models.SourceKind, cone Cone) ([]models.Source, error)
}

// Bounds returns the axis-aligned sky box enclosing the cone, with the RA
// half-width stretched by 1/cos(dec).
func (c Cone) Bounds() models.Box {
	cosDec := math.Cos(c.Dec * math.Pi / 180)
	if cosDec < 1e-6 {
		cosDec = 1e-6
	}
	halfRA := c.Radius / cosDec
	return models.Box{
		RAMin:  c.RA - halfRA,
		RAMax:  c.RA + halfRA,
		DecMin: c.Dec - c.Radius,
		DecMax: c.Dec + c.Radius,
	}
}

// Contains reports whether the position falls inside the cone by exact
// angular distance.
func (c Cone) Contains(ra, dec float64) bool {
	return angularDistance(c.RA, c.Dec, ra, dec) <= c.Radius
}

// validate rejects cones whose bounding box leaves the plain-coordinate
// domain. Fields that close to a pole or to the zero meridian are outside
// the partition model.
func (c Cone) validate() error {
	if c.Radius <= 0 {
		return fmt.Errorf("field radius must be positive, got %g", c.Radius)
	}
	box := c.Bounds()
	if box.DecMin < -90 || box.DecMax > 90 {
		return fmt.Errorf("field at dec %.4f crosses a pole", c.Dec)
	}
	if box.RAMin < 0 || box.RAMax > 360 {
		return fmt.Errorf("field at ra %.4f wraps the 0/360 meridian", c.RA)
	}
	return nil
}

// angularDistance returns the great-circle separation of two positions in
// degrees (haversine form, stable for small separations).
func angularDistance(ra1, dec1, ra2, dec2 float64) float64 {
	const d2r = math.Pi / 180
	sd := math.Sin((dec2 - dec1) / 2 * d2r)
	sr := math.Sin((ra2 - ra1) / 2 * d2r)
	h := sd*sd + math.Cos(dec1*d2r)*math.Cos(dec2*d2r)*sr*sr
	return 2 * math.Asin(math.Min(1, math.Sqrt(h))) / d2r
}
