package siaf

import (
	"fmt"
	"math"

	"github.com/starford/altair/internal/models"
)

// Pointing is a position in the telescope frame, arcsec.
type Pointing struct {
	V2 float64
	V3 float64
}

// DetectorToTelescope converts science-frame pixel coordinates to
// telescope-frame V2/V3 angles in arcsec. The science frame is first
// shifted to the reference pixel and scaled to the ideal frame, then
// rotated by V3IdlYAngle with the aperture parity applied.
func DetectorToTelescope(ap Aperture, xSci, ySci float64) Pointing {
	xIdl := (xSci - ap.XSciRef) * ap.SciScale
	yIdl := (ySci - ap.YSciRef) * ap.SciScale
	return idealToTelescope(ap, xIdl, yIdl)
}

// TelescopeToDetector converts telescope-frame V2/V3 angles in arcsec to
// science-frame pixel coordinates. It is the exact inverse of
// DetectorToTelescope.
func TelescopeToDetector(ap Aperture, p Pointing) (xSci, ySci float64) {
	xIdl, yIdl := telescopeToIdeal(ap, p)
	xSci = ap.XSciRef + xIdl/ap.SciScale
	ySci = ap.YSciRef + yIdl/ap.SciScale
	return xSci, ySci
}

// TransformPointing returns the telescope-frame pointing of an exposure
// whose target sits at the aperture reference pixel displaced by the
// given ideal-frame dither offsets in arcsec.
func TransformPointing(ap Aperture, ditherX, ditherY float64) Pointing {
	return idealToTelescope(ap, ditherX, ditherY)
}

func idealToTelescope(ap Aperture, xIdl, yIdl float64) Pointing {
	a := ap.V3IdlYAngle * math.Pi / 180
	p := float64(ap.VIdlParity)
	return Pointing{
		V2: ap.V2Ref + p*xIdl*math.Cos(a) + yIdl*math.Sin(a),
		V3: ap.V3Ref - p*xIdl*math.Sin(a) + yIdl*math.Cos(a),
	}
}

func telescopeToIdeal(ap Aperture, pt Pointing) (xIdl, yIdl float64) {
	a := ap.V3IdlYAngle * math.Pi / 180
	p := float64(ap.VIdlParity)
	dv2 := pt.V2 - ap.V2Ref
	dv3 := pt.V3 - ap.V3Ref
	xIdl = p * (dv2*math.Cos(a) - dv3*math.Sin(a))
	yIdl = dv2*math.Sin(a) + dv3*math.Cos(a)
	return xIdl, yIdl
}

// Footprint returns the axis-aligned sky box covered by the aperture when
// the exposure points at (ra, dec) degrees with the given ideal-frame
// dither offsets in arcsec. The box spans the full detector extent around
// the displaced center, with the RA half-width stretched by 1/cos(dec).
// Fields close enough to a pole to wrap are rejected.
func Footprint(ap Aperture, ra, dec, ditherX, ditherY float64) (models.Box, error) {
	centerRA := ra + ditherX/3600
	centerDec := dec + ditherY/3600

	halfDec := float64(ap.YSciSize) * ap.SciScale / 2 / 3600
	cosDec := math.Cos(centerDec * math.Pi / 180)
	if cosDec < 1e-6 {
		return models.Box{}, fmt.Errorf("aperture %s: footprint at dec %.4f crosses a pole", ap.Name, centerDec)
	}
	halfRA := float64(ap.XSciSize) * ap.SciScale / 2 / 3600 / cosDec

	box := models.Box{
		RAMin:  centerRA - halfRA,
		RAMax:  centerRA + halfRA,
		DecMin: centerDec - halfDec,
		DecMax: centerDec + halfDec,
	}
	if box.RAMin < 0 || box.RAMax > 360 {
		return models.Box{}, fmt.Errorf("aperture %s: footprint at ra %.4f wraps the 0/360 meridian", ap.Name, centerRA)
	}
	if box.DecMin < -90 || box.DecMax > 90 {
		return models.Box{}, fmt.Errorf("aperture %s: footprint at dec %.4f crosses a pole", ap.Name, centerDec)
	}
	return box, nil
}
