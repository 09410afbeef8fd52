package siaf

import (
	"math"
	"testing"
)

const angleTolerance = 1e-9

func TestDetectorToTelescopeAtReferencePixel(t *testing.T) {
	r := loadRegistry(t)

	for _, inst := range r.Instruments() {
		for _, ap := range r.Apertures(inst.Name) {
			got := DetectorToTelescope(ap, ap.XSciRef, ap.YSciRef)
			if math.Abs(got.V2-ap.V2Ref) > angleTolerance || math.Abs(got.V3-ap.V3Ref) > angleTolerance {
				t.Errorf("%s: reference pixel maps to (%.9f, %.9f), want (%.9f, %.9f)",
					ap.Name, got.V2, got.V3, ap.V2Ref, ap.V3Ref)
			}
		}
	}
}

func TestTransformRoundTrip(t *testing.T) {
	r := loadRegistry(t)

	points := []struct{ x, y float64 }{
		{1, 1},
		{2048, 2048},
		{1, 2048},
		{2048, 1},
		{1024.5, 1024.5},
		{517.25, 1893.75},
	}
	for _, inst := range r.Instruments() {
		for _, ap := range r.Apertures(inst.Name) {
			for _, pt := range points {
				tel := DetectorToTelescope(ap, pt.x, pt.y)
				x, y := TelescopeToDetector(ap, tel)
				if math.Abs(x-pt.x) > angleTolerance || math.Abs(y-pt.y) > angleTolerance {
					t.Errorf("%s: round trip of (%.2f, %.2f) = (%.9f, %.9f)", ap.Name, pt.x, pt.y, x, y)
				}
			}
		}
	}
}

func TestTransformPointingZeroDither(t *testing.T) {
	r := loadRegistry(t)

	ap, err := r.Lookup("NIS_CEN")
	if err != nil {
		t.Fatalf("Lookup(NIS_CEN) error = %v", err)
	}
	got := TransformPointing(ap, 0, 0)
	if math.Abs(got.V2-ap.V2Ref) > angleTolerance || math.Abs(got.V3-ap.V3Ref) > angleTolerance {
		t.Errorf("TransformPointing(0,0) = (%.9f, %.9f), want reference (%.9f, %.9f)",
			got.V2, got.V3, ap.V2Ref, ap.V3Ref)
	}
}

func TestTransformPointingAppliesDither(t *testing.T) {
	r := loadRegistry(t)

	ap, err := r.Lookup("NRCB1_FULL")
	if err != nil {
		t.Fatalf("Lookup(NRCB1_FULL) error = %v", err)
	}
	zero := TransformPointing(ap, 0, 0)
	dithered := TransformPointing(ap, 3.5, -2.0)
	moved := math.Hypot(dithered.V2-zero.V2, dithered.V3-zero.V3)
	want := math.Hypot(3.5, -2.0)
	if math.Abs(moved-want) > angleTolerance {
		t.Errorf("dither displacement = %.9f arcsec, want %.9f", moved, want)
	}
}

func TestFootprintCoversTarget(t *testing.T) {
	r := loadRegistry(t)

	ap, err := r.Lookup("NRCA5_FULL")
	if err != nil {
		t.Fatalf("Lookup(NRCA5_FULL) error = %v", err)
	}
	box, err := Footprint(ap, 80.25, -69.5, 0, 0)
	if err != nil {
		t.Fatalf("Footprint() error = %v", err)
	}
	if !box.Contains(80.25, -69.5) {
		t.Errorf("footprint %+v does not contain the target", box)
	}

	halfDec := box.DecMax - (-69.5)
	halfRA := box.RAMax - 80.25
	wantRatio := 1 / math.Cos(-69.5*math.Pi/180)
	if got := halfRA / halfDec; math.Abs(got-wantRatio) > 1e-6 {
		t.Errorf("RA stretch = %.6f, want %.6f", got, wantRatio)
	}
}

func TestFootprintAppliesDither(t *testing.T) {
	r := loadRegistry(t)

	ap, err := r.Lookup("NIS_CEN")
	if err != nil {
		t.Fatalf("Lookup(NIS_CEN) error = %v", err)
	}
	base, err := Footprint(ap, 150.0, 2.2, 0, 0)
	if err != nil {
		t.Fatalf("Footprint() error = %v", err)
	}
	shifted, err := Footprint(ap, 150.0, 2.2, 7.2, 0)
	if err != nil {
		t.Fatalf("Footprint() with dither error = %v", err)
	}
	if got, want := shifted.RAMin-base.RAMin, 7.2/3600; math.Abs(got-want) > angleTolerance {
		t.Errorf("dithered footprint shifted by %.9f deg, want %.9f", got, want)
	}
}

func TestFootprintRejectsWrap(t *testing.T) {
	r := loadRegistry(t)

	ap, err := r.Lookup("NRCA1_FULL")
	if err != nil {
		t.Fatalf("Lookup(NRCA1_FULL) error = %v", err)
	}

	if _, err := Footprint(ap, 0.001, 10, 0, 0); err == nil {
		t.Error("Footprint near the 0/360 meridian succeeded, want error")
	}
	if _, err := Footprint(ap, 180, 89.9999, 0, 0); err == nil {
		t.Error("Footprint at the pole succeeded, want error")
	}
}
