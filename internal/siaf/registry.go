// Package siaf carries the instrument aperture registry and the
// coordinate transforms between detector, ideal, and telescope frames.
//
// Reference values for each aperture are embedded at build time so the
// pipeline needs no network access to resolve pointings. The registry is
// read-only after Load.
package siaf

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
)

//go:embed apertures.toml
var apertureData embed.FS

// Instrument describes one instrument and the source kinds its
// simulator input accepts.
type Instrument struct {
	Name        string
	SourceKinds []models.SourceKind
}

// Supports reports whether the instrument accepts catalogs of the given kind.
func (i Instrument) Supports(kind models.SourceKind) bool {
	for _, k := range i.SourceKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Aperture holds the reference geometry of one detector aperture.
// V2Ref/V3Ref are telescope-frame angles in arcsec, XSciRef/YSciRef the
// science-frame reference pixel, SciScale the pixel scale in arcsec/px,
// V3IdlYAngle the ideal-frame rotation in degrees, and VIdlParity the
// ideal-frame handedness (+1 or -1).
type Aperture struct {
	Instrument  string
	Name        string
	Detector    string
	V2Ref       float64
	V3Ref       float64
	XSciRef     float64
	YSciRef     float64
	XSciSize    int
	YSciSize    int
	SciScale    float64
	V3IdlYAngle float64
	VIdlParity  int
}

type apertureDef struct {
	Name        string  `toml:"name"`
	Detector    string  `toml:"detector"`
	V2Ref       float64 `toml:"v2_ref"`
	V3Ref       float64 `toml:"v3_ref"`
	XSciRef     float64 `toml:"x_sci_ref"`
	YSciRef     float64 `toml:"y_sci_ref"`
	XSciSize    int     `toml:"x_sci_size"`
	YSciSize    int     `toml:"y_sci_size"`
	SciScale    float64 `toml:"sci_scale"`
	V3IdlYAngle float64 `toml:"v3_idl_y_angle"`
	VIdlParity  int     `toml:"v_idl_parity"`
}

type instrumentDef struct {
	Name             string        `toml:"name"`
	SourceKinds      []string      `toml:"source_kinds"`
	AperturePrefixes []string      `toml:"aperture_prefixes"`
	Apertures        []apertureDef `toml:"apertures"`
}

type registryFile struct {
	Instruments []instrumentDef `toml:"instruments"`
}

type prefixRule struct {
	prefix     string
	instrument string
}

// Registry resolves instrument and aperture names against the embedded
// reference data.
type Registry struct {
	instruments map[string]Instrument
	apertures   map[string]Aperture
	prefixes    []prefixRule
}

// Load parses the embedded aperture data. It fails only if the embedded
// file is malformed, which is a packaging defect rather than user error.
func Load() (*Registry, error) {
	raw, err := apertureData.ReadFile("apertures.toml")
	if err != nil {
		return nil, fmt.Errorf("read aperture data: %w", err)
	}
	var file registryFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse aperture data: %w", err)
	}

	r := &Registry{
		instruments: make(map[string]Instrument, len(file.Instruments)),
		apertures:   make(map[string]Aperture),
	}
	for _, inst := range file.Instruments {
		if inst.Name == "" {
			return nil, fmt.Errorf("aperture data: instrument with empty name")
		}
		if _, ok := r.instruments[inst.Name]; ok {
			return nil, fmt.Errorf("aperture data: duplicate instrument %q", inst.Name)
		}
		kinds := make([]models.SourceKind, 0, len(inst.SourceKinds))
		for _, k := range inst.SourceKinds {
			kind := models.SourceKind(k)
			if !kind.Valid() {
				return nil, fmt.Errorf("aperture data: instrument %q: unknown source kind %q", inst.Name, k)
			}
			kinds = append(kinds, kind)
		}
		r.instruments[inst.Name] = Instrument{Name: inst.Name, SourceKinds: kinds}
		for _, p := range inst.AperturePrefixes {
			r.prefixes = append(r.prefixes, prefixRule{prefix: p, instrument: inst.Name})
		}
		for _, def := range inst.Apertures {
			ap, err := buildAperture(inst.Name, def)
			if err != nil {
				return nil, err
			}
			if _, ok := r.apertures[ap.Name]; ok {
				return nil, fmt.Errorf("aperture data: duplicate aperture %q", ap.Name)
			}
			r.apertures[ap.Name] = ap
		}
	}
	// Longest prefix first so GUIDER wins over FGS-style shorthands.
	sort.Slice(r.prefixes, func(i, j int) bool {
		if len(r.prefixes[i].prefix) != len(r.prefixes[j].prefix) {
			return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
		}
		return r.prefixes[i].prefix < r.prefixes[j].prefix
	})
	return r, nil
}

func buildAperture(instrument string, def apertureDef) (Aperture, error) {
	switch {
	case def.Name == "":
		return Aperture{}, fmt.Errorf("aperture data: instrument %q: aperture with empty name", instrument)
	case def.Detector == "":
		return Aperture{}, fmt.Errorf("aperture data: aperture %q: empty detector", def.Name)
	case def.SciScale <= 0:
		return Aperture{}, fmt.Errorf("aperture data: aperture %q: non-positive pixel scale", def.Name)
	case def.XSciSize <= 0 || def.YSciSize <= 0:
		return Aperture{}, fmt.Errorf("aperture data: aperture %q: non-positive extent", def.Name)
	case def.VIdlParity != 1 && def.VIdlParity != -1:
		return Aperture{}, fmt.Errorf("aperture data: aperture %q: parity must be +1 or -1", def.Name)
	}
	return Aperture{
		Instrument:  instrument,
		Name:        def.Name,
		Detector:    def.Detector,
		V2Ref:       def.V2Ref,
		V3Ref:       def.V3Ref,
		XSciRef:     def.XSciRef,
		YSciRef:     def.YSciRef,
		XSciSize:    def.XSciSize,
		YSciSize:    def.YSciSize,
		SciScale:    def.SciScale,
		V3IdlYAngle: def.V3IdlYAngle,
		VIdlParity:  def.VIdlParity,
	}, nil
}

// Lookup returns the aperture with the given name.
func (r *Registry) Lookup(name string) (Aperture, error) {
	ap, ok := r.apertures[name]
	if !ok {
		return Aperture{}, fmt.Errorf("%w: %s", apperr.ErrUnknownAperture, name)
	}
	return ap, nil
}

// Instrument returns the instrument record for the given name.
func (r *Registry) Instrument(name string) (Instrument, error) {
	inst, ok := r.instruments[name]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %s", apperr.ErrUnsupportedInstrument, name)
	}
	return inst, nil
}

// InstrumentForAperture maps an aperture name to its instrument by the
// registered name prefixes, so proposals can omit an explicit instrument
// column in the pointing table.
func (r *Registry) InstrumentForAperture(aperture string) (string, error) {
	for _, rule := range r.prefixes {
		if strings.HasPrefix(aperture, rule.prefix) {
			return rule.instrument, nil
		}
	}
	return "", fmt.Errorf("%w: no instrument for aperture %s", apperr.ErrUnsupportedInstrument, aperture)
}

// SupportedKinds returns the source kinds the instrument's simulator
// input accepts, in registry order.
func (r *Registry) SupportedKinds(instrument string) ([]models.SourceKind, error) {
	inst, err := r.Instrument(instrument)
	if err != nil {
		return nil, err
	}
	return inst.SourceKinds, nil
}

// Instruments returns all instruments sorted by name.
func (r *Registry) Instruments() []Instrument {
	out := make([]Instrument, 0, len(r.instruments))
	for _, inst := range r.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apertures returns all apertures of one instrument sorted by name. The
// result is empty when the instrument is unknown.
func (r *Registry) Apertures(instrument string) []Aperture {
	var out []Aperture
	for _, ap := range r.apertures {
		if ap.Instrument == instrument {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
