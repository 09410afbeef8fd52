package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ExposureManifest is the self-contained specification for simulating one
// exposure. It is created once per compile run, serialized to YAML, and
// consumed read-only by the external simulator; re-compilation supersedes
// it by rewriting the same deterministic file name.
type ExposureManifest struct {
	Version    int                `yaml:"version"`
	Exposure   ManifestExposure   `yaml:"exposure"`
	Instrument ManifestInstrument `yaml:"instrument"`
	Readout    ManifestReadout    `yaml:"readout"`
	Pointing   ManifestPointing   `yaml:"pointing"`
	Catalogs   []ManifestCatalog  `yaml:"catalogs"`
	Output     ManifestOutput     `yaml:"output"`

	// FilePath is where the manifest itself was written, relative to the
	// workspace root. Not serialized; the file does not name itself.
	FilePath string `yaml:"-"`
}

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// ManifestExposure carries the exposure's identity.
type ManifestExposure struct {
	ID          string `yaml:"id"`
	Observation int    `yaml:"observation"`
	Visit       int    `yaml:"visit"`
	Number      int    `yaml:"number"`
	PointingID  string `yaml:"pointing_id"`
}

// Validate validates the exposure identity block.
func (m ManifestExposure) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Observation, validation.Required, validation.Min(1)),
		validation.Field(&m.Visit, validation.Required, validation.Min(1)),
		validation.Field(&m.Number, validation.Required, validation.Min(1)),
		validation.Field(&m.PointingID, validation.Required),
	)
}

// ManifestInstrument names the hardware configuration for the exposure.
type ManifestInstrument struct {
	Name     string `yaml:"name"`
	Detector string `yaml:"detector"`
	Aperture string `yaml:"aperture"`
	Filter   string `yaml:"filter"`
}

// Validate validates the instrument block. Filter stays optional: the
// guider has no filter wheel.
func (m ManifestInstrument) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Detector, validation.Required),
		validation.Field(&m.Aperture, validation.Required),
	)
}

// ManifestReadout carries the detector readout configuration.
type ManifestReadout struct {
	Pattern      string  `yaml:"pattern"`
	Groups       int     `yaml:"groups"`
	Integrations int     `yaml:"integrations"`
	ExposureTime float64 `yaml:"exposure_time_sec"`
}

// Validate validates the readout block.
func (m ManifestReadout) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Pattern, validation.Required),
		validation.Field(&m.Groups, validation.Required, validation.Min(1)),
		validation.Field(&m.Integrations, validation.Required, validation.Min(1)),
		validation.Field(&m.ExposureTime, validation.Required, validation.Min(0.0)),
	)
}

// ManifestPointing is the computed telescope pointing for the exposure.
// V2/V3 are telescope-frame angles in arcsec; dither offsets are in the
// aperture ideal frame.
type ManifestPointing struct {
	Target  string  `yaml:"target"`
	RA      float64 `yaml:"ra_deg"`
	Dec     float64 `yaml:"dec_deg"`
	V2      float64 `yaml:"v2_arcsec"`
	V3      float64 `yaml:"v3_arcsec"`
	Roll    float64 `yaml:"roll_deg"`
	DitherX float64 `yaml:"dither_x_arcsec"`
	DitherY float64 `yaml:"dither_y_arcsec"`
}

// Validate validates the pointing block. Zero is a legal value for every
// angle except that a manifest must always name its target.
func (m ManifestPointing) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Target, validation.Required),
		validation.Field(&m.RA, validation.Min(0.0), validation.Max(360.0)),
		validation.Field(&m.Dec, validation.Min(-90.0), validation.Max(90.0)),
	)
}

// CatalogRef points at one compiled catalog partition file.
type CatalogRef struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// ManifestCatalog lists the catalog partition files of one source kind
// whose regions intersect the exposure's field of view.
type ManifestCatalog struct {
	Kind  SourceKind   `yaml:"kind"`
	Files []CatalogRef `yaml:"files"`
}

// Validate validates one catalog reference block.
func (m ManifestCatalog) Validate() error {
	if !m.Kind.Valid() {
		return validation.NewError("validation_source_kind", "unrecognized source kind")
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Files, validation.Required, validation.Length(1, 0)),
	)
}

// ManifestOutput names the pixel-data file the simulator must produce.
type ManifestOutput struct {
	File string `yaml:"file"`
}

// Validate validates the output block.
func (m ManifestOutput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.File, validation.Required),
	)
}

// Validate checks the manifest is complete enough to hand to a simulator.
func (m *ExposureManifest) Validate() error {
	if m.Version != ManifestVersion {
		return validation.NewError("validation_manifest_version", "unsupported manifest version")
	}
	if err := m.Exposure.Validate(); err != nil {
		return err
	}
	if err := m.Instrument.Validate(); err != nil {
		return err
	}
	if err := m.Readout.Validate(); err != nil {
		return err
	}
	if err := m.Pointing.Validate(); err != nil {
		return err
	}
	if len(m.Catalogs) == 0 {
		return validation.NewError("validation_manifest_catalogs", "manifest references no catalogs")
	}
	for _, c := range m.Catalogs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return m.Output.Validate()
}
