package models

// SourceKind classifies catalog sources by how the simulator renders them.
type SourceKind string

const (
	SourceKindPoint    SourceKind = "point"
	SourceKindExtended SourceKind = "extended"
)

// Valid reports whether k is a recognized source kind.
func (k SourceKind) Valid() bool {
	return k == SourceKindPoint || k == SourceKindExtended
}

// Source is one catalog record. Morphology fields are populated for
// extended sources only.
type Source struct {
	// Index is assigned at compile time, 1-based and unique within a
	// compiled catalog set, so downstream segmentation maps can refer
	// back to the source.
	Index     int     `json:"index"`
	RA        float64 `json:"ra_deg"`
	Dec       float64 `json:"dec_deg"`
	Magnitude float64 `json:"magnitude"`

	RadiusArcsec float64 `json:"radius_arcsec,omitempty"`
	Ellipticity  float64 `json:"ellipticity,omitempty"`
	PosAngle     float64 `json:"pos_angle_deg,omitempty"`
	SersicIndex  float64 `json:"sersic_index,omitempty"`
}

// Box is an axis-aligned region of sky in degrees. Partition bounds and
// exposure footprints are both expressed as boxes.
type Box struct {
	RAMin  float64 `yaml:"ra_min"`
	RAMax  float64 `yaml:"ra_max"`
	DecMin float64 `yaml:"dec_min"`
	DecMax float64 `yaml:"dec_max"`
}

// Contains reports whether the position falls inside the box, edges
// inclusive.
func (b Box) Contains(ra, dec float64) bool {
	return ra >= b.RAMin && ra <= b.RAMax && dec >= b.DecMin && dec <= b.DecMax
}

// Intersects reports whether two boxes share any area.
func (b Box) Intersects(o Box) bool {
	return b.RAMin < o.RAMax && o.RAMin < b.RAMax &&
		b.DecMin < o.DecMax && o.DecMin < b.DecMax
}

// SourceCatalog describes one compiled catalog partition file. Catalogs are
// owned by the workspace; manifests reference them by path only.
type SourceCatalog struct {
	Kind      SourceKind
	Target    string
	Partition int
	Bounds    Box
	Count     int
	Checksum  string // hex SHA-256 of the file contents
	Path      string // relative to the workspace root
}
