// Package models defines the domain types for Altair.
package models

import (
	"fmt"
	"strings"
)

// Target is a named sky position from the proposal's target list.
type Target struct {
	Name string `yaml:"name"`
	RA   float64 `yaml:"ra_deg"`
	Dec  float64 `yaml:"dec_deg"`
}

// Proposal is a parsed observing program: an ordered sequence of
// observations, each with its own target and exposure list.
type Proposal struct {
	ID           string // zero-padded proposal number, e.g. "01234"
	Title        string
	Observations []Observation
}

// Exposures returns every exposure in the proposal in observation order.
func (p *Proposal) Exposures() []Exposure {
	var out []Exposure
	for _, obs := range p.Observations {
		out = append(out, obs.Exposures...)
	}
	return out
}

// Targets returns the distinct targets observed by the proposal, in
// first-use order.
func (p *Proposal) Targets() []Target {
	seen := make(map[string]struct{}, len(p.Observations))
	var out []Target
	for _, obs := range p.Observations {
		if _, ok := seen[obs.Target.Name]; ok {
			continue
		}
		seen[obs.Target.Name] = struct{}{}
		out = append(out, obs.Target)
	}
	return out
}

// Observation groups the exposures taken of a single target.
type Observation struct {
	Number    int
	Label     string
	Target    Target
	Exposures []Exposure
}

// Exposure is one detector readout with a fixed instrument, filter,
// pointing, and exposure time. Parallel exposures taken simultaneously by
// different instruments share PointingID but differ in aperture/detector.
type Exposure struct {
	Observation int
	Visit       int
	// Number is the 1-based pointing sequence index within the visit.
	// Dither steps increment it; parallel exposures share it.
	Number     int
	PointingID string

	Instrument string
	Detector   string
	Aperture   string
	Filter     string

	ReadoutPattern string
	Groups         int
	Integrations   int
	ExposureTime   float64 // seconds

	// Dither offset in the aperture ideal frame, arcsec. Includes the
	// base pointing offset when the proposal specifies one.
	DitherX float64
	DitherY float64
}

// Key identifies the exposure for error reporting and logs.
func (e Exposure) Key() string {
	return fmt.Sprintf("%03d:%03d:%05d/%s", e.Observation, e.Visit, e.Number, e.Detector)
}

// BaseName returns the deterministic file stem for the exposure's manifest
// and simulator outputs: jw<proposal><obs><visit>_<number>_<detector>.
func (e Exposure) BaseName(proposalID string) string {
	return fmt.Sprintf("jw%s%03d%03d_%05d_%s",
		proposalID, e.Observation, e.Visit, e.Number, strings.ToLower(e.Detector))
}

// PointingKey builds the identifier shared by all exposures taken at the
// same pointing event.
func PointingKey(obs, visit, number int) string {
	return fmt.Sprintf("%03d:%03d:%05d", obs, visit, number)
}
