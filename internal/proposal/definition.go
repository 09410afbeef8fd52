package proposal

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/starford/altair/internal/apperr"
)

var proposalIDRe = regexp.MustCompile(`^\d+$`)

// Definition document structures, one-to-one with the proposal tool's
// XML export.

type definitionDoc struct {
	XMLName      xml.Name         `xml:"ObservingProgram"`
	Proposal     string           `xml:"proposal,attr"`
	Title        string           `xml:"title,attr"`
	Targets      []targetDef      `xml:"Targets>Target"`
	Observations []observationDef `xml:"Observations>Observation"`
}

type targetDef struct {
	Name string  `xml:"name,attr"`
	RA   float64 `xml:"ra,attr"`
	Dec  float64 `xml:"dec,attr"`
}

type observationDef struct {
	Number      int               `xml:"number,attr"`
	Label       string            `xml:"label,attr"`
	Target      string            `xml:"target,attr"`
	Instruments []instrumentBlock `xml:"Instrument"`
}

type instrumentBlock struct {
	Name      string        `xml:"name,attr"`
	Primary   bool          `xml:"primary,attr"`
	Exposures []exposureDef `xml:"Exposure"`
}

type exposureDef struct {
	Filter         string  `xml:"filter,attr"`
	ReadoutPattern string  `xml:"readoutPattern,attr"`
	Groups         int     `xml:"groups,attr"`
	Integrations   int     `xml:"integrations,attr"`
	ExposureTime   float64 `xml:"exposureTime,attr"`
}

// instrument returns the named instrument block, or nil.
func (o *observationDef) instrument(name string) *instrumentBlock {
	for i := range o.Instruments {
		if o.Instruments[i].Name == name {
			return &o.Instruments[i]
		}
	}
	return nil
}

func parseDefinition(r io.Reader) (*definitionDoc, error) {
	var doc definitionDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: definition document: %v", apperr.ErrMalformedProposal, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *definitionDoc) validate() error {
	if !proposalIDRe.MatchString(d.Proposal) {
		return fmt.Errorf("%w: proposal id %q is not numeric", apperr.ErrMalformedProposal, d.Proposal)
	}
	if len(d.Observations) == 0 {
		return fmt.Errorf("%w: no observations", apperr.ErrMalformedProposal)
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("%w: no targets", apperr.ErrMalformedProposal)
	}

	targets := make(map[string]struct{}, len(d.Targets))
	for _, t := range d.Targets {
		if t.Name == "" {
			return fmt.Errorf("%w: target with empty name", apperr.ErrMalformedProposal)
		}
		if _, dup := targets[t.Name]; dup {
			return fmt.Errorf("%w: duplicate target %q", apperr.ErrMalformedProposal, t.Name)
		}
		targets[t.Name] = struct{}{}
		if t.RA < 0 || t.RA >= 360 {
			return fmt.Errorf("%w: target %q: ra %.6f outside [0, 360)", apperr.ErrMalformedProposal, t.Name, t.RA)
		}
		if t.Dec < -90 || t.Dec > 90 {
			return fmt.Errorf("%w: target %q: dec %.6f outside [-90, 90]", apperr.ErrMalformedProposal, t.Name, t.Dec)
		}
	}

	numbers := make(map[int]struct{}, len(d.Observations))
	for _, o := range d.Observations {
		if o.Number < 1 {
			return fmt.Errorf("%w: observation numbers start at 1, got %d", apperr.ErrMalformedProposal, o.Number)
		}
		if _, dup := numbers[o.Number]; dup {
			return fmt.Errorf("%w: duplicate observation %d", apperr.ErrMalformedProposal, o.Number)
		}
		numbers[o.Number] = struct{}{}
		if o.Target == "" {
			return fmt.Errorf("%w: observation %d: no target", apperr.ErrMalformedProposal, o.Number)
		}
		if len(o.Instruments) == 0 {
			return fmt.Errorf("%w: observation %d: no instrument blocks", apperr.ErrMalformedProposal, o.Number)
		}
		for _, inst := range o.Instruments {
			if err := inst.validate(o.Number); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *instrumentBlock) validate(obs int) error {
	if b.Name == "" {
		return fmt.Errorf("%w: observation %d: instrument block with empty name", apperr.ErrMalformedProposal, obs)
	}
	if len(b.Exposures) == 0 {
		return fmt.Errorf("%w: observation %d: instrument %s defines no exposures", apperr.ErrMalformedProposal, obs, b.Name)
	}
	for i, e := range b.Exposures {
		switch {
		// The guider images through a fixed broadband element, so its
		// exposures carry no filter attribute.
		case e.Filter == "" && b.Name != "FGS":
			return fmt.Errorf("%w: observation %d: %s exposure %d: no filter", apperr.ErrMalformedProposal, obs, b.Name, i+1)
		case e.ReadoutPattern == "":
			return fmt.Errorf("%w: observation %d: %s exposure %d: no readout pattern", apperr.ErrMalformedProposal, obs, b.Name, i+1)
		case e.Groups < 1:
			return fmt.Errorf("%w: observation %d: %s exposure %d: groups must be positive", apperr.ErrMalformedProposal, obs, b.Name, i+1)
		case e.Integrations < 1:
			return fmt.Errorf("%w: observation %d: %s exposure %d: integrations must be positive", apperr.ErrMalformedProposal, obs, b.Name, i+1)
		case e.ExposureTime <= 0:
			return fmt.Errorf("%w: observation %d: %s exposure %d: exposure time must be positive", apperr.ErrMalformedProposal, obs, b.Name, i+1)
		}
	}
	return nil
}
