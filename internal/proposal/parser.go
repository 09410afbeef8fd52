// Package proposal parses observing proposal exports, the pointing table
// and the instrument/target definition document, into the domain model.
package proposal

import (
	"fmt"
	"os"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/siaf"
)

// Parse reads the two proposal export files and joins them into a Proposal.
// The pointing table contributes the exposure sequence and dither offsets,
// the definition document the targets and instrument configurations. Every
// exposure is resolved against the aperture registry before the Proposal is
// returned, so downstream consumers never see an unknown aperture.
func Parse(pointingPath, definitionPath string, reg *siaf.Registry) (*models.Proposal, error) {
	pf, err := os.Open(pointingPath)
	if err != nil {
		return nil, fmt.Errorf("open pointing table: %w", err)
	}
	defer pf.Close()
	rows, err := parsePointing(pf)
	if err != nil {
		return nil, err
	}

	df, err := os.Open(definitionPath)
	if err != nil {
		return nil, fmt.Errorf("open definition document: %w", err)
	}
	defer df.Close()
	doc, err := parseDefinition(df)
	if err != nil {
		return nil, err
	}

	return join(rows, doc, reg)
}

// join matches pointing rows to the definition document's instrument
// blocks. A row's Exp column is a 1-based index into the exposure list of
// the instrument block its aperture resolves to.
func join(rows []pointingRow, doc *definitionDoc, reg *siaf.Registry) (*models.Proposal, error) {
	targets := make(map[string]models.Target, len(doc.Targets))
	for _, t := range doc.Targets {
		targets[t.Name] = models.Target{Name: t.Name, RA: t.RA, Dec: t.Dec}
	}

	obsDefs := make(map[int]*observationDef, len(doc.Observations))
	for i := range doc.Observations {
		od := &doc.Observations[i]
		if _, ok := targets[od.Target]; !ok {
			return nil, fmt.Errorf("%w: observation %d: undefined target %q", apperr.ErrMalformedProposal, od.Number, od.Target)
		}
		for _, inst := range od.Instruments {
			if _, err := reg.Instrument(inst.Name); err != nil {
				return nil, fmt.Errorf("observation %d: %w", od.Number, err)
			}
		}
		obsDefs[od.Number] = od
	}

	type visitKey struct{ obs, visit int }
	counters := make(map[visitKey]int)
	seen := make(map[string]int)
	exposuresByObs := make(map[int][]models.Exposure)

	for _, row := range rows {
		od, ok := obsDefs[row.Observation]
		if !ok {
			return nil, fmt.Errorf("%w: pointing line %d: observation %d not in definition document",
				apperr.ErrMalformedProposal, row.Line, row.Observation)
		}
		if row.Target != od.Target {
			return nil, fmt.Errorf("%w: pointing line %d: target %q does not match observation %d target %q",
				apperr.ErrMalformedProposal, row.Line, row.Target, od.Number, od.Target)
		}

		instName, err := reg.InstrumentForAperture(row.Aperture)
		if err != nil {
			return nil, fmt.Errorf("pointing line %d: %w", row.Line, err)
		}
		ap, err := reg.Lookup(row.Aperture)
		if err != nil {
			return nil, fmt.Errorf("pointing line %d: %w", row.Line, err)
		}
		block := od.instrument(instName)
		if block == nil {
			return nil, fmt.Errorf("%w: observation %d: aperture %s needs a %s block the definition does not have",
				apperr.ErrMalformedProposal, od.Number, row.Aperture, instName)
		}
		if row.Exp < 1 || row.Exp > len(block.Exposures) {
			return nil, fmt.Errorf("%w: observation %d: exposure index %d out of range for %s (%d defined)",
				apperr.ErrMalformedProposal, od.Number, row.Exp, instName, len(block.Exposures))
		}
		def := block.Exposures[row.Exp-1]

		// Primary rows advance the pointing sequence; parallels share the
		// pointing of the primary they ride along with.
		vk := visitKey{row.Observation, row.Visit}
		if row.Type == rowTypeScience {
			counters[vk]++
		} else if counters[vk] == 0 {
			return nil, fmt.Errorf("%w: pointing line %d: parallel pointing before any primary in visit %d:%d",
				apperr.ErrMalformedProposal, row.Line, row.Observation, row.Visit)
		}
		number := counters[vk]

		exp := models.Exposure{
			Observation:    row.Observation,
			Visit:          row.Visit,
			Number:         number,
			PointingID:     models.PointingKey(row.Observation, row.Visit, number),
			Instrument:     instName,
			Detector:       ap.Detector,
			Aperture:       row.Aperture,
			Filter:         def.Filter,
			ReadoutPattern: def.ReadoutPattern,
			Groups:         def.Groups,
			Integrations:   def.Integrations,
			ExposureTime:   def.ExposureTime,
			DitherX:        row.BaseX + row.DithX,
			DitherY:        row.BaseY + row.DithY,
		}
		if prev, dup := seen[exp.Key()]; dup {
			return nil, fmt.Errorf("%w: pointing lines %d and %d: duplicate exposure %s",
				apperr.ErrMalformedProposal, prev, row.Line, exp.Key())
		}
		seen[exp.Key()] = row.Line
		exposuresByObs[row.Observation] = append(exposuresByObs[row.Observation], exp)
	}

	prop := &models.Proposal{ID: doc.Proposal, Title: doc.Title}
	total := 0
	for _, od := range doc.Observations {
		exps := exposuresByObs[od.Number]
		total += len(exps)
		prop.Observations = append(prop.Observations, models.Observation{
			Number:    od.Number,
			Label:     od.Label,
			Target:    targets[od.Target],
			Exposures: exps,
		})
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no science or parallel pointings", apperr.ErrMalformedProposal)
	}
	return prop, nil
}
