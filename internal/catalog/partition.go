package catalog

import "github.com/starford/altair/internal/models"

// leaf is one partition of a compiled field: its bounds and the sources
// assigned to it.
type leaf struct {
	bounds  models.Box
	sources []models.Source
}

// partition recursively splits the box into quadrants until every leaf
// holds at most threshold sources or maxDepth is exhausted. Sources on a
// midline go east/north, so each source lands in exactly one quadrant.
// Leaves are returned depth-first in a fixed quadrant order (SW, SE, NW,
// NE), which makes partition numbering deterministic.
func partition(sources []models.Source, box models.Box, threshold, maxDepth int) []leaf {
	if len(sources) <= threshold || maxDepth <= 0 {
		return []leaf{{bounds: box, sources: sources}}
	}

	midRA := (box.RAMin + box.RAMax) / 2
	midDec := (box.DecMin + box.DecMax) / 2
	quads := [4]models.Box{
		{RAMin: box.RAMin, RAMax: midRA, DecMin: box.DecMin, DecMax: midDec},
		{RAMin: midRA, RAMax: box.RAMax, DecMin: box.DecMin, DecMax: midDec},
		{RAMin: box.RAMin, RAMax: midRA, DecMin: midDec, DecMax: box.DecMax},
		{RAMin: midRA, RAMax: box.RAMax, DecMin: midDec, DecMax: box.DecMax},
	}

	buckets := make([][]models.Source, 4)
	for _, s := range sources {
		i := 0
		if s.RA >= midRA {
			i++
		}
		if s.Dec >= midDec {
			i += 2
		}
		buckets[i] = append(buckets[i], s)
	}

	var leaves []leaf
	for i, q := range quads {
		if len(buckets[i]) == 0 {
			// Empty quadrants emit no catalog file.
			continue
		}
		leaves = append(leaves, partition(buckets[i], q, threshold, maxDepth-1)...)
	}
	return leaves
}
