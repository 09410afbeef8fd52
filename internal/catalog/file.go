package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/altair/internal/models"
)

// Catalog files are plain ascii tables: comment lines, a column-name line,
// then one whitespace-separated row per source. The simulator's catalog
// reader and the ingest command both consume this grammar.

// magnitudeSystem is declared in every catalog header; all magnitudes in
// the pipeline are AB.
const magnitudeSystem = "abmag"

var (
	pointColumns    = []string{"index", "ra_deg", "dec_deg", "magnitude"}
	extendedColumns = []string{"index", "ra_deg", "dec_deg", "magnitude",
		"radius_arcsec", "ellipticity", "pos_angle_deg", "sersic_index"}
)

// EncodeCatalog renders one partition file.
func EncodeCatalog(kind models.SourceKind, target string, part int, bounds models.Box, sources []models.Source) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# altair source catalog\n")
	fmt.Fprintf(&buf, "# target: %s\n", target)
	fmt.Fprintf(&buf, "# kind: %s\n", kind)
	fmt.Fprintf(&buf, "# partition: %d\n", part)
	fmt.Fprintf(&buf, "# ra_range: %.9f %.9f\n", bounds.RAMin, bounds.RAMax)
	fmt.Fprintf(&buf, "# dec_range: %.9f %.9f\n", bounds.DecMin, bounds.DecMax)
	fmt.Fprintf(&buf, "# %s\n", magnitudeSystem)

	cols := pointColumns
	if kind == models.SourceKindExtended {
		cols = extendedColumns
	}
	fmt.Fprintln(&buf, strings.Join(cols, " "))

	for _, s := range sources {
		fmt.Fprintf(&buf, "%d %.9f %.9f %.3f", s.Index, s.RA, s.Dec, s.Magnitude)
		if kind == models.SourceKindExtended {
			fmt.Fprintf(&buf, " %.3f %.3f %.3f %.3f", s.RadiusArcsec, s.Ellipticity, s.PosAngle, s.SersicIndex)
		}
		fmt.Fprintln(&buf)
	}
	return buf.Bytes()
}

// DecodeCatalog parses a catalog file back into sources, in file order.
func DecodeCatalog(r io.Reader) (models.SourceKind, []models.Source, error) {
	scanner := bufio.NewScanner(r)

	var (
		kind    models.SourceKind
		cols    []string
		sources []models.Source
		line    int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if v, ok := strings.CutPrefix(text, "# kind:"); ok {
				kind = models.SourceKind(strings.TrimSpace(v))
			}
			continue
		}
		if cols == nil {
			// Column-name line.
			if !kind.Valid() {
				return "", nil, fmt.Errorf("catalog line %d: no kind header before table", line)
			}
			cols = pointColumns
			if kind == models.SourceKindExtended {
				cols = extendedColumns
			}
			if got := strings.Fields(text); !equalColumns(got, cols) {
				return "", nil, fmt.Errorf("catalog line %d: columns %v, want %v", line, got, cols)
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != len(cols) {
			return "", nil, fmt.Errorf("catalog line %d: %d fields, want %d", line, len(fields), len(cols))
		}
		s, err := parseSourceRow(fields, kind)
		if err != nil {
			return "", nil, fmt.Errorf("catalog line %d: %w", line, err)
		}
		sources = append(sources, s)
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("read catalog: %w", err)
	}
	if cols == nil {
		return "", nil, fmt.Errorf("catalog has no column header")
	}
	return kind, sources, nil
}

func equalColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func parseSourceRow(fields []string, kind models.SourceKind) (models.Source, error) {
	var s models.Source
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return s, fmt.Errorf("index %q is not an integer", fields[0])
	}
	s.Index = idx

	vals := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return s, fmt.Errorf("field %q is not a number", f)
		}
		vals[i] = v
	}
	s.RA, s.Dec, s.Magnitude = vals[0], vals[1], vals[2]
	if kind == models.SourceKindExtended {
		s.RadiusArcsec, s.Ellipticity, s.PosAngle, s.SersicIndex = vals[3], vals[4], vals[5], vals[6]
	}
	return s, nil
}
