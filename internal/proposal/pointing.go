package proposal

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/altair/internal/apperr"
)

var (
	obsHeaderRe   = regexp.MustCompile(`^\*\s+(.*?)\s*\(Obs (\d+)\)$`)
	visitHeaderRe = regexp.MustCompile(`^\*\*\s+Visit (\d+):(\d+)$`)
)

// pointingColumns are the table columns the compiler consumes. The header
// line may carry more; positions are resolved by name, not by count.
var pointingColumns = []string{
	"Tar", "Tile", "Exp", "Dith", "Aperture", "Target",
	"RA", "Dec", "BaseX", "BaseY", "DithX", "DithY", "Level", "Type",
}

const (
	rowTypeScience  = "SCIENCE"
	rowTypeParallel = "PARALLEL"
)

// pointingRow is one science or parallel pointing event from the table.
type pointingRow struct {
	Observation int
	Visit       int
	Tar         int
	Tile        int
	Exp         int
	Dith        int
	Aperture    string
	Target      string
	RA          float64
	Dec         float64
	BaseX       float64
	BaseY       float64
	DithX       float64
	DithY       float64
	Level       string
	Type        string
	Line        int
}

// parsePointing reads the pointing table, keeping science and parallel rows
// and dropping everything else (target acquisitions, confirmation images).
// Rows are returned in file order; each carries the observation and visit
// numbers of the most recent visit header.
func parsePointing(r io.Reader) ([]pointingRow, error) {
	scanner := bufio.NewScanner(r)

	var (
		rows       []pointingRow
		cols       map[string]int
		currentObs int
		visitObs   int
		visit      int
		line       int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if m := visitHeaderRe.FindStringSubmatch(text); m != nil {
			obs, _ := strconv.Atoi(m[1])
			v, _ := strconv.Atoi(m[2])
			if obs < 1 || v < 1 {
				return nil, fmt.Errorf("%w: pointing line %d: visit numbers start at 1", apperr.ErrMalformedProposal, line)
			}
			if currentObs != 0 && obs != currentObs {
				return nil, fmt.Errorf("%w: pointing line %d: visit %d:%d under observation %d header",
					apperr.ErrMalformedProposal, line, obs, v, currentObs)
			}
			visitObs, visit = obs, v
			continue
		}
		if strings.HasPrefix(text, "*") {
			m := obsHeaderRe.FindStringSubmatch(text)
			if m == nil {
				return nil, fmt.Errorf("%w: pointing line %d: malformed observation header %q",
					apperr.ErrMalformedProposal, line, text)
			}
			currentObs, _ = strconv.Atoi(m[2])
			visitObs, visit = 0, 0
			continue
		}

		fields := strings.Fields(text)
		if fields[0] == "Tar" {
			// Column header, repeated under every visit in tool exports.
			c, err := parseHeader(fields)
			if err != nil {
				return nil, fmt.Errorf("%w: pointing line %d: %v", apperr.ErrMalformedProposal, line, err)
			}
			cols = c
			continue
		}
		if cols == nil {
			return nil, fmt.Errorf("%w: pointing line %d: data row before column header", apperr.ErrMalformedProposal, line)
		}
		if visit == 0 {
			return nil, fmt.Errorf("%w: pointing line %d: data row before visit header", apperr.ErrMalformedProposal, line)
		}

		row, keep, err := parseRow(fields, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: pointing line %d: %v", apperr.ErrMalformedProposal, line, err)
		}
		if !keep {
			continue
		}
		row.Observation = visitObs
		row.Visit = visit
		row.Line = line
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pointing table: %w", err)
	}
	return rows, nil
}

func parseHeader(fields []string) (map[string]int, error) {
	cols := make(map[string]int, len(fields))
	for i, name := range fields {
		cols[name] = i
	}
	for _, name := range pointingColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("column header missing %s", name)
		}
	}
	return cols, nil
}

// parseRow resolves one data row against the column header. The second
// return value is false for rows of a type the compiler does not consume.
func parseRow(fields []string, cols map[string]int) (pointingRow, bool, error) {
	get := func(name string) (string, error) {
		i := cols[name]
		if i >= len(fields) {
			return "", fmt.Errorf("row has %d fields, column %s needs %d", len(fields), name, i+1)
		}
		return fields[i], nil
	}
	atoi := func(name string) (int, error) {
		s, err := get(name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not an integer", name, s)
		}
		return n, nil
	}
	atof := func(name string) (float64, error) {
		s, err := get(name)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not a number", name, s)
		}
		return f, nil
	}

	typ, err := get("Type")
	if err != nil {
		return pointingRow{}, false, err
	}
	if typ != rowTypeScience && typ != rowTypeParallel {
		return pointingRow{}, false, nil
	}

	var row pointingRow
	row.Type = typ
	if row.Tar, err = atoi("Tar"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Tile, err = atoi("Tile"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Exp, err = atoi("Exp"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Dith, err = atoi("Dith"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Aperture, err = get("Aperture"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Target, err = get("Target"); err != nil {
		return pointingRow{}, false, err
	}
	if row.RA, err = atof("RA"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Dec, err = atof("Dec"); err != nil {
		return pointingRow{}, false, err
	}
	if row.BaseX, err = atof("BaseX"); err != nil {
		return pointingRow{}, false, err
	}
	if row.BaseY, err = atof("BaseY"); err != nil {
		return pointingRow{}, false, err
	}
	if row.DithX, err = atof("DithX"); err != nil {
		return pointingRow{}, false, err
	}
	if row.DithY, err = atof("DithY"); err != nil {
		return pointingRow{}, false, err
	}
	if row.Level, err = get("Level"); err != nil {
		return pointingRow{}, false, err
	}
	return row, true, nil
}
