package internal

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/starford/altair/internal/siaf"
)

// ListApertures prints the aperture registry as a table, for inspecting
// what the embedded reference data contains.
func ListApertures(w io.Writer) error {
	reg, err := siaf.Load()
	if err != nil {
		return fmt.Errorf("load aperture registry: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTRUMENT\tAPERTURE\tDETECTOR\tV2REF\tV3REF\tSCALE\tPARITY\tKINDS")
	for _, inst := range reg.Instruments() {
		kinds := make([]string, 0, len(inst.SourceKinds))
		for _, k := range inst.SourceKinds {
			kinds = append(kinds, string(k))
		}
		for _, ap := range reg.Apertures(inst.Name) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%.4f\t%+d\t%s\n",
				ap.Instrument, ap.Name, ap.Detector,
				ap.V2Ref, ap.V3Ref, ap.SciScale, ap.VIdlParity,
				strings.Join(kinds, ","))
		}
	}
	return tw.Flush()
}
