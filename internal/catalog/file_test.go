package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/altair/internal/models"
)

func TestEncodeDecodeCatalog_Point(t *testing.T) {
	bounds := models.Box{RAMin: 80.3, RAMax: 80.7, DecMin: -69.7, DecMax: -69.3}
	in := []models.Source{
		{Index: 1, RA: 80.386396454, Dec: -69.468909042, Magnitude: 19.29},
		{Index: 2, RA: 80.512345678, Dec: -69.401234567, Magnitude: 22.105},
	}

	data := EncodeCatalog(models.SourceKindPoint, "LMC-FIELD", 1, bounds, in)
	if !bytes.Contains(data, []byte("# "+magnitudeSystem)) {
		t.Errorf("catalog header missing magnitude system:\n%s", data)
	}

	kind, out, err := DecodeCatalog(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCatalog() error = %v", err)
	}
	if kind != models.SourceKindPoint {
		t.Errorf("kind = %q, want point", kind)
	}
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Index != in[i].Index || out[i].RA != in[i].RA || out[i].Dec != in[i].Dec || out[i].Magnitude != in[i].Magnitude {
			t.Errorf("source %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestEncodeDecodeCatalog_Extended(t *testing.T) {
	bounds := models.Box{RAMin: 150, RAMax: 151, DecMin: 2, DecMax: 3}
	in := []models.Source{
		{Index: 1, RA: 150.25, Dec: 2.5, Magnitude: 21.5, RadiusArcsec: 0.85, Ellipticity: 0.3, PosAngle: 45.0, SersicIndex: 2.0},
	}

	data := EncodeCatalog(models.SourceKindExtended, "COSMOS", 3, bounds, in)
	kind, out, err := DecodeCatalog(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeCatalog() error = %v", err)
	}
	if kind != models.SourceKindExtended {
		t.Errorf("kind = %q, want extended", kind)
	}
	got := out[0]
	if got.RadiusArcsec != 0.85 || got.Ellipticity != 0.3 || got.PosAngle != 45.0 || got.SersicIndex != 2.0 {
		t.Errorf("morphology = %+v, want %+v", got, in[0])
	}
}

func TestDecodeCatalog_NoKindHeader(t *testing.T) {
	input := "# some comment\nindex ra_deg dec_deg magnitude\n1 80.0 -69.0 20.0\n"
	if _, _, err := DecodeCatalog(strings.NewReader(input)); err == nil {
		t.Error("DecodeCatalog() without kind header succeeded, want error")
	}
}

func TestDecodeCatalog_WrongColumns(t *testing.T) {
	input := "# kind: point\nindex ra dec mag\n1 80.0 -69.0 20.0\n"
	if _, _, err := DecodeCatalog(strings.NewReader(input)); err == nil {
		t.Error("DecodeCatalog() with foreign columns succeeded, want error")
	}
}

func TestDecodeCatalog_RowFieldMismatch(t *testing.T) {
	input := "# kind: point\nindex ra_deg dec_deg magnitude\n1 80.0 -69.0\n"
	if _, _, err := DecodeCatalog(strings.NewReader(input)); err == nil {
		t.Error("DecodeCatalog() with short row succeeded, want error")
	}
}
