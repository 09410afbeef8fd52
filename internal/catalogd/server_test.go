package catalogd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/models"
)

var testBackend = catalog.SyntheticBackend{PointCount: 25, ExtendedCount: 5, Seed: 13}

func testRouter(ready func(context.Context) error) http.Handler {
	return NewRouter(NewHandler(testBackend, ready))
}

func TestConeSearch_ReturnsSources(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/cone?kind=point&ra=80.5&dec=-69.5&radius=0.1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var sources []models.Source
	if err := json.NewDecoder(w.Body).Decode(&sources); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(sources) != 25 {
		t.Errorf("len(sources) = %d, want 25", len(sources))
	}
}

func TestConeSearch_BadParams(t *testing.T) {
	router := testRouter(nil)

	tests := []struct {
		name  string
		query string
	}{
		{name: "missing kind", query: "ra=80&dec=-69&radius=0.1"},
		{name: "unknown kind", query: "kind=spectral&ra=80&dec=-69&radius=0.1"},
		{name: "ra not a number", query: "kind=point&ra=eighty&dec=-69&radius=0.1"},
		{name: "missing dec", query: "kind=point&ra=80&radius=0.1"},
		{name: "non-positive radius", query: "kind=point&ra=80&dec=-69&radius=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/cone?"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

type unavailableBackend struct{}

func (unavailableBackend) Query(context.Context, models.SourceKind, catalog.Cone) ([]models.Source, error) {
	return nil, fmt.Errorf("%w: store offline", apperr.ErrCatalogUnavailable)
}

func TestConeSearch_UnavailableBackend(t *testing.T) {
	router := NewRouter(NewHandler(unavailableBackend{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/cone?kind=point&ra=80&dec=-69&radius=0.1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router := testRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", w.Code)
	}
}

func TestHealth_NotReadyWhileStoreDown(t *testing.T) {
	router := testRouter(func(context.Context) error {
		return fmt.Errorf("%w: ping failed", apperr.ErrCatalogUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", w.Code)
	}
}

// The service backend and this server have to agree on the wire format;
// run the client against a live instance and compare with a direct query.
func TestServiceBackend_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(testRouter(nil))
	defer srv.Close()

	cone := catalog.Cone{RA: 80.5, Dec: -69.5, Radius: 0.1}
	want, err := testBackend.Query(context.Background(), models.SourceKindExtended, cone)
	if err != nil {
		t.Fatalf("direct Query() error = %v", err)
	}

	client := catalog.NewServiceBackend(srv.URL)
	got, err := client.Query(context.Background(), models.SourceKindExtended, cone)
	if err != nil {
		t.Fatalf("service Query() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("service results differ from direct query\n got: %v\nwant: %v", got, want)
	}
}
