package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/altair/internal/apperr"
	"github.com/starford/altair/internal/models"
)

// ServiceBackend queries a remote cone-search service. The wire format is
// the JSON source list served by the catalogd /v1/cone endpoint.
type ServiceBackend struct {
	baseURL string
	client  *http.Client
}

var _ Backend = (*ServiceBackend)(nil)

// NewServiceBackend builds a client for the service at baseURL.
func NewServiceBackend(baseURL string) *ServiceBackend {
	return &ServiceBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Query performs the cone search. Transport failures and non-200 responses
// wrap ErrCatalogUnavailable so callers surface them instead of retrying.
func (b *ServiceBackend) Query(ctx context.Context, kind models.SourceKind, cone Cone) ([]models.Source, error) {
	q := url.Values{}
	q.Set("kind", string(kind))
	q.Set("ra", strconv.FormatFloat(cone.RA, 'f', -1, 64))
	q.Set("dec", strconv.FormatFloat(cone.Dec, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(cone.Radius, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/cone?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build cone request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", apperr.ErrCatalogUnavailable, b.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: cone search returned %s: %s",
			apperr.ErrCatalogUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}
	var sources []models.Source
	if err := json.NewDecoder(resp.Body).Decode(&sources); err != nil {
		return nil, fmt.Errorf("%w: decode cone response: %v", apperr.ErrCatalogUnavailable, err)
	}
	return sources, nil
}
