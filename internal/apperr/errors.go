package apperr

import "errors"

var (
	ErrMalformedProposal     = errors.New("malformed proposal")
	ErrUnsupportedInstrument = errors.New("unsupported instrument")
	ErrUnknownAperture       = errors.New("unknown aperture")
	ErrCatalogUnavailable    = errors.New("catalog source unavailable")
	ErrMissingCatalog        = errors.New("missing catalog")
	ErrManifestWrite         = errors.New("manifest write failed")
)
