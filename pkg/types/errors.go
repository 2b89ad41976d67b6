package types

import "errors"

// Sentinel errors shared across stages. Wrap with fmt.Errorf("...: %w", err).
var (
	ErrNoPages         = errors.New("document has no pages")
	ErrUnknownMode     = errors.New("unknown conversion mode")
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrUnknownRaster   = errors.New("unknown raster source")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrMissingEndpoint = errors.New("missing model endpoint")
	ErrEmptyResponse   = errors.New("model returned no content")
)
