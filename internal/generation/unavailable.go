package generation

import (
	"context"
	"errors"
)

var errNotConfigured = errors.New("GEMINI_API_KEY not configured")

// Unavailable stands in for the generator when no API key is configured.
// Every call fails as a generation service failure.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, ImageRequest) (*ImageResult, error) {
	return nil, &ServiceError{Op: "generate image", Err: errNotConfigured}
}
