package assets

import (
	"context"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// ObjectWriter is the slice of the object store the sink writes to.
type ObjectWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Sink stores encoded images and returns the reference to record. Without
// an object store images are kept inline as data URLs.
type Sink struct {
	store ObjectWriter
}

func NewSink(store ObjectWriter) *Sink {
	return &Sink{store: store}
}

// Saved is a stored image. Discard removes it again when the record that
// would have referenced it is not written.
type Saved struct {
	Ref   string
	key   string
	store ObjectWriter
}

func (s *Sink) SavePNG(ctx context.Context, key string, data []byte) (*Saved, error) {
	if s == nil || s.store == nil {
		return &Saved{Ref: imaging.PNGDataURL(data)}, nil
	}
	ref, err := s.store.Put(ctx, key, data, "image/png")
	if err != nil {
		return nil, err
	}
	return &Saved{Ref: ref, key: key, store: s.store}, nil
}

func (s *Saved) Discard(ctx context.Context) {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), s.key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", s.key).Msg("failed to discard stored image")
	}
}
