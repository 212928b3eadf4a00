package generation

import (
	"context"
	"math"

	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

type ImageRequest struct {
	Prompt      string
	Seed        *int64
	Temperature *float32
}

type ImageResult struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}

// ImageGenerator produces one image for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// LayerAnalyzer turns a free-text prompt into structured project data.
type LayerAnalyzer interface {
	ParseConfig(ctx context.Context, prompt string) (*projdomain.CharacterConfig, error)
	AnalyzeLayers(ctx context.Context, prompt string) ([]projdomain.Layer, error)
}

func seedToInt32(s *int64) *int32 {
	if s == nil {
		return nil
	}
	v := *s
	if v > math.MaxInt32 || v < math.MinInt32 {
		v %= math.MaxInt32
	}
	out := int32(v)
	return &out
}
