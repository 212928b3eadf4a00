package generation

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

type fakeModels struct {
	mu     sync.Mutex
	resp   *genai.GenerateContentResponse
	err    error
	models []string
	cfgs   []*genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, model)
	f.cfgs = append(f.cfgs, config)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte, mime string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{Data: data, MIMEType: mime}},
			}},
		}},
	}
}

type countingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return &ImageResult{Data: []byte{1}, MimeType: "image/png"}, nil
}
