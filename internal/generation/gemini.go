package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"google.golang.org/genai"
)

// contentModel is the part of *genai.Models the client uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements ImageGenerator and LayerAnalyzer on the Gemini API.
type GeminiClient struct {
	models     contentModel
	imageModel string
	textModel  string
	canvas     int
}

func NewGeminiClient(ctx context.Context, apiKey, imageModel, textModel string, canvas int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiClient(client.Models, imageModel, textModel, canvas), nil
}

func newGeminiClient(models contentModel, imageModel, textModel string, canvas int) *GeminiClient {
	return &GeminiClient{
		models:     models,
		imageModel: imageModel,
		textModel:  textModel,
		canvas:     canvas,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &ServiceError{Op: "generate image", Err: errors.New("empty prompt")}
	}

	cfg := &genai.GenerateContentConfig{
		Seed:        seedToInt32(req.Seed),
		Temperature: req.Temperature,
	}

	resp, err := c.models.GenerateContent(ctx, c.imageModel, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, wrap("generate image", err)
	}

	blob, err := firstImage(resp)
	if err != nil {
		return nil, &ServiceError{Op: "generate image", Err: err}
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(blob.Data)
	}

	var used int64
	if req.Seed != nil {
		used = *req.Seed
	}
	return &ImageResult{Data: blob.Data, MimeType: mimeType, UsedSeed: used}, nil
}

func (c *GeminiClient) ParseConfig(ctx context.Context, prompt string) (*projdomain.CharacterConfig, error) {
	instruction := "Extract the character configuration for an NFT collection from this description. " +
		"Colour palette entries are hex colours.\n\nDescription: " + prompt

	text, err := c.generateJSON(ctx, "parse config", instruction, configSchema())
	if err != nil {
		return nil, err
	}

	var cfg projdomain.CharacterConfig
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return nil, &ServiceError{Op: "parse config", Err: fmt.Errorf("decode response: %w", err)}
	}
	cfg = cfg.WithDefaults(prompt)
	return &cfg, nil
}

func (c *GeminiClient) AnalyzeLayers(ctx context.Context, prompt string) ([]projdomain.Layer, error) {
	instruction := "Design the trait layers for a generative NFT collection based on this description. " +
		"Use a root layer named Background and a Body layer whose parent is Background; every other layer " +
		"names an existing parentLayer. Within each layer the trait rarities must sum to exactly 100.\n\n" +
		"Description: " + prompt

	text, err := c.generateJSON(ctx, "analyze layers", instruction, layersSchema())
	if err != nil {
		return nil, err
	}

	layers, err := decodeLayers(text, c.canvas)
	if err != nil {
		return nil, &ServiceError{Op: "analyze layers", Err: err}
	}
	return layers, nil
}

func (c *GeminiClient) generateJSON(ctx context.Context, op, instruction string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(instruction), cfg)
	if err != nil {
		return "", wrap(op, err)
	}

	text := stripCodeFence(responseText(resp))
	if text == "" {
		return "", &ServiceError{Op: op, Err: errors.New("empty response")}
	}
	return text, nil
}

func firstImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates in response")
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData, nil
			}
		}
	}
	if text := responseText(resp); text != "" {
		return nil, fmt.Errorf("no image data, model replied: %.120s", text)
	}
	return nil, errors.New("no image data")
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
