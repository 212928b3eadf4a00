package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"google.golang.org/genai"
)

func configSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subject":         str,
			"theme":           str,
			"artStyle":        str,
			"mood":            str,
			"faceOrientation": str,
			"colorPalette":    {Type: genai.TypeArray, Items: str},
		},
		Required: []string{"subject", "theme", "artStyle", "mood", "faceOrientation", "colorPalette"},
	}
}

func layersSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	num := &genai.Schema{Type: genai.TypeNumber}
	trait := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        str,
			"description": str,
			"rarity":      num,
		},
		Required: []string{"name", "rarity"},
	}
	layer := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        str,
			"description": str,
			"parentLayer": str,
			"position": {
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"x": num, "y": num},
			},
			"traits": {Type: genai.TypeArray, Items: trait},
		},
		Required: []string{"name", "traits"},
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"layers": {Type: genai.TypeArray, Items: layer}},
		Required:   []string{"layers"},
	}
}

type analyzedTrait struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rarity      float64 `json:"rarity"`
}

type analyzedLayer struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentLayer string `json:"parentLayer"`
	Position    struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	Traits []analyzedTrait `json:"traits"`
}

// decodeLayers maps the analysis JSON onto layers covering the canvas.
// Rarities are kept as returned; validation happens in the caller.
func decodeLayers(text string, canvas int) ([]projdomain.Layer, error) {
	var payload struct {
		Layers []analyzedLayer `json:"layers"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode layer analysis: %w", err)
	}
	if len(payload.Layers) == 0 {
		return nil, fmt.Errorf("layer analysis returned no layers")
	}

	out := make([]projdomain.Layer, 0, len(payload.Layers))
	for _, al := range payload.Layers {
		l := projdomain.Layer{
			Name:        strings.TrimSpace(al.Name),
			Description: al.Description,
			ParentLayer: strings.TrimSpace(al.ParentLayer),
			Position: projdomain.Position{
				X:      int(al.Position.X),
				Y:      int(al.Position.Y),
				Width:  canvas,
				Height: canvas,
			},
			Traits: make([]projdomain.Trait, 0, len(al.Traits)),
		}
		if strings.EqualFold(l.ParentLayer, "none") || strings.EqualFold(l.ParentLayer, "null") {
			l.ParentLayer = ""
		}
		for _, at := range al.Traits {
			l.Traits = append(l.Traits, projdomain.Trait{
				Name:        strings.TrimSpace(at.Name),
				Description: at.Description,
				Rarity:      at.Rarity,
			})
		}
		out = append(out, l)
	}
	return out, nil
}
