package domain

import "time"

type Status string

const (
	StatusInitializing Status = "initializing"
	StatusDraft        Status = "draft"
	StatusPublished    Status = "published"
)

const (
	RootLayerName = "Background"
	BodyLayerName = "Body"
	BaseTraitName = "Base Character"
)

// Project is the aggregate root of a collection: its prompt, character
// config and the layer hierarchy variants are sampled from.
type Project struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"ownerAddress"`
	Name         string          `json:"name"`
	Prompt       string          `json:"prompt"`
	Status       Status          `json:"status"`
	PreviewImage string          `json:"previewImage,omitempty"`
	Config       CharacterConfig `json:"config"`
	Layers       []Layer         `json:"layers"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Layer is a named slot in the hierarchy. An empty ParentLayer marks a root.
type Layer struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ParentLayer string   `json:"parentLayer,omitempty"`
	AIPrompt    string   `json:"aiPrompt,omitempty"`
	Position    Position `json:"position"`
	Traits      []Trait  `json:"traits"`
}

type Position struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Trait is one selectable option of a layer. Rarity is a percentage weight.
type Trait struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Rarity       float64       `json:"rarity"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	AnchorPoints *AnchorPoints `json:"anchorPoints,omitempty"`
}

// AnchorPoints pin trait edges to the parent layer's box.
type AnchorPoints struct {
	Top    bool `json:"top"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
	Right  bool `json:"right"`
}

func FullCanvas(size int) Position {
	return Position{Width: size, Height: size}
}

func (l Layer) IsRoot() bool {
	return l.ParentLayer == ""
}

func (l Layer) RaritySum() float64 {
	var sum float64
	for _, t := range l.Traits {
		sum += t.Rarity
	}
	return sum
}

func (l Layer) Trait(name string) (Trait, bool) {
	for _, t := range l.Traits {
		if t.Name == name {
			return t, true
		}
	}
	return Trait{}, false
}

// LayerIndex returns the position of the named layer or -1.
func (p *Project) LayerIndex(name string) int {
	for i := range p.Layers {
		if p.Layers[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to mutate.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Config.ColorPalette = append([]string(nil), p.Config.ColorPalette...)
	cp.Layers = make([]Layer, len(p.Layers))
	for i, l := range p.Layers {
		l.Traits = append([]Trait(nil), l.Traits...)
		for j, t := range l.Traits {
			if t.AnchorPoints != nil {
				a := *t.AnchorPoints
				l.Traits[j].AnchorPoints = &a
			}
		}
		cp.Layers[i] = l
	}
	return &cp
}
