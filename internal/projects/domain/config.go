package domain

import (
	"fmt"
	"strings"
)

// CharacterConfig is the structured reading of a project prompt.
type CharacterConfig struct {
	Subject         string   `json:"subject"`
	Theme           string   `json:"theme"`
	ArtStyle        string   `json:"artStyle"`
	Mood            string   `json:"mood"`
	FaceOrientation string   `json:"faceOrientation"`
	ColorPalette    []string `json:"colorPalette"`
}

// FallbackConfig derives a config from the prompt words when analysis fails.
func FallbackConfig(prompt string) CharacterConfig {
	words := strings.Fields(prompt)
	cfg := CharacterConfig{
		Subject:         "character",
		Theme:           "modern",
		ArtStyle:        "cartoon",
		Mood:            "cool",
		FaceOrientation: "three-quarter",
		ColorPalette:    []string{"#00FF00", "#FF00FF", "#FFFF00"},
	}
	if len(words) > 0 {
		cfg.Subject = strings.ToLower(words[len(words)-1])
		cfg.Theme = strings.ToLower(words[0])
	}
	return cfg
}

// WithDefaults fills empty fields from the fallback for the same prompt.
func (c CharacterConfig) WithDefaults(prompt string) CharacterConfig {
	fb := FallbackConfig(prompt)
	if strings.TrimSpace(c.Subject) == "" {
		c.Subject = fb.Subject
	}
	if strings.TrimSpace(c.Theme) == "" {
		c.Theme = fb.Theme
	}
	if c.ArtStyle == "" {
		c.ArtStyle = fb.ArtStyle
	}
	if c.Mood == "" {
		c.Mood = fb.Mood
	}
	if c.FaceOrientation == "" {
		c.FaceOrientation = fb.FaceOrientation
	}
	if len(c.ColorPalette) == 0 {
		c.ColorPalette = fb.ColorPalette
	}
	return c
}

func (c CharacterConfig) CollectionName() string {
	return fmt.Sprintf("%s %s Collection", TitleCase(c.Subject), TitleCase(c.Theme))
}

// BasePrompt is the image prompt for the bare base character.
func (c CharacterConfig) BasePrompt() string {
	return fmt.Sprintf(
		"A %s %s character in %s style with a %s mood, %s view, full body, no accessories, "+
			"plain flat #b8b8b8 background, colour palette %s.",
		c.Theme, c.Subject, c.ArtStyle, c.Mood, c.FaceOrientation, strings.Join(c.ColorPalette, ", "),
	)
}

// TraitPrompt is the image prompt for one variation of a trait category.
func (c CharacterConfig) TraitPrompt(category string, variation int) string {
	return fmt.Sprintf(
		"A single %s item for a %s %s character, variation %d, %s style, %s mood, "+
			"isolated on a plain flat #b8b8b8 background, aligned to a %s facing character.",
		category, c.Theme, c.Subject, variation, c.ArtStyle, c.Mood, c.FaceOrientation,
	)
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
