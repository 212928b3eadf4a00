package main

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

const collectionYAML = `
name: Pixel Cats
description: tiny cats
canvas: 8
layers:
  - name: Background
    traits:
      - name: Red
        rarity: 100
        image: bg.png
  - name: Hat
    parent: Background
    position: [2, 2, 4, 4]
    traits:
      - name: Blue
        rarity: 50
        image: blue.png
      - name: Green
        rarity: 50
        image: green.png
`

func writeCollection(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "bg.png"), 8, 8, color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "blue.png"), 4, 4, color.NRGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(dir, "green.png"), 4, 4, color.NRGBA{G: 255, A: 255})
	path := filepath.Join(dir, "collection.yaml")
	require.NoError(t, os.WriteFile(path, []byte(collectionYAML), 0o644))
	return path
}

func TestLoadCollection(t *testing.T) {
	p, err := loadCollection(writeCollection(t))
	require.NoError(t, err)

	require.Len(t, p.Layers, 2)
	assert.Equal(t, "Pixel Cats", p.Name)
	assert.Equal(t, 8, p.Layers[0].Position.Width)
	assert.Equal(t, "Background", p.Layers[1].ParentLayer)
	assert.Equal(t, 4, p.Layers[1].Position.Height)
	assert.Contains(t, p.Layers[1].Traits[0].ImageURL, fileScheme)
}

func TestLoadCollection_RejectsBadRarities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layers:
  - name: Background
    traits:
      - name: A
        rarity: 30
`), 0o644))

	_, err := loadCollection(path)
	assert.Error(t, err)
}

func TestRunGenerate_WritesImagesAndMetadata(t *testing.T) {
	cfg := writeCollection(t)
	out := t.TempDir()

	err := RunGenerate([]string{"-config", cfg, "-out", out, "-count", "4", "-seed", "3", "-workers", "2"})
	require.NoError(t, err)

	metas, err := filepath.Glob(filepath.Join(out, "metadata", "*.json"))
	require.NoError(t, err)
	assert.Len(t, metas, 4)

	data, err := os.ReadFile(filepath.Join(out, "metadata", "1.json"))
	require.NoError(t, err)
	var meta tokenMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "Pixel Cats #1", meta.Name)
	require.Len(t, meta.Attributes, 2)
	assert.Equal(t, "Background", meta.Attributes[0].TraitType)

	f, err := os.Open(meta.Image)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 8), img.Bounds().Size())

	_, err = os.Stat(filepath.Join(out, "rarity.json"))
	assert.NoError(t, err)
}

func TestRunExtract(t *testing.T) {
	dir := t.TempDir()
	sheet := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.NRGBA{R: 184, G: 184, B: 184, A: 255}
			if y >= 5 && y < 15 && ((x >= 5 && x < 15) || (x >= 25 && x < 35)) {
				c = color.NRGBA{R: 200, A: 255}
			}
			sheet.SetNRGBA(x, y, c)
		}
	}
	in := filepath.Join(dir, "sheet.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, sheet))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "traits")
	err = RunExtract([]string{"-in", in, "-out", out, "-bg", "#b8b8b8", "-min-pixels", "50", "-padding", "1"})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(out, "trait_*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunExtract_RequiresInput(t *testing.T) {
	assert.Error(t, RunExtract(nil))
}
