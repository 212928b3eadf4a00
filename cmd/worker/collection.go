package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	nftservice "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/service"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

const localOwner = "local"

// collectionFile is the on-disk description of a collection. Trait image
// paths are relative to the file.
type collectionFile struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Canvas      int          `yaml:"canvas"`
	Layers      []layerEntry `yaml:"layers"`
}

type layerEntry struct {
	Name     string       `yaml:"name"`
	Parent   string       `yaml:"parent"`
	Position *[4]int      `yaml:"position"`
	Traits   []traitEntry `yaml:"traits"`
}

type traitEntry struct {
	Name   string   `yaml:"name"`
	Rarity float64  `yaml:"rarity"`
	Image  string   `yaml:"image"`
	Anchor []string `yaml:"anchor"`
}

func loadCollection(path string) (*projdomain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf collectionFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cf.Canvas <= 0 {
		cf.Canvas = 1024
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	p := &projdomain.Project{
		ID:      "local-" + filepath.Base(dir),
		OwnerID: localOwner,
		Name:    cf.Name,
		Prompt:  cf.Description,
		Status:  projdomain.StatusDraft,
		Layers:  make([]projdomain.Layer, 0, len(cf.Layers)),
	}
	for _, le := range cf.Layers {
		l := projdomain.Layer{
			Name:        le.Name,
			ParentLayer: le.Parent,
			Position:    projdomain.FullCanvas(cf.Canvas),
			Traits:      make([]projdomain.Trait, 0, len(le.Traits)),
		}
		if le.Position != nil {
			l.Position = projdomain.Position{X: le.Position[0], Y: le.Position[1], Width: le.Position[2], Height: le.Position[3]}
		}
		for _, te := range le.Traits {
			t := projdomain.Trait{Name: te.Name, Rarity: te.Rarity}
			if te.Image != "" {
				img := te.Image
				if !filepath.IsAbs(img) {
					img = filepath.Join(dir, img)
				}
				t.ImageURL = fileScheme + img
			}
			if len(te.Anchor) > 0 {
				t.AnchorPoints = parseAnchor(te.Anchor)
			}
			l.Traits = append(l.Traits, t)
		}
		p.Layers = append(p.Layers, l)
	}

	if err := projdomain.ValidateHierarchy(p.Layers); err != nil {
		return nil, err
	}
	return p, nil
}

func parseAnchor(edges []string) *projdomain.AnchorPoints {
	a := &projdomain.AnchorPoints{}
	for _, e := range edges {
		switch e {
		case "top":
			a.Top = true
		case "bottom":
			a.Bottom = true
		case "left":
			a.Left = true
		case "right":
			a.Right = true
		}
	}
	return a
}

// RunGenerate assembles a collection described by a YAML file into a
// directory of PNGs plus one metadata JSON per variant.
func RunGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	cfgPath := fs.String("config", "collection.yaml", "collection description")
	out := fs.String("out", "out", "output directory")
	count := fs.Int("count", 10, "number of variants")
	seed := fs.Int64("seed", -1, "seed for reproducible output, negative for random")
	workers := fs.Int("workers", 4, "concurrent variants")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := loadCollection(*cfgPath)
	if err != nil {
		return err
	}
	store, err := newDirStore(*out)
	if err != nil {
		return err
	}
	nfts := newMetadataStore(*out)

	a := nftservice.NewAssembler(
		staticProjects{p},
		nfts,
		assets.NewResolver(store, assets.Options{}),
		assets.NewSink(store),
		nil,
		nftservice.Options{Workers: *workers, MaxVariants: max(*count, 1)},
	)

	req := nftservice.CollectionRequest{Count: *count}
	if *seed >= 0 {
		s := uint64(*seed)
		req.Seed = &s
	}

	ctx := context.Background()
	run, err := a.GenerateCollection(ctx, localOwner, p.ID, req)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d of %d variants to %s (%s)\n", run.Succeeded, run.Requested, *out, run.Status)
	for _, f := range run.Failures {
		fmt.Printf(" - #%d [%s] %s\n", f.VariantIndex, f.Kind, f.Message)
	}

	report, err := a.RarityReport(ctx, localOwner, p.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(*out, "rarity.json"), data, 0o644)
}
