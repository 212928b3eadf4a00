package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
)

// RunExtract cuts a sprite sheet into matted trait PNGs, one per region,
// named in region order.
func RunExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	in := fs.String("in", "", "sprite sheet image")
	out := fs.String("out", "out", "output directory")
	bg := fs.String("bg", "", "background hex colour, detected from the sheet when empty")
	tolerance := fs.Int("tolerance", 20, "background colour distance")
	minPixels := fs.Int("min-pixels", 5000, "smallest region kept")
	padding := fs.Int("padding", 10, "padding around each region")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return err
	}

	opt := imaging.DefaultExtractOptions()
	opt.Tolerance = *tolerance
	opt.MinRegionPixels = *minPixels
	opt.Padding = *padding
	if *bg != "" {
		if opt.Background, err = imaging.ParseHexColor(*bg); err != nil {
			return err
		}
	} else {
		opt.Background = imaging.DetectMatte(img, opt.Tolerance)
	}

	regions, err := imaging.ExtractRegions(context.Background(), img, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	fmt.Printf("Background %s, %d regions\n", opt.Background.Hex(), len(regions))
	for i, r := range regions {
		png, err := imaging.EncodePNG(r.Image)
		if err != nil {
			return err
		}
		name := filepath.Join(*out, fmt.Sprintf("trait_%02d.png", i+1))
		if err := os.WriteFile(name, png, 0o644); err != nil {
			return err
		}
		fmt.Printf(" - %s %v (%d px)\n", name, r.Bounds, r.Pixels)
	}
	return nil
}
