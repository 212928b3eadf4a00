package imaging

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

type ExtractOptions struct {
	Background      RGB
	Tolerance       int
	MinRegionPixels int
	// Stride is the spacing of the seed scan grid. Regions narrower than the
	// stride in both axes can be missed.
	Stride  int
	Padding int
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		Background:      DefaultBackground,
		Tolerance:       20,
		MinRegionPixels: 5000,
		Stride:          5,
		Padding:         10,
	}
}

// Region is one connected non-background area of a sprite sheet.
type Region struct {
	// Bounds is the minimal rectangle covering the region's pixels.
	Bounds image.Rectangle
	// Crop is Bounds grown by the padding and clamped to the sheet.
	Crop   image.Rectangle
	Pixels int
	// Image is the matted crop, set by ExtractRegions.
	Image *image.NRGBA
}

// FindRegions locates connected foreground regions in scan order of their
// seed pixel (row-major on the stride grid). Each pixel belongs to at most
// one region.
func FindRegions(img image.Image, opt ExtractOptions) ([]Region, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-size image", ErrInvalidImage)
	}
	src := ToNRGBA(img)
	return findRegions(src, opt), nil
}

func findRegions(src *image.NRGBA, opt ExtractOptions) []Region {
	stride := max(opt.Stride, 1)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	foreground := func(i int) bool {
		p := src.Pix[(i/w)*src.Stride+(i%w)*4:]
		return !IsBackground(p[0], p[1], p[2], opt.Background, opt.Tolerance)
	}

	visited := make([]bool, w*h)
	queue := make([]int, 0, 1024)
	sheet := image.Rect(0, 0, w, h)

	var regions []Region
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			seed := y*w + x
			if visited[seed] || !foreground(seed) {
				continue
			}

			visited[seed] = true
			queue = append(queue[:0], seed)
			minX, minY, maxX, maxY := x, y, x, y

			for head := 0; head < len(queue); head++ {
				cur := queue[head]
				cx, cy := cur%w, cur/w
				minX, maxX = min(minX, cx), max(maxX, cx)
				minY, maxY = min(minY, cy), max(maxY, cy)

				push := func(n int) {
					if !visited[n] && foreground(n) {
						visited[n] = true
						queue = append(queue, n)
					}
				}
				if cx > 0 {
					push(cur - 1)
				}
				if cx < w-1 {
					push(cur + 1)
				}
				if cy > 0 {
					push(cur - w)
				}
				if cy < h-1 {
					push(cur + w)
				}
			}

			if len(queue) < opt.MinRegionPixels {
				continue
			}

			bounds := image.Rect(minX, minY, maxX+1, maxY+1)
			regions = append(regions, Region{
				Bounds: bounds,
				Crop:   bounds.Inset(-opt.Padding).Intersect(sheet),
				Pixels: len(queue),
			})
		}
	}
	return regions
}

// ExtractRegions finds the sheet's regions and mattes each padded crop
// concurrently. Regions keep FindRegions order.
func ExtractRegions(ctx context.Context, img image.Image, opt ExtractOptions) ([]Region, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-size image", ErrInvalidImage)
	}
	src := ToNRGBA(img)
	regions := findRegions(src, opt)

	g, gctx := errgroup.WithContext(ctx)
	for i := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			crop := ToNRGBA(src.SubImage(regions[i].Crop))
			matteInPlace(crop, opt.Background, opt.Tolerance)
			regions[i].Image = crop
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return regions, nil
}
