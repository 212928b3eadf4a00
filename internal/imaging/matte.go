package imaging

import (
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// rows below this are matted on the calling goroutine
const parallelRowThreshold = 64

// RemoveMatte returns a copy of img in which every pixel within tolerance of
// bg is fully transparent. All other pixels keep their original RGBA values.
func RemoveMatte(img image.Image, bg RGB, tolerance int) *image.NRGBA {
	out := ToNRGBA(img)
	matteInPlace(out, bg, tolerance)
	return out
}

func matteInPlace(img *image.NRGBA, bg RGB, tolerance int) {
	h := img.Rect.Dy()
	if h < parallelRowThreshold {
		matteRows(img, bg, tolerance, 0, h)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	band := (h + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < h; start += band {
		end := min(start+band, h)
		g.Go(func() error {
			matteRows(img, bg, tolerance, start, end)
			return nil
		})
	}
	_ = g.Wait()
}

func matteRows(img *image.NRGBA, bg RGB, tolerance int, from, to int) {
	w := img.Rect.Dx()
	for y := from; y < to; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			if IsBackground(row[i], row[i+1], row[i+2], bg, tolerance) {
				row[i+3] = 0
			}
		}
	}
}
