package service

import (
	"image"

	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
)

// layerBox is the rectangle a layer occupies. A layer without a size spans
// the canvas from its offset.
func layerBox(l projdomain.Layer, canvas image.Rectangle) image.Rectangle {
	p := l.Position
	if p.Width > 0 && p.Height > 0 {
		return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
	}
	return image.Rectangle{Min: image.Pt(p.X, p.Y), Max: canvas.Max}
}

// placementRect resolves where a trait image is drawn. A layer with a size
// places the image at exactly that rectangle; otherwise the image keeps its
// own size at the layer's offset. Anchor points then pin the image to the
// edges of the parent layer's box, centring it when both opposite edges
// are set.
func placementRect(h *projdomain.Hierarchy, layerIndex int, t projdomain.Trait, size image.Point, canvas image.Rectangle) image.Rectangle {
	l := h.Layer(layerIndex)

	var r image.Rectangle
	if l.Position.Width > 0 && l.Position.Height > 0 {
		r = image.Rect(l.Position.X, l.Position.Y, l.Position.X+l.Position.Width, l.Position.Y+l.Position.Height)
	} else {
		r = image.Rectangle{Min: image.Pt(l.Position.X, l.Position.Y), Max: image.Pt(l.Position.X+size.X, l.Position.Y+size.Y)}
	}

	a := t.AnchorPoints
	if a == nil {
		return r
	}

	box := canvas
	if p := h.Parent(layerIndex); p >= 0 {
		box = layerBox(h.Layer(p), canvas)
	}

	w, hgt := r.Dx(), r.Dy()
	x, y := r.Min.X, r.Min.Y
	switch {
	case a.Left && a.Right:
		x = box.Min.X + (box.Dx()-w)/2
	case a.Left:
		x = box.Min.X
	case a.Right:
		x = box.Max.X - w
	}
	switch {
	case a.Top && a.Bottom:
		y = box.Min.Y + (box.Dy()-hgt)/2
	case a.Top:
		y = box.Min.Y
	case a.Bottom:
		y = box.Max.Y - hgt
	}
	return image.Rect(x, y, x+w, y+hgt)
}
