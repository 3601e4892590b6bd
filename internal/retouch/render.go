package retouch

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

func renderOverlay(dst *image.RGBA, r image.Rectangle, overlay *image.NRGBA) {
	if r.Size() == overlay.Bounds().Size() {
		draw.Draw(dst, r, overlay, image.Point{}, draw.Over)
		return
	}
	xdraw.NearestNeighbor.Scale(dst, r, overlay, overlay.Bounds(), xdraw.Over, nil)
}
