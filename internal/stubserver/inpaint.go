package stubserver

import (
	"image"
	"image/draw"
)

// smoothPasses is the number of diffusion sweeps run after the hole is filled.
const smoothPasses = 8

// Inpaint returns a copy of src whose pixels under mask (alpha > 0) are
// rebuilt from their surroundings. The hole is filled from its border inwards
// with the mean of known neighbours, then relaxed with a few diffusion sweeps.
// mask must have the same size as src.
func Inpaint(src image.Image, mask image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	w, h := b.Dx(), b.Dy()

	mb := mask.Bounds()
	hole := make([]bool, w*h)
	known := make([]bool, w*h)
	remaining := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x < mb.Dx() && y < mb.Dy() {
				if _, _, _, a := mask.At(mb.Min.X+x, mb.Min.Y+y).RGBA(); a > 0 {
					hole[i] = true
					remaining++
					continue
				}
			}
			known[i] = true
		}
	}
	if remaining == 0 || remaining == w*h {
		return out
	}

	var frontier []int
	for remaining > 0 {
		frontier = frontier[:0]
		for i, isHole := range hole {
			if isHole && !known[i] && hasKnownNeighbour(known, w, h, i) {
				frontier = append(frontier, i)
			}
		}
		if len(frontier) == 0 {
			break
		}
		for _, i := range frontier {
			average(out, known, w, h, i)
		}
		for _, i := range frontier {
			known[i] = true
		}
		remaining -= len(frontier)
	}

	all := make([]bool, w*h)
	for i := range all {
		all[i] = true
	}
	for pass := 0; pass < smoothPasses; pass++ {
		for i, isHole := range hole {
			if isHole {
				average(out, all, w, h, i)
			}
		}
	}
	return out
}

func neighbours(w, h, i int, fn func(j int)) {
	x, y := i%w, i/w
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			fn(ny*w + nx)
		}
	}
}

func hasKnownNeighbour(known []bool, w, h, i int) bool {
	found := false
	neighbours(w, h, i, func(j int) {
		if known[j] {
			found = true
		}
	})
	return found
}

func average(img *image.RGBA, known []bool, w, h, i int) {
	var r, g, b, a, n uint32
	neighbours(w, h, i, func(j int) {
		if !known[j] {
			return
		}
		p := img.Pix[(j/w)*img.Stride+(j%w)*4:]
		r += uint32(p[0])
		g += uint32(p[1])
		b += uint32(p[2])
		a += uint32(p[3])
		n++
	})
	if n == 0 {
		return
	}
	p := img.Pix[(i/w)*img.Stride+(i%w)*4:]
	p[0], p[1], p[2], p[3] = uint8(r/n), uint8(g/n), uint8(b/n), uint8(a/n)
}
