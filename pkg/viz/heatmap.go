package viz

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// gradientStop is one control point of the false-color palette.
type gradientStop struct {
	t       float64
	r, g, b uint8
}

// Perceptually ordered dark-to-bright palette for illuminance fields.
var infernoStops = []gradientStop{
	{0.00, 0, 0, 4},
	{0.14, 40, 11, 84},
	{0.29, 101, 21, 110},
	{0.43, 159, 42, 99},
	{0.57, 212, 72, 66},
	{0.71, 245, 125, 21},
	{0.86, 250, 193, 39},
	{1.00, 252, 255, 164},
}

// Heatmap renders a scalar field sampled on an nx by ny grid (row-major,
// row 0 at the minimum Y edge) into a false-color image. Values are
// normalized to the field's min/max range; a flat field renders at the
// bottom of the palette.
func Heatmap(values []float64, nx, ny int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, nx, ny))
	if nx <= 0 || ny <= 0 || len(values) < nx*ny {
		return img
	}

	min := values[0]
	max := values[0]
	for _, v := range values[:nx*ny] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span <= 0 {
		span = 1
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := (values[j*nx+i] - min) / span
			r, g, b := sampleGradient(v)
			// Image rows run top-down; field rows run bottom-up.
			img.SetNRGBA(i, ny-1-j, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func sampleGradient(t float64) (uint8, uint8, uint8) {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	for i := 1; i < len(infernoStops); i++ {
		hi := infernoStops[i]
		if t > hi.t {
			continue
		}
		lo := infernoStops[i-1]
		f := 0.0
		if hi.t > lo.t {
			f = (t - lo.t) / (hi.t - lo.t)
		}
		return lerp8(lo.r, hi.r, f), lerp8(lo.g, hi.g, f), lerp8(lo.b, hi.b, f)
	}
	last := infernoStops[len(infernoStops)-1]
	return last.r, last.g, last.b
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Scale resizes a heat map by an integer factor for viewing. factor <= 1
// returns the input unchanged.
func Scale(img *image.NRGBA, factor int) *image.NRGBA {
	if factor <= 1 {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
