package viz

import (
	"image/color"
	"testing"
)

func TestHeatmap_Dimensions(t *testing.T) {
	values := make([]float64, 12)
	for i := range values {
		values[i] = float64(i)
	}
	img := Heatmap(values, 4, 3)
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("Expected a 4x3 image, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestHeatmap_Normalization(t *testing.T) {
	// Row 0 of the field holds the minimum; it lands at the image bottom.
	values := []float64{0, 0, 1000, 1000}
	img := Heatmap(values, 2, 2)

	lowest := infernoStops[0]
	highest := infernoStops[len(infernoStops)-1]

	bottom := img.NRGBAAt(0, 1)
	if bottom != (color.NRGBA{R: lowest.r, G: lowest.g, B: lowest.b, A: 255}) {
		t.Errorf("Expected the minimum value at the palette bottom, got %+v", bottom)
	}
	top := img.NRGBAAt(0, 0)
	if top != (color.NRGBA{R: highest.r, G: highest.g, B: highest.b, A: 255}) {
		t.Errorf("Expected the maximum value at the palette top, got %+v", top)
	}
}

func TestHeatmap_FlatField(t *testing.T) {
	values := []float64{5, 5, 5, 5}
	img := Heatmap(values, 2, 2)
	expected := color.NRGBA{R: infernoStops[0].r, G: infernoStops[0].g, B: infernoStops[0].b, A: 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if img.NRGBAAt(x, y) != expected {
				t.Errorf("Expected a flat field at the palette bottom, got %+v at (%d,%d)",
					img.NRGBAAt(x, y), x, y)
			}
		}
	}
}

func TestSampleGradient_Endpoints(t *testing.T) {
	r, g, b := sampleGradient(0)
	first := infernoStops[0]
	if r != first.r || g != first.g || b != first.b {
		t.Errorf("Expected the first stop at t=0, got (%d,%d,%d)", r, g, b)
	}
	r, g, b = sampleGradient(1)
	last := infernoStops[len(infernoStops)-1]
	if r != last.r || g != last.g || b != last.b {
		t.Errorf("Expected the last stop at t=1, got (%d,%d,%d)", r, g, b)
	}
	// Out-of-range inputs clamp instead of wrapping.
	if r2, _, _ := sampleGradient(2.5); r2 != last.r {
		t.Errorf("Expected clamping above 1, got red %d", r2)
	}
}

func TestScale(t *testing.T) {
	img := Heatmap([]float64{1, 2, 3, 4}, 2, 2)
	scaled := Scale(img, 3)
	if scaled.Bounds().Dx() != 6 || scaled.Bounds().Dy() != 6 {
		t.Errorf("Expected a 6x6 image, got %dx%d", scaled.Bounds().Dx(), scaled.Bounds().Dy())
	}
	if Scale(img, 1) != img {
		t.Error("Expected factor 1 to return the input unchanged")
	}
}
