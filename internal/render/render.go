// Package render writes observation snapshots for human viewing. Colour
// observations are saved as PNG images; depth observations as heatmap plots.
package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/roverlab/robogym/vision"
)

// Renderer writes numbered observation snapshots into a directory.
type Renderer struct {
	dir  string
	next int
}

// New creates a renderer writing into dir. The directory is created on the
// first render.
func New(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render writes the observation to the next snapshot file and returns its
// path. Tensors with three or more channels are written as colour PNGs from
// the first three channels; single-channel tensors as depth heatmaps.
func (r *Renderer) Render(obs vision.Tensor) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating render dir: %w", err)
	}
	r.next++

	if obs.Shape[3] >= 3 {
		path := filepath.Join(r.dir, fmt.Sprintf("state-%04d.png", r.next))
		return path, writeColorPNG(path, obs)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("state-%04d-depth.png", r.next))
	return path, writeDepthHeatmap(path, obs)
}

func writeColorPNG(path string, obs vision.Tensor) error {
	h, w := obs.Shape[1], obs.Shape[2]
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = scaleToByte(obs.At(y, x, 0))
			img.Pix[i+1] = scaleToByte(obs.At(y, x, 1))
			img.Pix[i+2] = scaleToByte(obs.At(y, x, 2))
			img.Pix[i+3] = 0xff
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func writeDepthHeatmap(path string, obs vision.Tensor) error {
	p := plot.New()
	p.Title.Text = "State"
	p.HideAxes()

	hm := plotter.NewHeatMap(tensorGrid{obs}, palette.Heat(16, 1))
	p.Add(hm)

	return p.Save(4*vg.Inch, 3*vg.Inch, path)
}

// scaleToByte maps either a [0,1] normalized value or a native [0,255] value
// onto a display byte.
func scaleToByte(v float64) uint8 {
	if v <= 1.0 {
		v *= 255
	}
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// tensorGrid adapts a single-channel tensor to the plotter grid interface.
// Rows are flipped so the image reads top-down like the camera frame.
type tensorGrid struct {
	t vision.Tensor
}

func (g tensorGrid) Dims() (int, int)   { return g.t.Shape[2], g.t.Shape[1] }
func (g tensorGrid) X(c int) float64    { return float64(c) }
func (g tensorGrid) Y(r int) float64    { return float64(r) }
func (g tensorGrid) Z(c, r int) float64 { return g.t.At(g.t.Shape[1]-1-r, c, 0) }
