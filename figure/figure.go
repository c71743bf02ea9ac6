// Package figure renders the chapters' plots to PNG files with gonum/plot:
// posterior densities, chain traces, and scatter plots with posterior
// regression bands.
package figure

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"rethink/errors"
)

// Workshop writes figures into one output directory at a fixed size
type Workshop struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewWorkshop creates the output directory if needed
func NewWorkshop(dir string, widthInches, heightInches float64) (*Workshop, error) {
	if widthInches <= 0 || heightInches <= 0 {
		return nil, errors.Newf("figure size %gx%g inches is not positive", widthInches, heightInches)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create figure directory")
	}
	return &Workshop{
		dir:    dir,
		width:  vg.Length(widthInches) * vg.Inch,
		height: vg.Length(heightInches) * vg.Inch,
	}, nil
}

// Dir returns the output directory
func (w *Workshop) Dir() string { return w.dir }

func (w *Workshop) path(name string) string {
	return filepath.Join(w.dir, name+".png")
}

// Line and fill colors shared by all figures
var (
	lineColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	accentColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	bandColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x40}
	chainColors = []color.RGBA{
		{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
		{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
		{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
		{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	}
)
