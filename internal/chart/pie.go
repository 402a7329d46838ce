package chart

import (
	"bytes"
	"math"

	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/rotisserie/eris"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// PieSurface draws a single distribution as a pie.
type PieSurface struct {
	base
}

// NewPieSurface returns an empty pie surface.
func NewPieSurface(name string, opt Options) *PieSurface {
	return &PieSurface{base: newBase(name, opt)}
}

func (p *PieSurface) Render(data compare.ChartData) error {
	if len(data.Series) != 1 {
		return eris.Errorf("pie %q: expected 1 series, got %d", p.name, len(data.Series))
	}
	if len(data.Series[0].Values) != len(data.Categories) || len(data.Colors) != len(data.Categories) {
		return eris.Errorf("pie %q: values, colors and categories differ in length", p.name)
	}
	p.data = data
	p.rendered = true
	return p.draw()
}

func (p *PieSurface) Emphasize(index int) error {
	if index < 0 || index >= len(p.data.Categories) {
		index = compare.NoCategory
	}
	p.emphasized = index
	if !p.rendered {
		return nil
	}
	return p.draw()
}

func (p *PieSurface) draw() error {
	values := p.data.Series[0].Values
	pie := gochart.PieChart{
		Title:  p.data.Title,
		Width:  p.opt.Width,
		Height: p.opt.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: p.opt.Padding, Left: p.opt.Padding, Right: p.opt.Padding, Bottom: p.opt.Padding},
		},
	}
	for i, label := range p.data.Categories {
		pie.Values = append(pie.Values, gochart.Value{
			Label: label,
			Value: values[i],
			Style: gochart.Style{
				FillColor:   fill(p.data.Colors[i], i, p.emphasized),
				StrokeColor: gochart.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	img, err := encode(p.opt.Format, func(rp gochart.RendererProvider, buf *bytes.Buffer) error {
		return pie.Render(rp, buf)
	})
	if err != nil {
		return eris.Wrapf(err, "pie %q", p.name)
	}
	p.image = img
	return nil
}

// geometry returns the pie centre and radius in pixels.
func (p *PieSurface) geometry() (cx, cy, radius float64) {
	w := float64(p.opt.Width - 2*p.opt.Padding)
	h := float64(p.opt.Height - 2*p.opt.Padding)
	return float64(p.opt.Width) / 2, float64(p.opt.Height) / 2, math.Min(w, h) / 2
}

// IndexAt resolves a pixel to the category whose slice contains it.
// Slices start at three o'clock and run clockwise in category order, skipping
// categories with no share.
func (p *PieSurface) IndexAt(x, y float64) int {
	if !p.rendered {
		return compare.NoCategory
	}
	cx, cy, radius := p.geometry()
	dx, dy := x-cx, y-cy
	if math.Hypot(dx, dy) > radius {
		return compare.NoCategory
	}
	var total float64
	for _, v := range p.data.Series[0].Values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return compare.NoCategory
	}
	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	var start float64
	last := compare.NoCategory
	for i, v := range p.data.Series[0].Values {
		if v <= 0 {
			continue
		}
		end := start + 2*math.Pi*v/total
		if angle < end {
			return i
		}
		start = end
		last = i
	}
	return last
}

// PointerAt resolves a pointer position and notifies the registered callback.
func (p *PieSurface) PointerAt(x, y float64) int {
	i := p.IndexAt(x, y)
	p.notify(i)
	return i
}
