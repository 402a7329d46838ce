package chart

import (
	"bytes"

	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/rotisserie/eris"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// referenceAlpha marks reference-population bars next to the sample bars.
const referenceAlpha uint8 = 150

// BarSurface draws every series side by side per category, so one surface
// carries the whole comparison.
type BarSurface struct {
	base
}

// NewBarSurface returns an empty bar surface.
func NewBarSurface(name string, opt Options) *BarSurface {
	return &BarSurface{base: newBase(name, opt)}
}

func (b *BarSurface) Render(data compare.ChartData) error {
	if len(data.Series) == 0 {
		return eris.Errorf("bar %q: no series", b.name)
	}
	for _, s := range data.Series {
		if len(s.Values) != len(data.Categories) {
			return eris.Errorf("bar %q: series %q has %d values for %d categories", b.name, s.Name, len(s.Values), len(data.Categories))
		}
	}
	if len(data.Colors) != len(data.Categories) {
		return eris.Errorf("bar %q: %d colors for %d categories", b.name, len(data.Colors), len(data.Categories))
	}
	b.data = data
	b.rendered = true
	return b.draw()
}

func (b *BarSurface) Emphasize(index int) error {
	if index < 0 || index >= len(b.data.Categories) {
		index = compare.NoCategory
	}
	b.emphasized = index
	if !b.rendered {
		return nil
	}
	return b.draw()
}

// slot is the whole-pixel width of one bar plus its spacing. Drawing and
// hit-testing both use it, so bands line up with the bars.
func (b *BarSurface) slot() int {
	n := len(b.data.Categories) * len(b.data.Series)
	if n == 0 {
		return 0
	}
	return (b.opt.Width - 2*b.opt.Padding) / n
}

func (b *BarSurface) draw() error {
	slot := b.slot()
	spacing := slot / 4
	bc := gochart.BarChart{
		Title:      b.data.Title,
		Width:      b.opt.Width,
		Height:     b.opt.Height,
		BarWidth:   slot - spacing,
		BarSpacing: spacing,
		Background: gochart.Style{
			Padding: gochart.Box{Top: b.opt.Padding + 20, Left: b.opt.Padding, Right: b.opt.Padding, Bottom: b.opt.Padding},
		},
		YAxis: gochart.YAxis{
			Style: gochart.Style{Hidden: true},
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
		},
	}
	for i, label := range b.data.Categories {
		for si, s := range b.data.Series {
			c := fill(b.data.Colors[i], i, b.emphasized)
			if si > 0 {
				c = c.WithAlpha(min(c.A, referenceAlpha))
			}
			l := ""
			if si == 0 {
				l = label
			}
			bc.Bars = append(bc.Bars, gochart.Value{
				Label: l,
				Value: s.Values[i],
				Style: gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
			})
		}
	}
	img, err := encode(b.opt.Format, func(rp gochart.RendererProvider, buf *bytes.Buffer) error {
		return bc.Render(rp, buf)
	})
	if err != nil {
		return eris.Wrapf(err, "bar %q", b.name)
	}
	b.image = img
	return nil
}

// IndexAt resolves a pixel to the category whose band of bars contains it.
// Each band is one slot per series wide; pixels left over on the right are empty space.
func (b *BarSurface) IndexAt(x, y float64) int {
	if !b.rendered {
		return compare.NoCategory
	}
	left := float64(b.opt.Padding)
	right := float64(b.opt.Width - b.opt.Padding)
	if x < left || x >= right || y < float64(b.opt.Padding) || y >= float64(b.opt.Height-b.opt.Padding) {
		return compare.NoCategory
	}
	band := float64(b.slot() * len(b.data.Series))
	if band <= 0 {
		return compare.NoCategory
	}
	i := int((x - left) / band)
	if i >= len(b.data.Categories) {
		return compare.NoCategory
	}
	return i
}

// PointerAt resolves a pointer position and notifies the registered callback.
func (b *BarSurface) PointerAt(x, y float64) int {
	i := b.IndexAt(x, y)
	b.notify(i)
	return i
}
