// Package chart draws comparison surfaces with go-chart and resolves pointer
// positions on them back to category indexes.
package chart

import (
	"bytes"
	"strings"

	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/rotisserie/eris"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is the image encoding of a surface.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat accepts "svg" or "png" (case-insensitive); anything else is SVG.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(PNG)) {
		return PNG
	}
	return SVG
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

// Options sizes a surface.
type Options struct {
	Width   int
	Height  int
	Padding int
	Format  Format
}

// DefaultOptions returns a 480x480 SVG surface.
func DefaultOptions() Options {
	return Options{Width: 480, Height: 480, Padding: 20, Format: SVG}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Padding <= 0 || 2*o.Padding >= o.Width || 2*o.Padding >= o.Height {
		o.Padding = d.Padding
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	return o
}

// dimmed is the alpha applied to categories that are not emphasized.
const dimmed uint8 = 64

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(strings.TrimSpace(hex), "#"))
}

func fill(hex string, index, emphasized int) drawing.Color {
	c := color(hex)
	if emphasized != compare.NoCategory && index != emphasized {
		return c.WithAlpha(dimmed)
	}
	return c
}

// base holds what every surface shares: its data, emphasis, callback and last image.
type base struct {
	name       string
	opt        Options
	data       compare.ChartData
	rendered   bool
	emphasized int
	onMove     func(int)
	image      []byte
}

func newBase(name string, opt Options) base {
	return base{name: name, opt: opt.normalized(), emphasized: compare.NoCategory}
}

func (b *base) Name() string { return b.name }

func (b *base) OnPointerMove(fn func(int)) { b.onMove = fn }

// Emphasized returns the highlighted category index, or compare.NoCategory.
func (b *base) Emphasized() int { return b.emphasized }

// Image returns the last rendered image.
func (b *base) Image() []byte { return b.image }

// ContentType returns the MIME type of Image.
func (b *base) ContentType() string { return b.opt.Format.ContentType() }

func (b *base) notify(index int) {
	if b.onMove != nil {
		b.onMove(index)
	}
}

func encode(f Format, render func(gochart.RendererProvider, *bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(f.provider(), &buf); err != nil {
		return nil, eris.Wrap(err, "render chart")
	}
	return buf.Bytes(), nil
}
