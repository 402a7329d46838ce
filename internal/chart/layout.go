package chart

import (
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/rotisserie/eris"
)

// Interactive is a surface that can be drawn to an image and hit-tested.
type Interactive interface {
	compare.Surface
	PointerAt(x, y float64) int
	IndexAt(x, y float64) int
	Emphasized() int
	Image() []byte
	ContentType() string
}

// Surface names used for the split and combined layouts.
const (
	DefendantsSurface = "defendants"
	PopulationSurface = "population"
	CombinedSurface   = "combined"
)

// ForLayout returns fresh surfaces for l: one bar chart when combined, two pies when split.
func ForLayout(l compare.Layout, opt Options) ([]Interactive, error) {
	switch l {
	case compare.LayoutCombined:
		return []Interactive{NewBarSurface(CombinedSurface, opt)}, nil
	case compare.LayoutSplit:
		return []Interactive{NewPieSurface(DefendantsSurface, opt), NewPieSurface(PopulationSurface, opt)}, nil
	}
	return nil, eris.Errorf("no surfaces for layout %v", l)
}

// AsSurfaces widens the slice for compare.Bind.
func AsSurfaces(in []Interactive) []compare.Surface {
	out := make([]compare.Surface, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
