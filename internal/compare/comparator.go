package compare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Layout is how the two distributions are spread over surfaces.
type Layout int

const (
	// LayoutCombined draws both distributions on one surface.
	LayoutCombined Layout = iota + 1
	// LayoutSplit draws one surface per distribution.
	LayoutSplit
)

func (l Layout) String() string {
	switch l {
	case LayoutCombined:
		return "combined"
	case LayoutSplit:
		return "split"
	}
	return "unknown"
}

// ParseLayout reads "combined" or "split"; empty means split.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "combined", "single":
		return LayoutCombined, nil
	case "split", "":
		return LayoutSplit, nil
	}
	return 0, eris.Errorf("unknown layout %q (want combined or split)", s)
}

// Series names and surface titles.
const (
	SampleTitle    = "Defendants"
	ReferenceTitle = "Population"
)

// Inputs are the already-computed distributions, in canonical category order.
type Inputs struct {
	Categories []string
	Sample     []float64
	Reference  []float64
	Colors     []string
}

func (in Inputs) validate() error {
	n := len(in.Categories)
	if n == 0 {
		return eris.New("no categories to compare")
	}
	if len(in.Sample) != n || len(in.Reference) != n || len(in.Colors) != n {
		return eris.Errorf("length mismatch: %d categories, %d sample, %d reference, %d colors",
			n, len(in.Sample), len(in.Reference), len(in.Colors))
	}
	return nil
}

// HoverState is the highlighted category index, or NoCategory.
type HoverState struct {
	Index int
}

// Active reports whether a category is highlighted.
func (h HoverState) Active() bool { return h.Index != NoCategory }

// Comparator keeps the surfaces and the text region in step with the pointer.
type Comparator struct {
	in       Inputs
	layout   Layout
	surfaces []Surface
	text     TextRegion
	state    HoverState
}

// Bind renders the distributions on one surface (combined) or two (split) and
// registers the shared hover handler on each of them.
func Bind(in Inputs, surfaces []Surface, text TextRegion) (*Comparator, error) {
	if len(surfaces) == 0 {
		return nil, &RenderTargetMissingError{Target: "chart surface"}
	}
	for i, s := range surfaces {
		if s == nil {
			return nil, &RenderTargetMissingError{Target: fmt.Sprintf("chart surface %d", i)}
		}
	}
	if text == nil {
		return nil, &RenderTargetMissingError{Target: "summary text region"}
	}
	if err := in.validate(); err != nil {
		return nil, eris.Wrap(err, "bind")
	}

	c := &Comparator{
		in:       in,
		surfaces: surfaces,
		text:     text,
		state:    HoverState{Index: NoCategory},
	}
	var charts []ChartData
	switch len(surfaces) {
	case 1:
		c.layout = LayoutCombined
		charts = []ChartData{{
			Title:      SampleTitle + " vs " + ReferenceTitle,
			Categories: in.Categories,
			Series:     []Series{{Name: SampleTitle, Values: in.Sample}, {Name: ReferenceTitle, Values: in.Reference}},
			Colors:     in.Colors,
		}}
	case 2:
		c.layout = LayoutSplit
		charts = []ChartData{
			{Title: SampleTitle, Categories: in.Categories, Series: []Series{{Name: SampleTitle, Values: in.Sample}}, Colors: in.Colors},
			{Title: ReferenceTitle, Categories: in.Categories, Series: []Series{{Name: ReferenceTitle, Values: in.Reference}}, Colors: in.Colors},
		}
	default:
		return nil, eris.Errorf("bind: expected 1 or 2 surfaces, got %d", len(surfaces))
	}

	for i, s := range surfaces {
		if err := s.Render(charts[i]); err != nil {
			return nil, eris.Wrapf(err, "render surface %q", s.Name())
		}
	}
	for _, s := range surfaces {
		name := s.Name()
		s.OnPointerMove(func(index int) {
			if err := c.Hover(index); err != nil {
				zap.L().Warn("hover update failed", zap.String("surface", name), zap.Int("index", index), zap.Error(err))
			}
		})
	}
	return c, nil
}

// Hover moves the highlight to index. Every surface and the text region are
// updated before it returns. Indexes outside the category range mean empty
// space, which clears the summary and all emphasis.
func (c *Comparator) Hover(index int) error {
	if index < 0 || index >= len(c.in.Categories) {
		index = NoCategory
	}
	c.state.Index = index
	if index == NoCategory {
		c.text.Clear()
	} else {
		c.text.Show(c.Summary(index), c.in.Colors[index])
	}
	var errs []error
	for _, s := range c.surfaces {
		if err := s.Emphasize(index); err != nil {
			errs = append(errs, eris.Wrapf(err, "emphasize %q", s.Name()))
		}
	}
	return errors.Join(errs...)
}

// Leave is the pointer leaving every surface.
func (c *Comparator) Leave() error { return c.Hover(NoCategory) }

// Summary formats the comparison line for the category at index.
func (c *Comparator) Summary(index int) string {
	return fmt.Sprintf("%s: %.2f%% of defendants vs %.2f%% of county population",
		c.in.Categories[index], c.in.Sample[index], c.in.Reference[index])
}

// State returns the current hover state.
func (c *Comparator) State() HoverState { return c.state }

// Layout returns how the distributions were spread over surfaces.
func (c *Comparator) Layout() Layout { return c.layout }
