package compare

// NoCategory is the pointer position over empty space.
const NoCategory = -1

// Series is one named set of values in category order.
type Series struct {
	Name   string
	Values []float64
}

// ChartData is what a surface draws. Colors are indexed by category.
type ChartData struct {
	Title      string
	Categories []string
	Series     []Series
	Colors     []string
}

// Surface is a chart the comparator draws on and listens to.
type Surface interface {
	Name() string
	// Render draws data; it is called once at bind time.
	Render(data ChartData) error
	// Emphasize highlights the category at index and de-emphasizes the rest.
	// NoCategory removes any emphasis.
	Emphasize(index int) error
	// OnPointerMove registers the callback invoked with the category index under
	// the pointer, or NoCategory.
	OnPointerMove(fn func(index int))
}

// TextRegion displays the hover summary.
type TextRegion interface {
	Show(text, color string)
	Clear()
}
