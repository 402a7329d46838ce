package census

// Palette assigns one hex colour per category index.
type Palette [NumCategories]string

// DefaultPalette is shared by every chart surface so a category keeps its colour everywhere.
var DefaultPalette = Palette{
	White:           "#2196f3",
	Black:           "#4caf50",
	Asian:           "#ff9800",
	Hispanic:        "#f44336",
	AmericanIndian:  "#9c27b0",
	PacificIslander: "#00bcd4",
}

// Colors returns the palette as a slice in canonical order.
func (p Palette) Colors() []string {
	out := make([]string, NumCategories)
	copy(out, p[:])
	return out
}

// Of returns the colour for c, or an empty string outside the set.
func (p Palette) Of(c Category) string {
	if !c.Valid() {
		return ""
	}
	return p[c]
}
