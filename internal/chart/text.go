package chart

// TextBox is an in-memory summary region.
type TextBox struct {
	text  string
	color string
}

func (t *TextBox) Show(text, color string) {
	t.text, t.color = text, color
}

func (t *TextBox) Clear() {
	t.text, t.color = "", ""
}

// Text returns the displayed summary and its colour.
func (t *TextBox) Text() (string, string) { return t.text, t.color }
