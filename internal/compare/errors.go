package compare

import "fmt"

// RenderTargetMissingError indicates a surface or text region was absent at bind time.
type RenderTargetMissingError struct {
	Target string
}

func (e *RenderTargetMissingError) Error() string {
	if e == nil || e.Target == "" {
		return "render target missing"
	}
	return fmt.Sprintf("render target missing: %s", e.Target)
}
