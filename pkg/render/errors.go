package render

import (
	"errors"
	"fmt"
)

// RenderError reports that a document could not be produced from its input
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsRenderError checks if an error is a RenderError
func IsRenderError(err error) bool {
	var r *RenderError
	return errors.As(err, &r)
}

// ErrMissingItems is returned when an invoice has no item list at all
var ErrMissingItems = errors.New("invoice has no items list")
