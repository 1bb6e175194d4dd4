package invoice

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed invoice input
type ValidationError struct {
	Field   string
	Index   int // line item index, -1 when the error is not about an item
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("items[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
