package negotiation

import (
	"fmt"
	"strings"
)

// InvalidSelectionError reports a pick that names no presented option. The
// session stays where it was; the user can pick again.
type InvalidSelectionError struct {
	ID    string
	Valid []string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("no option %q; valid choices are %s", e.ID, strings.Join(e.Valid, ", "))
}

// InvalidConstraintValueError reports an adjustment value that cannot form a
// valid limit. The constraint is left untouched.
type InvalidConstraintValueError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidConstraintValueError) Error() string {
	return fmt.Sprintf("invalid %s value %v: %s", e.Field, e.Value, e.Reason)
}
