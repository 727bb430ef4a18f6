package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoSteps         = errors.New("timeline: no steps")
	ErrNonMonotonic    = errors.New("timeline: step starts are not strictly increasing")
	ErrInvalidDuration = errors.New("timeline: invalid step duration")
	ErrStepOutOfRange  = errors.New("timeline: step index out of range")
)

// RangeError signale un index de step hors limites. Clamped contient l'index
// effectivement utilisé.
type RangeError struct {
	Index   int
	Len     int
	Clamped int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("timeline: step index %d out of range [0, %d), clamped to %d", e.Index, e.Len, e.Clamped)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrStepOutOfRange
}
