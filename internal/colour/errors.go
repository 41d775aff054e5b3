package colour

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when an extraction cannot proceed with the
// input it was given, for example an empty image or a zero palette size.
var ErrInvalidState = errors.New("invalid extraction state")

// ErrNoSeeds is returned when refinement is invoked without any seeds.
var ErrNoSeeds = fmt.Errorf("%w: no seeds to refine", ErrInvalidState)
