package solver

import (
	"fmt"

	"github.com/kmoren/stepwise/internal/ode"
)

// FromName builds a stepper by its CLI/config name.
func FromName(name string) (ode.Stepper, error) {
	switch name {
	case "rk45", "dopri5", "":
		return NewRK45(), nil
	case "rk4":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	default:
		return nil, fmt.Errorf("unknown solver %q (want rk45, rk4 or euler)", name)
	}
}
