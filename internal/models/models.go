// Package models bundles small reference systems used by the CLI and
// the tests.
package models

import (
	"fmt"
	"sort"

	"github.com/kmoren/stepwise/internal/ode"
)

// Decay is exponential decay dy/dt = -lambda*y.
type Decay struct {
	Lambda float64
}

func NewDecay() *Decay { return &Decay{Lambda: 1.0} }

func (d *Decay) Dim() int { return 1 }

func (d *Decay) Derive(t float64, y ode.State) ode.State {
	return ode.State{-d.Lambda * y[0]}
}

func (d *Decay) DefaultState() ode.State { return ode.State{1.0} }

// Harmonic is the undamped oscillator.
// State: [x, v]
//
//	dx/dt = v
//	dv/dt = -omega^2 * x
type Harmonic struct {
	Omega float64
}

func NewHarmonic() *Harmonic { return &Harmonic{Omega: 1.0} }

func (h *Harmonic) Dim() int { return 2 }

func (h *Harmonic) Derive(t float64, y ode.State) ode.State {
	return ode.State{y[1], -h.Omega * h.Omega * y[0]}
}

func (h *Harmonic) DefaultState() ode.State { return ode.State{1.0, 0.0} }

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{Mu: 1.0} // Classic value for limit cycle
}

func (v *VanDerPol) Dim() int { return 2 }

func (v *VanDerPol) Derive(t float64, state ode.State) ode.State {
	x, y := state[0], state[1]
	return ode.State{y, v.Mu*(1-x*x)*y - x}
}

func (v *VanDerPol) DefaultState() ode.State { return ode.State{2.0, 0.0} }

// Switched is a driven oscillator whose forcing flips sign at each time
// in Flips. The flip times are genuine discontinuities of the vector
// field and belong in the controller's jump grid.
type Switched struct {
	Amplitude float64
	Flips     []float64
}

func NewSwitched() *Switched {
	return &Switched{Amplitude: 1.0, Flips: []float64{2.0, 4.0, 6.0}}
}

func (s *Switched) Dim() int { return 2 }

func (s *Switched) Derive(t float64, y ode.State) ode.State {
	force := s.Amplitude
	if sort.SearchFloat64s(s.Flips, t)%2 == 1 {
		force = -s.Amplitude
	}
	return ode.State{y[1], -y[0] + force}
}

func (s *Switched) DefaultState() ode.State { return ode.State{0.0, 0.0} }

// JumpTimes returns the discontinuity times for the controller config.
func (s *Switched) JumpTimes() []float64 {
	out := make([]float64, len(s.Flips))
	copy(out, s.Flips)
	return out
}

// Defaulter is implemented by models with a canonical initial state.
type Defaulter interface {
	DefaultState() ode.State
}

// FromName builds a model by its CLI/config name.
func FromName(name string) (ode.System, ode.State, error) {
	var sys ode.System
	switch name {
	case "decay", "":
		sys = NewDecay()
	case "harmonic":
		sys = NewHarmonic()
	case "vanderpol":
		sys = NewVanDerPol()
	case "switched":
		sys = NewSwitched()
	default:
		return nil, nil, fmt.Errorf("unknown model %q (want decay, harmonic, vanderpol or switched)", name)
	}
	return sys, sys.(Defaulter).DefaultState(), nil
}
