// Package components holds the plain data types shared by the engine systems.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Particle is the physical state of one fluid particle.
type Particle struct {
	Position     r3.Vec
	Velocity     r3.Vec
	Acceleration r3.Vec // accumulated by force passes, consumed by the integrator

	Mass      float64
	Density   float64
	Viscosity float64
}
