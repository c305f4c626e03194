// Package dynamo provides the numerical primitives shared by the in-process
// simulation engine.
//
// The package defines the vector types and the ODE contract used by the
// spacecraft dynamics and the integrators:
//
//   - [State]: flat state vector integrated by an [Integrator]
//   - [Vec3]: fixed-size 3-vector for positions, velocities, MRPs and rates
//   - [Mat3]: 3x3 matrix for inertia tensors and direction cosines
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//
// # Example
//
//	integ := integrators.NewRK4()
//	next := integ.Step(sys, x, u, t, dt)
//	if !next.IsValid() {
//	    return &dynamo.StepError{Time: t, State: x, Wrapped: dynamo.ErrInvalidState}
//	}
//
// # Thread Safety
//
// Values are plain slices and arrays. Integrators keep scratch buffers and
// must not be shared between goroutines.
package dynamo
