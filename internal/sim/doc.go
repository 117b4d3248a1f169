// Package sim provides the time-stepping primitives shared by the models.
//
//   - [State]: packed vector of prognostic variables
//   - [Dynamics]: tendency function dX/dt = f(X, t)
//   - [Integrator]: one-step numerical scheme
//   - [Observer]: hook invoked after every completed step
//   - [Simulator]: owns a state and advances it with fixed steps
//
// # Thread Safety
//
// A Simulator exclusively owns its state and is NOT safe for concurrent
// use. Independent simulators share nothing and can run in parallel.
package sim
