// Package sim provides the discrete-event kernel for churn simulations.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Schedulable, the unit of future work, and event types
//   - engine.go: the clock, the event loop, observer dispatch and stop conditions
//   - process.go: churn-aware processes (fixed and renewal)
//
// # Architecture
//
// The sim package defines the kernel and its extension interfaces;
// implementations live in sub-packages:
//   - sim/churn/: duration distributions, Yao presets, AVT trace replay
//   - sim/protocol/: cyclic protocol runners, periodic actions, example protocols
//   - sim/topology/: neighbor lookup backed by gonum graphs
//   - sim/measure/: incremental statistics and precision evaluation
//   - sim/trace/: per-event trace recording
//   - sim/experiment/: YAML experiment specs and the parallel batch runner
//
// # Key Interfaces
//
//   - Schedulable: anything with a fire time that the Engine can pop
//   - Process: a Schedulable whose events are its own up/down transitions
//   - Observer: typed dispatch target, optionally binding
//   - Distribution: duration sampler for renewal processes
//
// The Engine is single-threaded. Independent engines share nothing and
// may run concurrently in separate goroutines.
package sim
