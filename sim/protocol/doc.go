// Package protocol drives simulated protocols on top of the sim kernel.
//
// Two execution models are provided:
//   - cyclic.go: synchronous rounds. A CyclicProtocolRunner ticks with a
//     fixed period and steps the CyclicProtocol attached to every live
//     process. The pausing variant stops ticking while no protocol is
//     Active and resumes, phase-aligned, when a process logs in.
//   - periodic.go: per-process timers. A PeriodicAction runs an Action
//     every period of wallclock time, but only while its process is up;
//     timers that expire during downtime fire right after the next login.
//
// Flood and Antientropy are dissemination protocols built on each model,
// and RandomSelector is the peer selection they share.
package protocol
