// Package experiment turns a YAML Spec into simulation runs.
//
// A Spec is validated, then prepared once: trace files and edge lists
// are loaded into a Plan shared by all repetitions. Each repetition
// builds its own engine from the Plan with a seed of its own, so
// repetitions are independent and RunBatch executes them in parallel.
package experiment
