// Package measure accumulates statistics over simulation runs.
//
// IncrementalStats keeps running moments without storing samples.
// AvgEvaluator decides when enough samples were collected for a sample
// average to be trusted at 95% confidence. UptimeSnapshot records
// per-process uptimes when burn-in ends so availability can be measured
// over the post-burn-in window only.
package measure
