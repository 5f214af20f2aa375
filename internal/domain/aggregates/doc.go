// Package aggregates defines the write boundaries of the iteration engine.
//
// Each contract owns one set of invariants (lineage versioning, exercise
// progress, engagement counters) and is implemented in internal/data/aggregates
// on top of the table repos, inside a single transaction per call.
package aggregates
