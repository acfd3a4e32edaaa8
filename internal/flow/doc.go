// Package flow runs work items through a fixed set of named stages where each
// item decides at runtime which stage it visits next.
//
// The Engine owns one bounded Queue per Stage. Read, Write, and Gather each
// have a single worker; Work has a configurable pool. End has no worker: the
// engine drains it itself and counts arrivals, so an item is finished the
// moment it is routed to End. Bounded queues provide backpressure, and an
// item's envelope is owned by exactly one queue or one worker at a time.
//
// A run is fail-fast. The first execute error, panic, or routing to an
// unknown stage cancels every worker and is returned from Run as a
// *StageError carrying the item, stage, and cause. Items must reach End in a
// bounded number of hops; the engine performs no cycle detection, so callers
// that cannot prove this should pass a deadline or set WithDrainTimeout.
package flow
