// Package preflight provides readiness checks for the filesystem paths a cook
// run depends on.
//
// The CLI runs RunAll before building the engine so a missing source tree or
// a read-only output directory fails in milliseconds instead of after the
// first Write stage. "actorflow config validate" reports the same results.
package preflight
