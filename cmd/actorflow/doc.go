// Package main hosts the actorflow CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the flow engine from it, and exposes the asset cook pipeline, the run
// history database, and configuration scaffolding. Pipeline behaviour lives
// in the internal packages; commands here only wire and render.
package main
