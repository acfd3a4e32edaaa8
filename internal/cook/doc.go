// Package cook turns a source tree of assets into cooked output files by
// driving one Asset per file through the flow engine.
//
// Every asset starts at Read, where its bytes are loaded into a Buffer. Text
// assets are normalized and every non-empty asset is digested at Work, the
// only parallel stage. Gather appends the asset to the run's Manifest and
// Write stores the cooked bytes under the output directory before the asset
// is routed to End. Empty files skip Work.
//
// Gather and Write each run on a single worker, so the Manifest needs no
// locking while a run is in progress. Callers read it only after Run returns.
package cook
