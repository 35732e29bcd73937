// Package pipeline assembles a store profile from its sources.
//
// A Pipeline executes Steps in order against a model.Run. Steps come in
// two kinds. A hard step (AddStep) is load-bearing: its error aborts the
// run and is returned to the caller. Only the product catalog, the
// analysis derived from it, and artifact persistence are hard. A soft
// step (AddSoftStep) runs inside a failure boundary: an error or panic is
// recorded as a failed model.SourceResult, the profile section the step
// owns stays empty, and the run continues.
//
// Concurrent groups soft steps that fetch independent sources so they run
// at the same time. Each step writes only its own section, so the merged
// profile does not depend on completion order.
//
// Profiler wires the default pipeline from a config.Config, and
// BatchProcessor profiles several stores with bounded concurrency using
// errgroup.
package pipeline
