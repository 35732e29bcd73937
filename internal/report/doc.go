// Package report writes store profiles and the tables behind them.
//
// Profile writers implement the Writer interface:
//   - SimpleWriter: short human-readable summary for the terminal
//   - JSONWriter: the full StoreProfile as JSON
//   - MarkdownWriter: the report document, one section per non-empty summary
//
// ArtifactWriter ties them together and persists a finished run into
// <output>/<store slug>/: profile.json, report.md, the CSV key-field
// tables, the SQLite catalog tables and the homepage snapshot.
//
// Report writing is kept apart from the model package so that new output
// formats do not touch the data structures, and apart from the pipeline so
// that profiling can be tested without a filesystem.
package report
