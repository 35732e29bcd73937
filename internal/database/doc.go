// Package database provides SQLite-based storage for storeprofile.
//
// Two kinds of database live here:
//   - ProfileDB: the profile history shared by all runs, kept in the XDG
//     data directory. Each successful run adds one row holding the full
//     StoreProfile as JSON plus a few columns for listing.
//   - CatalogDB: the structured product and collection tables of a single
//     run, written next to the other artifacts as catalog.db.
//
// We use SQLite via modernc.org/sqlite: the database is a single file and
// the driver needs no CGO, so the tool cross-compiles without a toolchain.
package database
