// Package database provides SQLite-based storage for abogus.
//
// The HistoryDB records every signing call made by the CLI so that earlier
// signatures can be listed, compared and pruned. The raw user agent is not
// stored; a short SHA3-256 fingerprint identifies it instead.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite implementation, and the
// database is a single file in the XDG data directory.
package database
