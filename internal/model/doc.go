// Package model defines the data structures shared by the signer, the
// batch pipeline, the report writers and the history database.
//
// SignResult is the outcome of signing one URL. It serializes to JSON for
// reports and is converted to a database row for the signing history.
package model
