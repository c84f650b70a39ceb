// Package publish persists published file records in SQLite.
//
// The registry stands in for the tracking server's publish entities when the
// toolkit runs headless: the loader resolves a publish id to its path and
// type, and the CLI manages records with `fusionkit publish`.
package publish
