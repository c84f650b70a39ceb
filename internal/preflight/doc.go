// Package preflight provides readiness checks for the file system locations
// fusionkit depends on.
//
// The engine runs RunAll during Init and refuses to start when a required
// location is unusable. `fusionkit engine info` shows the same results.
package preflight
