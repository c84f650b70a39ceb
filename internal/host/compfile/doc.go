// Package compfile is the headless host: comp documents persisted as TOML
// files, a session that remembers the current comp across CLI invocations,
// and a watcher for external edits.
//
// Edits made between Lock and Unlock are flushed once on Unlock while an
// exclusive advisory lock is held on "<comp>.lock", so concurrent processes
// never interleave writes to the same document.
package compfile
