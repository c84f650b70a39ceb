// Package engine manages the toolkit engine lifecycle inside the compositing
// host: compatibility gates on start, the command registry apps contribute
// menu entries to, startup commands, and log emission to the host console.
package engine
