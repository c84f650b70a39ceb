// Package logs reads the fusionkit log file for the `fusionkit logs` command.
//
// Tail returns the last lines of the file together with the byte offset that
// follows them; ReadFrom continues from such an offset so callers can follow
// the file as the engine and CLI append to it.
package logs
