// Package loader turns published files into comp nodes.
//
// GenerateActions lists what can be done with a publish and ExecuteAction
// performs it. The read_node action creates a Loader tool whose clip is the
// publish path; image sequences are detected with the sequence package so the
// tool spans the frames found on disk.
package loader
