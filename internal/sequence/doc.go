// Package sequence discovers the inclusive frame range of an image sequence
// from any one of its member paths.
//
// Template resolution is authoritative: when the pipeline template registry
// recognises the path and the template carries a SEQ field, every sibling frame
// is enumerated through the registry. Otherwise the trailing frame token of the
// file name (a digit run, a run of '#', or a %0Nd placeholder) is swapped for a
// wildcard and the directory is globbed. A path that is not part of a sequence
// is reported with ok == false rather than an error; only file system failures
// surface as errors.
package sequence
