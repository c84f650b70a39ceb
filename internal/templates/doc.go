// Package templates implements the pipeline path template registry.
//
// Templates are declared in a YAML file in the toolkit's templates.yml shape:
// typed keys (str, int, sequence) and named path definitions made of static
// text and {key} tokens. A template can parse a concrete path back into typed
// fields, render fields into a path, and enumerate the files on disk that
// share a subset of its fields. The registry answers "which template does this
// path belong to" with an optional result; an unknown path is not an error.
package templates
