// Package adapter binds the workflow to a language's test tooling.
//
// An Adapter knows how to recognize a project, map source files to their
// conventional test file locations, validate generated test source, and
// run the suite. Adapters for Python (pytest) and Go (go test) are built
// in; Register adds more.
//
// Test failures are results, not errors: Run returns a RunResult whose
// counts describe the outcome. Errors from Run mean the runner itself
// could not do its job (binary missing, crash before reporting).
package adapter
