// Package testgen turns a change set into generated test files.
//
// The service walks changed files in change-set order, decides which are
// eligible, builds a prompt per candidate, and fans generation out to the
// provider with bounded concurrency. Generated content is validated by
// the language adapter before anything is written; a failed candidate
// never leaves a file behind.
//
// A fatal provider error (bad credentials, rejected request) stops
// dispatch of further candidates while in-flight generations finish.
package testgen
