package config

// Source indicates where a configuration value came from.
type Source string

// Configuration source constants, lowest to highest priority.
const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"

	// SourceEnv indicates the value came from a FORGE_* environment
	// variable.
	SourceEnv Source = "env"

	// SourceFile indicates the value came from .forge.yml.
	SourceFile Source = "file"

	// SourceFlag indicates the value was set via command-line flag.
	SourceFlag Source = "flag"
)
