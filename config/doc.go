// Package config manages the repository-local workflow configuration.
//
// Configuration lives in a .forge.yml file at the repository root.
// Values resolve with the following priority (highest to lowest):
//
//	flags > .forge.yml > environment (FORGE_*) > defaults
//
// Resolve tracks the source of every value so commands can explain where
// a setting came from. API keys are never stored in .forge.yml; the AI
// section records a key reference (env:NAME or keyring:service/user)
// instead.
package config
