// Package prompt loads and renders the prompt templates used for test
// generation.
//
// Templates are plain text/template files. A repository can override the
// built-in templates by placing files under .forge/prompts/ or prompts/;
// the embedded defaults are the fallback.
//
// Example usage:
//
//	loader := prompt.NewLoader(repoRoot)
//	text, err := loader.Render("create_tests", map[string]any{
//	    "SourcePath": "pkg/calc.py",
//	    "Framework":  "pytest",
//	    "Code":       code,
//	})
package prompt
