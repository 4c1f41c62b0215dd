package git

import (
	"fmt"
	"regexp"
	"strings"
)

// BranchPrefix is prepended to normalized branch names.
const BranchPrefix = "fg/"

// baseBranchCandidates are tried in order when detecting the base branch.
var baseBranchCandidates = []string{"main", "master", "fg/main", "fg/master"}

// DetectBaseBranch returns the first existing candidate base branch.
func (g *Context) DetectBaseBranch() (string, error) {
	for _, name := range baseBranchCandidates {
		if g.BranchExists(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s exist; configure base_branch explicitly",
		ErrBranchNotFound, strings.Join(baseBranchCandidates, ", "))
}

// Slugify converts a string to a branch-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(s)

	// Spaces and underscores become hyphens
	s = regexp.MustCompile(`[\s_]+`).ReplaceAllString(s, "-")

	// Keep alphanumerics, hyphens and slashes
	s = regexp.MustCompile(`[^a-z0-9/-]`).ReplaceAllString(s, "")

	// Collapse runs
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	s = regexp.MustCompile(`/+`).ReplaceAllString(s, "/")

	return strings.Trim(s, "-")
}

// NormalizeBranchName slugifies a raw name and ensures the forge prefix.
// Example: "Add User Auth" -> "fg/add-user-auth".
func NormalizeBranchName(name string) (string, error) {
	normalized := Slugify(name)

	if !strings.HasPrefix(normalized, BranchPrefix) {
		normalized = BranchPrefix + normalized
	}

	if normalized == BranchPrefix {
		return "", fmt.Errorf("invalid branch name: %q", name)
	}
	return normalized, nil
}

// ValidateBranchName checks a name against git ref-name rules.
func ValidateBranchName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") {
		return false
	}
	return !regexp.MustCompile(`[~^:?*\[\]\\\s]`).MatchString(name)
}
