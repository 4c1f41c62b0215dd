package diff

import "strings"

// filter drops deltas that do not match the include patterns, match an
// exclude pattern, or carry the wrong extension. Patterns are substring
// matches against the head-side path.
func filter(files []FileDelta, opts Options) []FileDelta {
	var kept []FileDelta
	for _, f := range files {
		if !matchExtension(f.Path, opts.Extensions) {
			continue
		}
		if matchAny(f.Path, opts.Exclude) {
			continue
		}
		if len(opts.Include) > 0 && !matchAny(f.Path, opts.Include) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func matchAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
