package diff

import (
	"strconv"
	"strings"
)

// parseNameStatus parses `git diff --name-status -M` output.
// Lines look like "M\tpath", "A\tpath", "D\tpath" or "R100\told\tnew".
func parseNameStatus(out string) []FileDelta {
	var files []FileDelta
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		switch {
		case status == "A":
			files = append(files, FileDelta{Path: fields[1], Kind: Added})
		case status == "M":
			files = append(files, FileDelta{Path: fields[1], Kind: Modified})
		case status == "D":
			files = append(files, FileDelta{Path: fields[1], Kind: Deleted})
		case strings.HasPrefix(status, "R") && len(fields) >= 3:
			files = append(files, FileDelta{
				Path:    fields[2],
				OldPath: fields[1],
				Kind:    Renamed,
			})
		}
	}
	return files
}

// parseUnified splits unified diff output into hunks keyed by the
// new-side path.
func parseUnified(out string) map[string][]Hunk {
	hunks := make(map[string][]Hunk)

	var (
		path    string
		current *Hunk
	)
	flush := func() {
		if current != nil && path != "" {
			hunks[path] = append(hunks[path], *current)
		}
		current = nil
	}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			path = ""
		case strings.HasPrefix(line, "+++ b/"):
			path = strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
			// /dev/null or old-side header
		case strings.HasPrefix(line, "@@"):
			flush()
			if h, ok := parseHunkHeader(line); ok {
				current = &h
			}
		case current != nil && strings.HasPrefix(line, "+"):
			current.Added = append(current.Added, line[1:])
		case current != nil && strings.HasPrefix(line, "-"):
			current.Removed = append(current.Removed, line[1:])
		}
	}
	flush()

	return hunks
}

// parseHunkHeader parses "@@ -oldStart,oldLines +newStart,newLines @@ ...".
func parseHunkHeader(line string) (Hunk, bool) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return Hunk{}, false
	}

	oldStart, oldLines, ok := parseRange(strings.TrimPrefix(parts[1], "-"))
	if !ok {
		return Hunk{}, false
	}
	newStart, newLines, ok := parseRange(strings.TrimPrefix(parts[2], "+"))
	if !ok {
		return Hunk{}, false
	}

	return Hunk{
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
	}, true
}

// parseRange parses "start" or "start,lines". A bare start implies one line.
func parseRange(s string) (start, lines int, ok bool) {
	lines = 1
	if i := strings.IndexByte(s, ','); i >= 0 {
		n, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, false
		}
		lines = n
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	return n, lines, true
}
