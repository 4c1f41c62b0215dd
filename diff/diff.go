package diff

import (
	"sort"

	"github.com/randalmurphal/forge/git"
)

// ChangeKind classifies a file-level delta.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
	Renamed  ChangeKind = "renamed"
)

// Hunk is one contiguous region of change within a file.
type Hunk struct {
	OldStart int      // First line of the old range
	OldLines int      // Length of the old range
	NewStart int      // First line of the new range
	NewLines int      // Length of the new range
	Added    []string // Lines added in this hunk
	Removed  []string // Lines removed in this hunk
}

// FileDelta is one changed file with its parsed hunks.
type FileDelta struct {
	Path    string     // Path at head
	OldPath string     // Previous path, set for renames
	Kind    ChangeKind
	Hunks   []Hunk
}

// ChangeSet is the immutable result of change detection.
// Files are sorted by path.
type ChangeSet struct {
	Base      string // Base branch name
	Head      string // Head ref the diff was computed for
	MergeBase string // Merge-base commit the diff was computed against
	Files     []FileDelta
}

// Empty reports whether the change set contains no files.
func (c *ChangeSet) Empty() bool {
	return len(c.Files) == 0
}

// Options filters which paths appear in a change set.
type Options struct {
	Include    []string // Substring patterns; empty means everything
	Exclude    []string // Substring patterns dropped unconditionally
	Extensions []string // Path suffixes, e.g. ".py"; empty means everything
}

// Compute resolves the merge-base of head and base, enumerates the
// path-level deltas between merge-base and head, parses hunk boundaries
// and applies the filter options. Unrelated histories fail with
// git.ErrNoMergeBase and no partial result.
func Compute(g *git.Context, base, head string, opts Options) (*ChangeSet, error) {
	mergeBase, err := g.MergeBase(base, head)
	if err != nil {
		return nil, err
	}

	nameStatus, err := g.DiffNameStatus(mergeBase, head)
	if err != nil {
		return nil, err
	}

	files := parseNameStatus(nameStatus)
	files = filter(files, opts)

	// One unified diff for all surviving paths, split per file.
	if paths := diffablePaths(files); len(paths) > 0 {
		unified, err := g.DiffUnified(mergeBase, head, paths...)
		if err != nil {
			return nil, err
		}
		hunksByPath := parseUnified(unified)
		for i := range files {
			files[i].Hunks = hunksByPath[files[i].Path]
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return &ChangeSet{
		Base:      base,
		Head:      head,
		MergeBase: mergeBase,
		Files:     files,
	}, nil
}

// diffablePaths returns the paths worth asking git for content diffs on.
// Deleted files carry no head content.
func diffablePaths(files []FileDelta) []string {
	var paths []string
	for _, f := range files {
		if f.Kind != Deleted {
			paths = append(paths, f.Path)
		}
	}
	return paths
}
