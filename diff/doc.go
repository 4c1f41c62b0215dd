// Package diff computes change sets between a branch head and its
// merge-base with the base branch.
//
// Change detection always diffs against the merge-base, not the base
// branch tip, so results are stable even when the base has advanced.
// Results are sorted by path so two computations over the same
// (base, head) pair are byte-identical, which downstream prompt
// construction depends on.
package diff
