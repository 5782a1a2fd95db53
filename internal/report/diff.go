package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff is the set of unified diffs between two simplified dumps.
type Diff struct {
	Simplified       string
	SimplifiedSorted string
}

// Empty reports whether the two dumps were identical.
func (d Diff) Empty() bool {
	return d.Simplified == "" && d.SimplifiedSorted == ""
}

// DiffSimplified compares two simplified dumps, once in tree order and once
// with lines sorted so that moved nodes do not show up as changes.
func DiffSimplified(baseName string, base []string, newName string, next []string) (Diff, error) {
	var d Diff
	var err error
	d.Simplified, err = unified("simplified-"+baseName, base, "simplified-"+newName, next)
	if err != nil {
		return Diff{}, fmt.Errorf("simplified diff: %w", err)
	}

	sortedBase := slices.Clone(base)
	slices.Sort(sortedBase)
	sortedNext := slices.Clone(next)
	slices.Sort(sortedNext)
	d.SimplifiedSorted, err = unified("simplified-sorted-"+baseName, sortedBase, "simplified-sorted-"+newName, sortedNext)
	if err != nil {
		return Diff{}, fmt.Errorf("sorted diff: %w", err)
	}
	return d, nil
}

// DiffText is a unified diff of two arbitrary texts.
func DiffText(baseName, base, newName, next string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(base),
		B:        difflib.SplitLines(next),
		FromFile: baseName,
		ToFile:   newName,
		Context:  3,
	})
}

func unified(baseName string, base []string, newName string, next []string) (string, error) {
	return DiffText(baseName, strings.Join(base, "\n"), newName, strings.Join(next, "\n"))
}
