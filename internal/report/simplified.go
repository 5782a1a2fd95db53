// Package report derives flat and textual views of a resolved tree.
package report

import (
	"slices"
	"strings"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

// Separator ends each node's block in the simplified dump.
var Separator = strings.Repeat("—", 20)

// Flatten indexes every node reachable from roots by slug key.
func Flatten(roots []*doctree.Node) map[string]*doctree.Node {
	out := make(map[string]*doctree.Node)
	Walk(roots, func(n *doctree.Node, _ int) {
		out[n.SlugSuffix] = n
	})
	return out
}

// Walk visits nodes depth-first in tree order, passing each node's depth.
func Walk(roots []*doctree.Node, fn func(n *doctree.Node, depth int)) {
	var visit func(n *doctree.Node, depth int)
	visit = func(n *doctree.Node, depth int) {
		fn(n, depth)
		for _, c := range n.SubDocuments {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
}

// Simplified renders the tree as diff-friendly text lines. Every line of a
// node's block is prefixed with one '~' per level of depth.
func Simplified(roots []*doctree.Node) []string {
	var lines []string
	Walk(roots, func(n *doctree.Node, depth int) {
		indent := strings.Repeat("~", depth)
		for _, l := range nodeLines(n) {
			lines = append(lines, indent+l)
		}
	})
	return lines
}

// SimplifiedText joins Simplified output with newlines.
func SimplifiedText(roots []*doctree.Node) string {
	return strings.Join(Simplified(roots), "\n")
}

func nodeLines(n *doctree.Node) []string {
	var primary, support []string
	for _, c := range n.SubDocuments {
		if c.Type.IsSupport() {
			support = append(support, c.ID)
		} else {
			primary = append(primary, c.ID)
		}
	}
	slices.Sort(primary)
	slices.Sort(support)
	hubs := slices.Clone(n.HubURLs)
	slices.Sort(hubs)

	lines := []string{
		"id: " + n.ID,
		doctree.TitleText(n.Title) + " - " + string(n.Type),
		"content:",
		ContentText(n.Content),
		"hub urls:",
		"sub-document ids:",
	}
	lines = append(lines, primary...)
	lines = append(lines, hubs...)
	lines = append(lines, "supporting document ids:")
	lines = append(lines, support...)
	return append(lines, Separator)
}

// ContentText joins the text of every inline, one per line.
func ContentText(items []doctree.ContentItem) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		texts := make([]string, 0, len(it.Text))
		for _, in := range it.Text {
			texts = append(texts, in.Text)
		}
		blocks = append(blocks, strings.Join(texts, "\n"))
	}
	return strings.Join(blocks, "\n")
}
