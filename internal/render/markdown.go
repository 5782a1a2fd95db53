// Package render turns resolved tree content into Markdown and HTML.
package render

import (
	"strings"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

var linkTextEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)

// Markdown renders resolved content items. Inline items of one block are
// concatenated into a paragraph; tables are set apart as their own block.
func Markdown(items []doctree.ContentItem) string {
	var blocks []string
	for _, it := range items {
		if it.Heading != "" {
			blocks = append(blocks, "### "+it.Heading)
		}
		var para strings.Builder
		flush := func() {
			if s := strings.TrimSpace(para.String()); s != "" {
				blocks = append(blocks, s)
			}
			para.Reset()
		}
		for _, in := range it.Text {
			if in.Type == doctree.InlineTable {
				flush()
				blocks = append(blocks, strings.TrimSpace(in.Text))
				continue
			}
			para.WriteString(inline(in))
		}
		flush()
	}
	return strings.Join(blocks, "\n\n")
}

func inline(in doctree.Inline) string {
	switch in.Type {
	case doctree.InlineLink, doctree.InlineMention:
		if in.Href == "" {
			return in.Text
		}
		return "[" + linkTextEscaper.Replace(in.Text) + "](" + in.Href + ")"
	case doctree.InlineEquation:
		return "$" + in.Text + "$"
	case doctree.InlineCode:
		return "`" + in.Text + "`"
	default:
		return in.Text
	}
}
