package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

func TestMarkdown(t *testing.T) {
	items := []doctree.ContentItem{
		{Heading: "Intro", Text: []doctree.Inline{
			{Type: doctree.InlineParagraph, Text: "See "},
			{Type: doctree.InlineMention, Text: "A.0.1 - Sec 1", Href: "/A_0_1_Sec_1/S1|R1"},
			{Type: doctree.InlineParagraph, Text: " and "},
			{Type: doctree.InlineCode, Text: "x"},
		}},
		{Text: []doctree.Inline{
			{Type: doctree.InlineTable, Text: "| a | b |\n|---|---|\n| 1 | 2 |"},
		}},
		{Text: []doctree.Inline{
			{Type: doctree.InlineEquation, Text: "e=mc^2"},
			{Type: doctree.InlineParagraph, Text: " "},
			{Type: doctree.InlineLink, Text: "docs [v2]", Href: "https://example.com", External: true},
			{Type: doctree.InlineMention, Text: "unresolved"},
		}},
	}

	want := "### Intro\n\n" +
		"See [A.0.1 - Sec 1](/A_0_1_Sec_1/S1|R1) and `x`\n\n" +
		"| a | b |\n|---|---|\n| 1 | 2 |\n\n" +
		`$e=mc^2$ [docs \[v2\]](https://example.com)unresolved`
	assert.Equal(t, want, Markdown(items))
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", Markdown(nil))
}

func sampleTree() []*doctree.Node {
	fid := func(segs ...int) doctree.FormalID {
		p := make([]doctree.Segment, len(segs))
		for i, s := range segs {
			p[i] = doctree.Index(s)
		}
		return doctree.FormalID{Prefix: "A", NumberPath: p}
	}
	parent := "R1"
	tenet := &doctree.Node{
		ID: "T1", Type: doctree.TypeTenet, SlugSuffix: "T1|R1", ParentSlugSuffix: &parent,
		Title: doctree.Title{FormalID: fid(0), Title: "A tenet"},
	}
	sec := &doctree.Node{
		ID: "S1", Type: doctree.TypeSection, SlugSuffix: "S1|R1", ParentSlugSuffix: &parent,
		Title: doctree.Title{FormalID: fid(0, 1), Title: "Sec 1"},
		Content: []doctree.ContentItem{{Text: []doctree.Inline{
			{Type: doctree.InlineTable, Text: "| a | b |\n|---|---|\n| 1 | 2 |"},
		}}},
		Files: []doctree.FileRef{{URL: "https://files.example.com/img.png"}},
	}
	root := &doctree.Node{
		ID: "R1", Type: doctree.TypeScope, SlugSuffix: "R1",
		Title: doctree.Title{FormalID: fid(0), Title: "Alpha"},
		Content: []doctree.ContentItem{{Heading: "Intro", Text: []doctree.Inline{
			{Type: doctree.InlineParagraph, Text: "Read "},
			{Type: doctree.InlineMention, Text: "A.0.1 - Sec 1", Href: "/A_0_1_Sec_1/S1|R1"},
		}}},
		SubDocuments: []*doctree.Node{sec, tenet},
	}
	return []*doctree.Node{root}
}

func TestHTMLExporter_Document(t *testing.T) {
	out, err := NewHTMLExporter().Document("Atlas", sampleTree())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("<!DOCTYPE html>")))

	doc, err := html.Parse(bytes.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, "Atlas", textContent(findElement(doc, "title", "")))

	h1 := findElement(doc, "h1", "R1")
	require.NotNil(t, h1)
	assert.Equal(t, "A.0 - Alpha", textContent(h1))

	h2 := findElement(doc, "h2", "S1|R1")
	require.NotNil(t, h2)
	assert.Equal(t, "A.0.1 - Sec 1", textContent(h2))
	assert.Equal(t, "/A_0_1_Sec_1/S1|R1", attr(h2.FirstChild, "href"))

	assert.NotNil(t, findElement(doc, "table", ""), "GFM table rendered")
	assert.NotNil(t, findElement(doc, "h3", ""), "content heading rendered")

	aside := findElement(doc, "aside", "")
	require.NotNil(t, aside)
	assert.Contains(t, textContent(aside), "A.0 - A tenet")

	// Supporting documents come before the primary sub documents.
	body := string(out)
	assert.Less(t, strings.Index(body, "<aside"), strings.Index(body, `id="S1|R1"`))
	assert.Contains(t, body, "https://files.example.com/img.png")
}

func findElement(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && (id == "" || attr(n, "id") == id) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
