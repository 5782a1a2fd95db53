package render

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `body { font-family: sans-serif; line-height: 1.6; margin: 0 auto; padding: 1rem; max-width: 1200px; color: #333; }
h1, h2, h3, h4, h5, h6 { margin-top: 2rem; margin-bottom: 1rem; font-weight: 600; line-height: 1.25; }
p { margin-bottom: 1rem; max-width: 60ch; }
a { color: #0066cc; text-decoration: none; }
aside.supporting { border-left: 3px solid #ddd; padding-left: 1rem; }`

// HTMLExporter renders a resolved tree as one standalone HTML document.
type HTMLExporter struct {
	md goldmark.Markdown
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Document writes the full document for roots. Every node gets a section
// whose heading carries the node's slug key as its id.
func (e *HTMLExporter) Document(title string, roots []*doctree.Node) ([]byte, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	titleEl := element(atom.Title)
	titleEl.AppendChild(text(title))
	head.AppendChild(titleEl)
	style := element(atom.Style)
	style.AppendChild(text(stylesheet))
	head.AppendChild(style)
	root.AppendChild(head)

	body := element(atom.Body)
	for _, n := range roots {
		sec, err := e.node(n, 1)
		if err != nil {
			return nil, err
		}
		body.AppendChild(sec)
	}
	root.AppendChild(body)
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *HTMLExporter) node(n *doctree.Node, level int) (*html.Node, error) {
	sec := element(atom.Section,
		html.Attribute{Key: "data-type", Val: string(n.Type)},
		html.Attribute{Key: "data-notion-id", Val: n.ID},
	)

	h := element(headingAtom(level), html.Attribute{Key: "id", Val: n.SlugSuffix})
	a := element(atom.A, html.Attribute{Key: "href", Val: n.URL()})
	a.AppendChild(text(doctree.TitleText(n.Title)))
	h.AppendChild(a)
	sec.AppendChild(h)

	if len(n.Content) > 0 {
		content, err := e.content(n.Content)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.SlugSuffix, err)
		}
		sec.AppendChild(content)
	}

	if len(n.Files) > 0 {
		ul := element(atom.Ul, html.Attribute{Key: "class", Val: "files"})
		for _, f := range n.Files {
			li := element(atom.Li)
			fa := element(atom.A, html.Attribute{Key: "href", Val: f.URL})
			fa.AppendChild(text(f.URL))
			li.AppendChild(fa)
			ul.AppendChild(li)
		}
		sec.AppendChild(ul)
	}

	var support *html.Node
	for _, c := range n.SubDocuments {
		child, err := e.node(c, level+1)
		if err != nil {
			return nil, err
		}
		if !c.Type.IsSupport() {
			sec.AppendChild(child)
			continue
		}
		if support == nil {
			support = element(atom.Aside, html.Attribute{Key: "class", Val: "supporting"})
		}
		support.AppendChild(child)
	}
	if support != nil {
		// Supporting documents render ahead of the primary children.
		if first := firstSection(sec); first != nil {
			sec.InsertBefore(support, first)
		} else {
			sec.AppendChild(support)
		}
	}
	return sec, nil
}

// content converts resolved items to HTML by way of Markdown.
func (e *HTMLExporter) content(items []doctree.ContentItem) (*html.Node, error) {
	var out bytes.Buffer
	if err := e.md.Convert([]byte(Markdown(items)), &out); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	div := element(atom.Div, html.Attribute{Key: "class", Val: "content"})
	nodes, err := html.ParseFragment(&out, div)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, c := range nodes {
		div.AppendChild(c)
	}
	return div, nil
}

func firstSection(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Section {
			return c
		}
	}
	return nil
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	}
	return atom.H6
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
