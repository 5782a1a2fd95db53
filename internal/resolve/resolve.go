// Package resolve rewrites in-content references of a built tree into
// display-ready links once every node's title and slug are known.
package resolve

import (
	"strings"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

// Result holds the resolved tree and a flat index of it.
type Result struct {
	Roots []*doctree.Node
	ByKey map[string]*doctree.Node
}

type resolver struct {
	raw    map[string]*doctree.RawNode
	lookup doctree.SlugLookup
	done   map[string]*doctree.Node
}

// Resolve converts every raw node reachable from roots. byKey indexes the
// raw nodes by slug key and is how references find their targets. The
// inputs are not modified.
func Resolve(roots []*doctree.RawNode, byKey map[string]*doctree.RawNode, lookup doctree.SlugLookup) *Result {
	r := &resolver{
		raw:    byKey,
		lookup: lookup,
		done:   make(map[string]*doctree.Node, len(byKey)),
	}
	res := &Result{
		Roots: make([]*doctree.Node, 0, len(roots)),
		ByKey: r.done,
	}
	for _, n := range roots {
		res.Roots = append(res.Roots, r.node(n))
	}
	return res
}

func (r *resolver) node(n *doctree.RawNode) *doctree.Node {
	if done, ok := r.done[n.SlugSuffix]; ok {
		return done
	}
	out := &doctree.Node{
		ID:                     n.ID,
		Type:                   n.Type,
		Title:                  n.Title,
		Content:                r.content(n.Content),
		SlugSuffix:             n.SlugSuffix,
		ParentSlugSuffix:       n.ParentSlugSuffix,
		AncestorSlugSuffixes:   n.AncestorSlugSuffixes,
		DescendantSlugSuffixes: n.DescendantSlugSuffixes,
		SubDocuments:           make([]*doctree.Node, 0, len(n.SubDocuments)),
		Files:                  n.Files,
		HubURLs:                n.HubURLs,
		GlobalTags:             n.GlobalTags,
		MasterStatus:           n.MasterStatus,
	}
	r.done[n.SlugSuffix] = out
	for _, c := range n.SubDocuments {
		out.SubDocuments = append(out.SubDocuments, r.node(c))
	}
	return out
}

func (r *resolver) content(blocks []doctree.ContentBlock) []doctree.ContentItem {
	out := []doctree.ContentItem{}
	for _, b := range blocks {
		var text []doctree.Inline
		if b.Rich != nil {
			for _, rt := range b.Rich {
				if in, ok := r.inline(rt); ok {
					text = append(text, in)
				}
			}
		} else if b.Text != "" {
			text = append(text, doctree.Inline{Type: doctree.InlineParagraph, Text: b.Text})
		}
		if len(text) == 0 {
			continue
		}
		out = append(out, doctree.ContentItem{Heading: b.Heading, Text: text})
	}
	return out
}

func (r *resolver) inline(rt doctree.RichText) (doctree.Inline, bool) {
	text := rt.PlainText
	if text == "" {
		return doctree.Inline{}, false
	}
	switch {
	case rt.Type == doctree.RichTextMention && rt.MentionPageID != "":
		return r.mention(rt.MentionPageID, text, rt.LinkURL), true
	case rt.Type == doctree.RichTextText && rt.LinkURL != "":
		return r.link(rt.LinkURL, text), true
	case rt.Type == doctree.RichTextEquation:
		return doctree.Inline{Type: doctree.InlineEquation, Text: text}, true
	case rt.Annotations.Code:
		return doctree.Inline{Type: doctree.InlineCode, Text: text}, true
	case strings.Contains(text, "----"):
		return doctree.Inline{Type: doctree.InlineTable, Text: text}, true
	default:
		return doctree.Inline{Type: doctree.InlineParagraph, Text: text}, true
	}
}

func (r *resolver) mention(id, text, url string) doctree.Inline {
	if target := r.target(id); target != nil {
		return doctree.Inline{
			Type: doctree.InlineMention,
			Text: doctree.TitleText(target.Title),
			Href: doctree.URL(target.Title, target.SlugSuffix),
		}
	}
	return doctree.Inline{Type: doctree.InlineMention, Text: text, Href: url}
}

func (r *resolver) link(href, text string) doctree.Inline {
	if id, ok := PageIDFromURL(href); ok {
		if target := r.target(id); target != nil {
			return doctree.Inline{
				Type: doctree.InlineLink,
				Text: doctree.TitleText(target.Title),
				Href: doctree.URL(target.Title, target.SlugSuffix),
			}
		}
	}
	return doctree.Inline{Type: doctree.InlineLink, Text: text, Href: href, External: true}
}

func (r *resolver) target(id string) *doctree.RawNode {
	return r.raw[r.lookup.Key(id)]
}
