// Package treebuild turns a flat record set into a numbered, slugged tree.
package treebuild

import (
	"fmt"
	"slices"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

// Result is the output of one build.
type Result struct {
	Roots  []*doctree.RawNode
	ByKey  map[string]*doctree.RawNode
	Lookup doctree.SlugLookup
}

// builder carries the mutable state of a single Build call.
type builder struct {
	set   *doctree.RecordSet
	slugs *SlugGenerator
	byKey map[string]*doctree.RawNode

	skyCounter int
	onPath     map[string]bool
}

// Build constructs the raw tree from set. Scope records become the roots;
// everything else is reached through parent/child relations. Records that
// cannot be reached from a root are left out.
func Build(set *doctree.RecordSet) (*Result, error) {
	b := &builder{
		set:    set,
		slugs:  NewSlugGenerator(),
		byKey:  make(map[string]*doctree.RawNode),
		onPath: make(map[string]bool),
	}

	var scopes []*doctree.Record
	for _, r := range set.Records() {
		if r.Type.IsRoot() {
			scopes = append(scopes, r)
		}
	}
	sorted, err := SortSiblings(scopes)
	if err != nil {
		return nil, fmt.Errorf("roots: %w", err)
	}

	res := &Result{ByKey: b.byKey}
	if len(sorted) == 0 {
		res.Lookup = b.slugs.Lookup()
		return res, nil
	}

	prefix := firstRune(sorted[0].DocNo)
	for i, rec := range sorted {
		if err := b.slugs.Reserve(rec.ID); err != nil {
			return nil, err
		}
		node := newNode(rec, doctree.FormalID{
			Prefix:     prefix,
			NumberPath: []doctree.Segment{doctree.Index(i)},
		}, rec.ID, nil, []string{})

		b.onPath[rec.ID] = true
		node.SubDocuments, err = b.children(rec, node, 1)
		delete(b.onPath, rec.ID)
		if err != nil {
			return nil, err
		}
		node.DescendantSlugSuffixes = descendants(node)

		b.byKey[node.SlugSuffix] = node
		res.Roots = append(res.Roots, node)
	}
	res.Lookup = b.slugs.Lookup()
	return res, nil
}

// children builds the sub documents of parent. start is the first counter
// value handed to a non-support child.
func (b *builder) children(parentRec *doctree.Record, parent *doctree.RawNode, start int) ([]*doctree.RawNode, error) {
	subs := b.subRecords(parentRec)
	if len(subs) == 0 {
		return []*doctree.RawNode{}, nil
	}
	sorted, err := SortSiblings(subs)
	if err != nil {
		return nil, err
	}

	out := make([]*doctree.RawNode, 0, len(sorted))
	counter := start
	for i, rec := range sorted {
		if rec.IsAgentArtifact {
			b.skyCounter = 0
		}
		if rec.IsSkyPrimitive {
			b.skyCounter++
		}

		fid := doctree.FormalID{
			Prefix:     parent.Title.FormalID.Prefix,
			NumberPath: slices.Clone(parent.Title.FormalID.NumberPath),
		}
		if rec.IsAgentArtifact {
			fid.Prefix = fmt.Sprintf("%s.AG%d", fid.Prefix, i+1)
		}
		next := doctree.Index(counter)
		if rec.IsSkyPrimitive {
			next = doctree.Label(fmt.Sprintf("P%d", b.skyCounter))
		}
		if (parent.Type.IsCategory() || rec.IsAgentArtifact) && len(fid.NumberPath) > 0 {
			fid.NumberPath = fid.NumberPath[:len(fid.NumberPath)-1]
		}
		if !rec.Type.IsSupport() {
			fid.NumberPath = append(fid.NumberPath, next)
		}
		if rec.IsAgentArtifact {
			fid.NumberPath = []doctree.Segment{}
		}

		key, err := b.slugs.Generate(parent.SlugSuffix, rec.ID)
		if err != nil {
			return nil, err
		}
		parentKey := parent.SlugSuffix
		ancestors := append(slices.Clone(parent.AncestorSlugSuffixes), parentKey)
		node := newNode(rec, fid, key, &parentKey, ancestors)

		childStart := 1
		if rec.Type.IsCategory() {
			childStart = counter
		}
		b.onPath[rec.ID] = true
		node.SubDocuments, err = b.children(rec, node, childStart)
		delete(b.onPath, rec.ID)
		if err != nil {
			return nil, err
		}
		node.DescendantSlugSuffixes = descendants(node)

		out = append(out, node)
		b.byKey[key] = node
		counter = advance(counter, node)
	}
	return out, nil
}

// subRecords returns the records parentRec lists as children, in input
// order. Section-like records must also name the parent, unless they
// declare no parents at all. Records already on the current path are
// skipped so a cyclic relation cannot recurse forever.
func (b *builder) subRecords(parentRec *doctree.Record) []*doctree.Record {
	if len(parentRec.Children) == 0 {
		return nil
	}
	var out []*doctree.Record
	for _, r := range b.set.Records() {
		if !slices.Contains(parentRec.Children, r.ID) || b.onPath[r.ID] {
			continue
		}
		if r.Type.IsSection() && len(r.Parents) > 0 && !slices.Contains(r.Parents, parentRec.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func newNode(rec *doctree.Record, fid doctree.FormalID, key string, parentKey *string, ancestors []string) *doctree.RawNode {
	return &doctree.RawNode{
		ID:   rec.ID,
		Type: rec.Type,
		Title: doctree.Title{
			FormalID: fid,
			Title:    doctree.DisplayTitle(rec.Type, rec.DocNo, rec.Name),
		},
		Content:              rec.Content,
		SlugSuffix:           key,
		ParentSlugSuffix:     parentKey,
		AncestorSlugSuffixes: ancestors,
		SubDocuments:         []*doctree.RawNode{},
		Files:                rec.Files,
		HubURLs:              rec.HubURLs,
		GlobalTags:           rec.GlobalTags,
		MasterStatus:         rec.MasterStatus,
	}
}

// descendants lists every slug key below n, each child followed by its own
// descendants.
func descendants(n *doctree.RawNode) []string {
	out := []string{}
	for _, c := range n.SubDocuments {
		out = append(out, c.SlugSuffix)
		out = append(out, c.DescendantSlugSuffixes...)
	}
	return out
}

// advance moves the sibling counter past node. Support records take no
// number. A category takes as many numbers as it has children, with nested
// categories flattened into their own children.
func advance(counter int, node *doctree.RawNode) int {
	switch {
	case node.Type.IsSupport():
		return counter
	case node.Type.IsCategory():
		return counter + flattenedChildren(node)
	default:
		return counter + 1
	}
}

func flattenedChildren(node *doctree.RawNode) int {
	n := 0
	for _, c := range node.SubDocuments {
		if c.Type.IsCategory() {
			n += flattenedChildren(c)
		} else {
			n++
		}
	}
	return n
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
