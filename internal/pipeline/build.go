package pipeline

import (
	"fmt"
	"time"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/dgallion1/atlasgen/internal/report"
	"github.com/dgallion1/atlasgen/internal/resolve"
	"github.com/dgallion1/atlasgen/internal/source"
	"github.com/dgallion1/atlasgen/internal/treebuild"
)

// Output is everything one build produced. It is immutable once returned.
type Output struct {
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	InputFiles []string
	Records    int

	Roots      []*doctree.Node
	ByKey      map[string]*doctree.Node
	Lookup     doctree.SlugLookup
	Simplified []string
	Counts     report.Counts
}

// Build runs the engine over a loaded snapshot: tree construction, reference
// resolution and the reports derived from the resolved tree.
func Build(snap *source.Snapshot, buildID string) (*Output, error) {
	start := time.Now()

	set := doctree.NewRecordSet(snap.Records)
	tree, err := treebuild.Build(set)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	resolved := resolve.Resolve(tree.Roots, tree.ByKey, tree.Lookup)

	return &Output{
		BuildID:    buildID,
		StartedAt:  start,
		Duration:   time.Since(start),
		InputFiles: snap.Files,
		Records:    set.Len(),
		Roots:      resolved.Roots,
		ByKey:      resolved.ByKey,
		Lookup:     tree.Lookup,
		Simplified: report.Simplified(resolved.Roots),
		Counts:     report.CountNodes(resolved.Roots),
	}, nil
}

// Node returns the resolved node for a slug key, or nil.
func (o *Output) Node(key string) *doctree.Node {
	return o.ByKey[key]
}
