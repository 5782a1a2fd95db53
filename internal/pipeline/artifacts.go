package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/dgallion1/atlasgen/internal/render"
	"github.com/dgallion1/atlasgen/internal/report"
)

// Output file names, shared by the local writer, the blob publisher and the
// diff command.
const (
	FileTree       = "view-node-tree.json"
	FileNodeMap    = "view-node-map.json"
	FileSlugLookup = "slug-lookup.json"
	FileSimplified = "simplified-atlas-tree.txt"
	FileCounts     = "view-node-counts.txt"
	FileHTML       = "atlas-data.html"
)

// Artifact is one serialized build output.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// MapEntry is a node in the flat node map, carrying its content rendered as
// markdown alongside the structured form.
type MapEntry struct {
	*doctree.Node
	MarkdownContent string `json:"markdownContent"`
}

// NodeMap returns the flat node map keyed by slug key.
func NodeMap(out *Output) map[string]MapEntry {
	m := make(map[string]MapEntry, len(out.ByKey))
	for key, n := range out.ByKey {
		m[key] = MapEntry{Node: n, MarkdownContent: render.Markdown(n.Content)}
	}
	return m
}

// Artifacts serializes out into the full output file set. exporter may be
// nil, in which case the HTML document is skipped.
func Artifacts(out *Output, exporter *render.HTMLExporter, title string) ([]Artifact, error) {
	tree, err := json.Marshal(out.Roots)
	if err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	nodeMap, err := json.Marshal(NodeMap(out))
	if err != nil {
		return nil, fmt.Errorf("marshal node map: %w", err)
	}
	lookup, err := json.Marshal(out.Lookup)
	if err != nil {
		return nil, fmt.Errorf("marshal slug lookup: %w", err)
	}

	arts := []Artifact{
		{Name: FileTree, ContentType: "application/json", Data: tree},
		{Name: FileNodeMap, ContentType: "application/json", Data: nodeMap},
		{Name: FileSlugLookup, ContentType: "application/json", Data: lookup},
		{Name: FileSimplified, ContentType: "text/plain; charset=utf-8", Data: []byte(strings.Join(out.Simplified, "\n"))},
		{Name: FileCounts, ContentType: "text/plain; charset=utf-8", Data: []byte(out.Counts.Text())},
	}

	if exporter != nil {
		doc, err := exporter.Document(title, out.Roots)
		if err != nil {
			return nil, fmt.Errorf("export html: %w", err)
		}
		arts = append(arts, Artifact{Name: FileHTML, ContentType: "text/html; charset=utf-8", Data: doc})
	}
	return arts, nil
}

// WriteDir writes every artifact into dir. Each file is written to a
// temporary name first and renamed into place.
func WriteDir(dir string, arts []Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, a := range arts {
		path := filepath.Join(dir, a.Name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("rename %s: %w", a.Name, err)
		}
	}
	return nil
}

// ReadArtifacts reads back the named files from dir.
func ReadArtifacts(dir string, names ...string) ([]Artifact, error) {
	arts := make([]Artifact, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		arts = append(arts, Artifact{Name: name, ContentType: contentType(name), Data: data})
	}
	return arts, nil
}

// ReadTree loads a previously written tree file.
func ReadTree(path string) ([]*doctree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	var roots []*doctree.Node
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("parse tree %s: %w", path, err)
	}
	return roots, nil
}

// ReadSimplified loads a simplified dump as lines. A path ending in .json is
// treated as a tree file and dumped first. An empty dump has no lines.
func ReadSimplified(path string) ([]string, error) {
	if strings.HasSuffix(path, ".json") {
		roots, err := ReadTree(path)
		if err != nil {
			return nil, err
		}
		// Content lines may hold newlines; split them the way a written dump
		// reads back.
		return strings.Split(report.SimplifiedText(roots), "\n"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read simplified dump: %w", err)
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	return strings.Split(string(data), "\n"), nil
}

// AllFiles lists the output files in the order they are written.
func AllFiles() []string {
	return []string{FileTree, FileNodeMap, FileSlugLookup, FileSimplified, FileCounts, FileHTML}
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
