// Package source loads records from JSON files on disk.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/atlasgen/internal/doctree"
)

// Snapshot is the set of records read in one load, with the files they
// came from.
type Snapshot struct {
	Records []doctree.Record
	Files   []string
}

// Load reads every file matching pattern (which may contain "**") and
// concatenates their records. Files are read in lexical path order.
//
// A file holds either a JSON array of records or an object mapping record id
// to record. In the object form the key order of the file is kept and the
// key fills in a missing id.
func Load(pattern string) (*Snapshot, error) {
	matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	snap := &Snapshot{}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		recs, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		snap.Records = append(snap.Records, recs...)
		snap.Files = append(snap.Files, path)
	}
	if len(snap.Files) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	return snap, nil
}

// Decode parses one file's worth of records.
func Decode(data []byte) ([]doctree.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var recs []doctree.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	case '{':
		return decodeByID(data)
	default:
		return nil, fmt.Errorf("expected array or object, got %q", data[0])
	}
}

func decodeByID(data []byte) ([]doctree.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var recs []doctree.Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var rec doctree.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %s: %w", key, err)
		}
		if rec.ID == "" {
			rec.ID = key
		}
		recs = append(recs, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return recs, nil
}

// BaseDir returns the static directory prefix of pattern, the directory a
// watcher has to observe to see every file the pattern can match.
func BaseDir(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(filepath.Clean(pattern)))
	return filepath.FromSlash(base)
}

// Match reports whether path matches pattern.
func Match(pattern, path string) bool {
	ok, err := doublestar.PathMatch(filepath.Clean(pattern), filepath.Clean(path))
	return err == nil && ok
}
